package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoscout/seoscout/internal/store"
	"github.com/seoscout/seoscout/internal/worker"
	"github.com/seoscout/seoscout/pkg/models"
)

// --- stubs ---

type stubStore struct {
	analysis map[uuid.UUID]*models.AnalysisRecord
	optim    map[uuid.UUID]*models.OptimizationRecord
}

func newStubStore() *stubStore {
	return &stubStore{
		analysis: make(map[uuid.UUID]*models.AnalysisRecord),
		optim:    make(map[uuid.UUID]*models.OptimizationRecord),
	}
}

func (s *stubStore) Ping(_ context.Context) error { return nil }

func (s *stubStore) CreateAnalysisRecord(_ context.Context, rec *models.AnalysisRecord) error {
	s.analysis[rec.ID] = rec
	return nil
}

func (s *stubStore) GetAnalysisRecord(_ context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	rec, ok := s.analysis[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (s *stubStore) ListAnalysisRecords(_ context.Context, _ store.RecordFilter) ([]*models.AnalysisRecord, int, error) {
	out := make([]*models.AnalysisRecord, 0, len(s.analysis))
	for _, rec := range s.analysis {
		out = append(out, rec)
	}
	return out, len(out), nil
}

func (s *stubStore) CreateOptimizationRecord(_ context.Context, rec *models.OptimizationRecord) error {
	s.optim[rec.ID] = rec
	return nil
}

func (s *stubStore) GetOptimizationRecord(_ context.Context, id uuid.UUID) (*models.OptimizationRecord, error) {
	rec, ok := s.optim[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (s *stubStore) ListOptimizationRecords(_ context.Context, _ store.RecordFilter) ([]*models.OptimizationRecord, int, error) {
	out := make([]*models.OptimizationRecord, 0, len(s.optim))
	for _, rec := range s.optim {
		out = append(out, rec)
	}
	return out, len(out), nil
}

func (s *stubStore) ClaimRecord(_ context.Context, _ store.RecordKind, _ uuid.UUID) error { return nil }
func (s *stubStore) CompleteAnalysis(_ context.Context, _ uuid.UUID, _ store.AnalysisResults) error {
	return nil
}
func (s *stubStore) CompleteOptimization(_ context.Context, _ uuid.UUID, _ store.OptimizationResults) error {
	return nil
}
func (s *stubStore) AttachOptimizedContent(_ context.Context, _ uuid.UUID, _ string, _ []string) error {
	return nil
}
func (s *stubStore) FailRecord(_ context.Context, _ store.RecordKind, _ uuid.UUID, _ string, _ int64) error {
	return nil
}

type stubCache struct{}

func (stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (stubCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (stubCache) Delete(_ context.Context, _ string) error                         { return nil }
func (stubCache) Ping(_ context.Context) error                                     { return nil }
func (stubCache) SetRecordStatus(_ context.Context, _ uuid.UUID, _ models.RecordStatus, _ time.Duration) error {
	return nil
}
func (stubCache) GetRecordStatus(_ context.Context, _ uuid.UUID) (models.RecordStatus, bool, error) {
	return "", false, nil
}
func (stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

type stubQueue struct {
	tasks []worker.Task
}

func (q *stubQueue) Enqueue(_ context.Context, task worker.Task, _ time.Duration) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *stubQueue) Dequeue(ctx context.Context) (*worker.Task, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// --- helpers ---

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func getWithParam(h http.HandlerFunc, path, param, value string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

// --- analysis creation ---

func TestCreateAnalysisWithContent(t *testing.T) {
	st := newStubStore()
	q := &stubQueue{}
	h := NewCreateAnalysisHandler(st, stubCache{}, q)

	w := postJSON(t, h, "/api/v1/analyze", map[string]any{
		"content":        "The quick brown fox jumps over the lazy dog.",
		"target_keyword": "fox",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env struct {
		Data createdResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, models.StatusPending, env.Data.Status)

	rec, ok := st.analysis[env.Data.ID]
	require.True(t, ok, "record persisted")
	assert.Nil(t, rec.InputURL)
	assert.Equal(t, "fox", rec.TargetKeyword)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, worker.TaskAnalyze, q.tasks[0].Kind)
	assert.Equal(t, env.Data.ID, q.tasks[0].RecordID)
	assert.Equal(t, 1, q.tasks[0].Attempt)
}

func TestCreateAnalysisWithURL(t *testing.T) {
	st := newStubStore()
	q := &stubQueue{}
	h := NewCreateAnalysisHandler(st, stubCache{}, q)

	w := postJSON(t, h, "/api/v1/analyze", map[string]any{
		"url":            "https://example.com/post",
		"target_keyword": "fox",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, q.tasks, 1)

	for _, rec := range st.analysis {
		require.NotNil(t, rec.InputURL)
		assert.Equal(t, "https://example.com/post", *rec.InputURL)
		assert.Empty(t, rec.InputContent)
	}
}

func TestCreateAnalysisValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing keyword", map[string]any{"content": "some text here"}},
		{"neither url nor content", map[string]any{"target_keyword": "fox"}},
		{"both url and content", map[string]any{
			"url": "https://example.com", "content": "text", "target_keyword": "fox",
		}},
		{"invalid url scheme", map[string]any{"url": "ftp://example.com", "target_keyword": "fox"}},
		{"url without host", map[string]any{"url": "https://", "target_keyword": "fox"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStubStore()
			q := &stubQueue{}
			h := NewCreateAnalysisHandler(st, stubCache{}, q)

			w := postJSON(t, h, "/api/v1/analyze", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
			assert.Empty(t, st.analysis, "nothing persisted")
			assert.Empty(t, q.tasks, "nothing enqueued")
		})
	}
}

func TestCreateAnalysisInvalidJSON(t *testing.T) {
	h := NewCreateAnalysisHandler(newStubStore(), stubCache{}, &stubQueue{})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- analysis retrieval ---

func TestGetAnalysis(t *testing.T) {
	st := newStubStore()
	rec := &models.AnalysisRecord{
		BaseRecord: models.BaseRecord{
			ID:            uuid.New(),
			Status:        models.StatusCompleted,
			TargetKeyword: "fox",
		},
	}
	st.analysis[rec.ID] = rec
	h := NewGetAnalysisHandler(st)

	w := getWithParam(h, "/api/v1/analyze/"+rec.ID.String(), "recordID", rec.ID.String())
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data models.AnalysisRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, rec.ID, env.Data.ID)
	assert.Equal(t, models.StatusCompleted, env.Data.Status)
}

func TestGetAnalysisNotFound(t *testing.T) {
	h := NewGetAnalysisHandler(newStubStore())
	w := getWithParam(h, "/api/v1/analyze/x", "recordID", uuid.New().String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestGetAnalysisBadID(t *testing.T) {
	h := NewGetAnalysisHandler(newStubStore())
	w := getWithParam(h, "/api/v1/analyze/nope", "recordID", "nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAnalysis(t *testing.T) {
	st := newStubStore()
	for i := 0; i < 3; i++ {
		rec := &models.AnalysisRecord{BaseRecord: models.BaseRecord{ID: uuid.New(), Status: models.StatusPending}}
		st.analysis[rec.ID] = rec
	}
	h := NewListAnalysisHandler(st)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/analyze?page=1&limit=2", nil)
	w := httptest.NewRecorder()
	h(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data []models.AnalysisRecord `json:"data"`
		Meta struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Meta.Page)
	assert.Equal(t, 2, env.Meta.Limit)
	assert.Equal(t, 3, env.Meta.Total)
}

func TestListAnalysisInvalidStatus(t *testing.T) {
	h := NewListAnalysisHandler(newStubStore())
	r := httptest.NewRequest(http.MethodGet, "/api/v1/analyze?status=bogus", nil)
	w := httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- optimization ---

func validOptimizeBody() map[string]any {
	return map[string]any{
		"content":        "An in-depth article about woodland animals and their habitats.",
		"target_keyword": "fox",
		"target_length":  500,
		"tone":           "Professional",
	}
}

func TestCreateOptimization(t *testing.T) {
	st := newStubStore()
	q := &stubQueue{}
	h := NewCreateOptimizationHandler(st, stubCache{}, q)

	w := postJSON(t, h, "/api/v1/optimize", validOptimizeBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env struct {
		Data createdResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))

	rec, ok := st.optim[env.Data.ID]
	require.True(t, ok)
	assert.Equal(t, "professional", rec.Tone, "tone is lowercased")
	assert.Equal(t, 500, rec.TargetLength)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, worker.TaskOptimizeDirect, q.tasks[0].Kind)
}

func TestCreateOptimizationValidation(t *testing.T) {
	mutate := func(key string, value any) map[string]any {
		body := validOptimizeBody()
		body[key] = value
		return body
	}

	tests := []struct {
		name string
		body map[string]any
	}{
		{"content too short", mutate("content", "tiny")},
		{"content too few words", mutate("content", "only-four words in here")},
		{"missing keyword", mutate("target_keyword", "")},
		{"target_length too small", mutate("target_length", 49)},
		{"target_length too large", mutate("target_length", 5001)},
		{"target_length missing", mutate("target_length", 0)},
		{"unknown tone", mutate("tone", "sarcastic")},
		{"missing tone", mutate("tone", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStubStore()
			q := &stubQueue{}
			h := NewCreateOptimizationHandler(st, stubCache{}, q)

			w := postJSON(t, h, "/api/v1/optimize", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Empty(t, st.optim)
			assert.Empty(t, q.tasks)
		})
	}
}

func TestGetOptimizationNotFound(t *testing.T) {
	h := NewGetOptimizationHandler(newStubStore())
	w := getWithParam(h, "/api/v1/optimize/x", "recordID", uuid.New().String())
	assert.Equal(t, http.StatusNotFound, w.Code)
}
