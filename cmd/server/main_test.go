package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoscout/seoscout/internal/store"
	"github.com/seoscout/seoscout/pkg/models"
)

// --- stubs ---

type testStore struct {
	pingErr error
}

func (s *testStore) Ping(_ context.Context) error { return s.pingErr }
func (s *testStore) CreateAnalysisRecord(_ context.Context, _ *models.AnalysisRecord) error {
	return nil
}
func (s *testStore) GetAnalysisRecord(_ context.Context, _ uuid.UUID) (*models.AnalysisRecord, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListAnalysisRecords(_ context.Context, _ store.RecordFilter) ([]*models.AnalysisRecord, int, error) {
	return nil, 0, nil
}
func (s *testStore) CreateOptimizationRecord(_ context.Context, _ *models.OptimizationRecord) error {
	return nil
}
func (s *testStore) GetOptimizationRecord(_ context.Context, _ uuid.UUID) (*models.OptimizationRecord, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListOptimizationRecords(_ context.Context, _ store.RecordFilter) ([]*models.OptimizationRecord, int, error) {
	return nil, 0, nil
}
func (s *testStore) ClaimRecord(_ context.Context, _ store.RecordKind, _ uuid.UUID) error {
	return nil
}
func (s *testStore) CompleteAnalysis(_ context.Context, _ uuid.UUID, _ store.AnalysisResults) error {
	return nil
}
func (s *testStore) CompleteOptimization(_ context.Context, _ uuid.UUID, _ store.OptimizationResults) error {
	return nil
}
func (s *testStore) AttachOptimizedContent(_ context.Context, _ uuid.UUID, _ string, _ []string) error {
	return nil
}
func (s *testStore) FailRecord(_ context.Context, _ store.RecordKind, _ uuid.UUID, _ string, _ int64) error {
	return nil
}

type testCache struct {
	pingErr error
}

func (c *testCache) Ping(_ context.Context) error { return c.pingErr }
func (c *testCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
func (c *testCache) Get(_ context.Context, _ string) ([]byte, bool, error) { return nil, false, nil }
func (c *testCache) Delete(_ context.Context, _ string) error              { return nil }
func (c *testCache) SetRecordStatus(_ context.Context, _ uuid.UUID, _ models.RecordStatus, _ time.Duration) error {
	return nil
}
func (c *testCache) GetRecordStatus(_ context.Context, _ uuid.UUID) (models.RecordStatus, bool, error) {
	return "", false, nil
}
func (c *testCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

// --- health handler ---

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data struct {
			Status   string            `json:"status"`
			Services map[string]string `json:"services"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "ok", env.Data.Status)
	assert.Equal(t, "ok", env.Data.Services["database"])
	assert.Equal(t, "ok", env.Data.Services["cache"])
}

func TestHealthHandler_DatabaseDegraded(t *testing.T) {
	h := healthHandler(&testStore{pingErr: context.DeadlineExceeded}, &testCache{})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, r)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var env struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "DEGRADED", env.Error.Code)
	assert.Equal(t, "degraded", env.Error.Details["database"])
	assert.Equal(t, "ok", env.Error.Details["cache"])
}

func TestHealthHandler_CacheDegraded(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{pingErr: context.DeadlineExceeded})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
