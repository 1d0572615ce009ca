// Package handler contains the HTTP handlers for the SEOScout API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/seoscout/seoscout/internal/api/response"
	"github.com/seoscout/seoscout/internal/cache"
	"github.com/seoscout/seoscout/internal/store"
	"github.com/seoscout/seoscout/internal/worker"
	"github.com/seoscout/seoscout/pkg/models"
)

const maxKeywordLength = 255

// createdResponse is the minimal payload returned on record creation; clients
// poll the GET endpoint for results.
type createdResponse struct {
	ID        uuid.UUID           `json:"id"`
	Status    models.RecordStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// NewCreateAnalysisHandler returns the handler for POST /api/v1/analyze.
// Exactly one of url and content must be provided.
func NewCreateAnalysisHandler(st store.Store, ca cache.Cache, queue worker.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL           string `json:"url"`
			Content       string `json:"content"`
			TargetKeyword string `json:"target_keyword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		keyword := strings.TrimSpace(req.TargetKeyword)
		if keyword == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "target_keyword is required", nil)
			return
		}
		if len(keyword) > maxKeywordLength {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "target_keyword is too long", nil)
			return
		}

		pageURL := strings.TrimSpace(req.URL)
		content := strings.TrimSpace(req.Content)
		switch {
		case pageURL == "" && content == "":
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Either 'url' or 'content' must be provided", nil)
			return
		case pageURL != "" && content != "":
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Provide either 'url' or 'content', not both", nil)
			return
		}
		if pageURL != "" && !validURL(pageURL) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"url must be a valid http(s) URL", nil)
			return
		}

		now := time.Now().UTC()
		rec := &models.AnalysisRecord{
			BaseRecord: models.BaseRecord{
				ID:            uuid.New(),
				Status:        models.StatusPending,
				TargetKeyword: keyword,
				InputContent:  content,
				CreatedAt:     now,
				UpdatedAt:     now,
			},
		}
		if pageURL != "" {
			rec.InputURL = &pageURL
		}

		if err := st.CreateAnalysisRecord(r.Context(), rec); err != nil {
			slog.Error("creating analysis record", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		_ = ca.SetRecordStatus(r.Context(), rec.ID, models.StatusPending, 30*time.Minute)

		task := worker.Task{Kind: worker.TaskAnalyze, RecordID: rec.ID, Attempt: 1}
		if err := queue.Enqueue(r.Context(), task, 0); err != nil {
			slog.Error("enqueueing analysis task", "record_id", rec.ID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Created(w, createdResponse{ID: rec.ID, Status: rec.Status, CreatedAt: rec.CreatedAt})
	}
}

// NewGetAnalysisHandler returns the handler for GET /api/v1/analyze/{recordID}.
func NewGetAnalysisHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "recordID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "recordID must be a valid UUID", nil)
			return
		}

		rec, err := st.GetAnalysisRecord(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Analysis record not found", nil)
				return
			}
			slog.Error("loading analysis record", "record_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, rec)
	}
}

// NewListAnalysisHandler returns the handler for GET /api/v1/analyze.
// Records are paginated newest first and optionally filtered by status.
func NewListAnalysisHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, ok := parseFilter(w, r)
		if !ok {
			return
		}

		recs, total, err := st.ListAnalysisRecords(r.Context(), filter)
		if err != nil {
			slog.Error("listing analysis records", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Collection(w, recs, paginationMeta(filter, total))
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
