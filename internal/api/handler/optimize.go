package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
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

const (
	minTargetLength = 50
	maxTargetLength = 5000
	minContentChars = 10
	minContentWords = 5
)

// acceptedTones is the whitelist of tones the optimizer prompt supports.
var acceptedTones = map[string]bool{
	"professional":   true,
	"casual":         true,
	"persuasive":     true,
	"informative":    true,
	"authoritative":  true,
	"friendly":       true,
	"formal":         true,
	"conversational": true,
}

// NewCreateOptimizationHandler returns the handler for POST /api/v1/optimize.
func NewCreateOptimizationHandler(st store.Store, ca cache.Cache, queue worker.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Content       string `json:"content"`
			TargetKeyword string `json:"target_keyword"`
			TargetLength  int    `json:"target_length"`
			Tone          string `json:"tone"`
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

		content := strings.TrimSpace(req.Content)
		if len(content) < minContentChars {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("content must be at least %d characters long", minContentChars), nil)
			return
		}
		if len(strings.Fields(content)) < minContentWords {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("content must contain at least %d words", minContentWords), nil)
			return
		}

		if req.TargetLength < minTargetLength || req.TargetLength > maxTargetLength {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("target_length must be between %d and %d words", minTargetLength, maxTargetLength), nil)
			return
		}

		tone := strings.ToLower(strings.TrimSpace(req.Tone))
		if !acceptedTones[tone] {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"tone must be one of: "+tonesList(), nil)
			return
		}

		now := time.Now().UTC()
		rec := &models.OptimizationRecord{
			BaseRecord: models.BaseRecord{
				ID:            uuid.New(),
				Status:        models.StatusPending,
				TargetKeyword: keyword,
				InputContent:  content,
				CreatedAt:     now,
				UpdatedAt:     now,
			},
			TargetLength: req.TargetLength,
			Tone:         tone,
		}

		if err := st.CreateOptimizationRecord(r.Context(), rec); err != nil {
			slog.Error("creating optimization record", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		_ = ca.SetRecordStatus(r.Context(), rec.ID, models.StatusPending, 30*time.Minute)

		task := worker.Task{Kind: worker.TaskOptimizeDirect, RecordID: rec.ID, Attempt: 1}
		if err := queue.Enqueue(r.Context(), task, 0); err != nil {
			slog.Error("enqueueing optimization task", "record_id", rec.ID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Created(w, createdResponse{ID: rec.ID, Status: rec.Status, CreatedAt: rec.CreatedAt})
	}
}

// NewGetOptimizationHandler returns the handler for GET /api/v1/optimize/{recordID}.
func NewGetOptimizationHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "recordID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "recordID must be a valid UUID", nil)
			return
		}

		rec, err := st.GetOptimizationRecord(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Optimization record not found", nil)
				return
			}
			slog.Error("loading optimization record", "record_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, rec)
	}
}

// NewListOptimizationHandler returns the handler for GET /api/v1/optimize.
func NewListOptimizationHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, ok := parseFilter(w, r)
		if !ok {
			return
		}

		recs, total, err := st.ListOptimizationRecords(r.Context(), filter)
		if err != nil {
			slog.Error("listing optimization records", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Collection(w, recs, paginationMeta(filter, total))
	}
}

func tonesList() string {
	tones := make([]string, 0, len(acceptedTones))
	for tone := range acceptedTones {
		tones = append(tones, tone)
	}
	sort.Strings(tones)
	return strings.Join(tones, ", ")
}
