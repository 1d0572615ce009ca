package handler

import (
	"net/http"
	"strconv"

	"github.com/seoscout/seoscout/internal/api/response"
	"github.com/seoscout/seoscout/internal/store"
	"github.com/seoscout/seoscout/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parseFilter reads the shared list query parameters. On a validation error it
// writes the 400 response itself and returns ok=false.
func parseFilter(w http.ResponseWriter, r *http.Request) (store.RecordFilter, bool) {
	filter := store.RecordFilter{Page: 1, Limit: defaultPageLimit}
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status := models.RecordStatus(s)
		switch status {
		case models.StatusPending, models.StatusProcessing, models.StatusCompleted, models.StatusFailed:
			filter.Status = status
		default:
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of: pending, processing, completed, failed", nil)
			return filter, false
		}
	}

	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
			return filter, false
		}
		filter.Page = n
	}

	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
			return filter, false
		}
		if n > maxPageLimit {
			n = maxPageLimit
		}
		filter.Limit = n
	}

	return filter, true
}

func paginationMeta(filter store.RecordFilter, total int) response.PaginationMeta {
	return response.PaginationMeta{
		Page:    filter.Page,
		Limit:   filter.Limit,
		Total:   total,
		HasNext: filter.Page*filter.Limit < total,
	}
}
