package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/internal/api/response"
	"github.com/kiranshivaraju/clipper/internal/store"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Archive reads archived terminal jobs.
type Archive interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.JobRecord, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]*models.JobRecord, error)
}

// NewHistoryHandler returns an http.HandlerFunc for GET /history/{jobID}.
func NewHistoryHandler(archive Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}

		rec, err := archive.GetJob(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			jobNotFound(w)
			return
		}
		if err != nil {
			slog.Error("reading job archive", "job_id", id, "error", err)
			response.InternalError(w)
			return
		}
		response.JSON(w, rec)
	}
}

// NewListHistoryHandler returns an http.HandlerFunc for GET /history.
// Supports ?status=done|error and ?limit=1..100.
func NewListHistoryHandler(archive Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := store.JobFilter{Limit: defaultHistoryLimit}
		if s := q.Get("status"); s != "" {
			status := models.JobStatus(s)
			if status != models.JobStatusDone && status != models.JobStatusError {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "status must be done or error",
					map[string][]string{"status": {"must be done or error"}})
				return
			}
			filter.Status = status
		}
		if l := q.Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 1 || n > maxHistoryLimit {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 100",
					map[string][]string{"limit": {"must be between 1 and 100"}})
				return
			}
			filter.Limit = n
		}

		records, err := archive.ListJobs(r.Context(), filter)
		if err != nil {
			slog.Error("listing job archive", "error", err)
			response.InternalError(w)
			return
		}
		if records == nil {
			records = []*models.JobRecord{}
		}

		response.Collection(w, records, response.PaginationMeta{
			Page:  1,
			Limit: filter.Limit,
			Total: len(records),
		})
	}
}
