package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/internal/api/response"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

// JobReader returns a snapshot of a live job.
type JobReader interface {
	Get(id uuid.UUID) (models.Job, error)
}

// SnapshotReader returns a job snapshot mirrored by any process sharing the cache.
type SnapshotReader interface {
	GetJobSnapshot(ctx context.Context, id uuid.UUID) (models.Job, bool, error)
}

// jobIDParam parses the {jobID} URL parameter and writes a 400 when it is not a UUID.
func jobIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_JOB_ID", "Invalid job_id format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func jobNotFound(w http.ResponseWriter) {
	response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
}
