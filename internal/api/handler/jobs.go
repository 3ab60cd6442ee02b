package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/clipper/internal/api/response"
	"github.com/kiranshivaraju/clipper/internal/registry"
)

// NewJobHandler returns an http.HandlerFunc for GET /jobs/{jobID}.
//
// Jobs missing from the registry fall back to the snapshot cache, which only
// answers for terminal jobs. snapshots may be nil.
func NewJobHandler(jobs JobReader, snapshots SnapshotReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}

		job, err := jobs.Get(id)
		if err == nil {
			response.JSON(w, job)
			return
		}
		if !errors.Is(err, registry.ErrNotFound) {
			slog.Error("reading job", "job_id", id, "error", err)
			response.InternalError(w)
			return
		}

		if snapshots != nil {
			snap, found, err := snapshots.GetJobSnapshot(r.Context(), id)
			if err != nil {
				slog.Warn("reading job snapshot", "job_id", id, "error", err)
			}
			if found && snap.IsTerminal() {
				response.JSON(w, snap)
				return
			}
		}
		jobNotFound(w)
	}
}
