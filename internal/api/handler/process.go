package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/clipper/internal/api/response"
	"github.com/kiranshivaraju/clipper/internal/clipping"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

const maxProcessBody = 64 << 10

// Submitter accepts new clipping jobs.
type Submitter interface {
	Submit(ctx context.Context, req clipping.SubmitRequest) (models.Job, error)
}

type processRequest struct {
	URL          string `json:"url"`
	ClipDuration int    `json:"clip_duration"`
}

type processResponse struct {
	JobID string `json:"job_id"`
}

// NewProcessHandler returns an http.HandlerFunc for POST /process.
func NewProcessHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProcessBody))
		if err := dec.Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		job, err := svc.Submit(r.Context(), clipping.SubmitRequest{
			URL:          req.URL,
			ClipDuration: req.ClipDuration,
		})
		if err != nil {
			switch {
			case errors.Is(err, clipping.ErrInvalidURL):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(),
					map[string][]string{"url": {err.Error()}})
			case errors.Is(err, clipping.ErrInvalidClipDuration):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(),
					map[string][]string{"clip_duration": {err.Error()}})
			default:
				slog.Error("submitting job", "error", err)
				response.InternalError(w)
			}
			return
		}

		response.Accepted(w, processResponse{JobID: job.ID.String()})
	}
}
