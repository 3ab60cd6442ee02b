package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/clipper/internal/api/response"
	"github.com/kiranshivaraju/clipper/internal/bundle"
	"github.com/kiranshivaraju/clipper/internal/registry"
	"github.com/kiranshivaraju/clipper/internal/textutil"
	"github.com/kiranshivaraju/clipper/internal/workspace"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

// NewClipHandler returns an http.HandlerFunc for GET /clips/{jobID}/{index}.
// Clips of failed jobs stay downloadable.
func NewClipHandler(jobs JobReader, layout workspace.Layout) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_CLIP_INDEX", "Clip index must be an integer", nil)
			return
		}

		job, err := jobs.Get(id)
		if errors.Is(err, registry.ErrNotFound) {
			jobNotFound(w)
			return
		}
		if err != nil {
			slog.Error("reading job", "job_id", id, "error", err)
			response.InternalError(w)
			return
		}

		clip, ok := job.ClipAt(index)
		if !ok {
			clipNotFound(w)
			return
		}

		f, err := os.Open(layout.ClipPath(id, clip.Filename))
		if errors.Is(err, os.ErrNotExist) {
			clipNotFound(w)
			return
		}
		if err != nil {
			slog.Error("opening clip", "job_id", id, "index", index, "error", err)
			response.InternalError(w)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			slog.Error("stat clip", "job_id", id, "index", index, "error", err)
			response.InternalError(w)
			return
		}

		name := textutil.ClipFileName(job.VideoTitle, index+1)
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Disposition", attachment(name))
		http.ServeContent(w, r, name, info.ModTime(), f)
	}
}

// NewBundleHandler returns an http.HandlerFunc for GET /clips/{jobID}/download-all.
func NewBundleHandler(jobs JobReader, layout workspace.Layout) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}

		job, err := jobs.Get(id)
		if errors.Is(err, registry.ErrNotFound) {
			jobNotFound(w)
			return
		}
		if err != nil {
			slog.Error("reading job", "job_id", id, "error", err)
			response.InternalError(w)
			return
		}
		if job.Status != models.JobStatusDone {
			response.Error(w, http.StatusConflict, "JOB_NOT_FINISHED",
				fmt.Sprintf("Job is %s; clips can be bundled once it is done", job.Status), nil)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", attachment(textutil.BundleFileName(job.VideoTitle)))
		w.WriteHeader(http.StatusOK)

		// Headers are already sent, so a failure here can only be logged.
		n, err := bundle.Write(w, job, layout)
		if err != nil {
			slog.Error("streaming bundle", "job_id", id, "entries", n, "error", err)
		}
	}
}

func clipNotFound(w http.ResponseWriter) {
	response.Error(w, http.StatusNotFound, "CLIP_NOT_FOUND", "Clip not found", nil)
}

// attachment builds a Content-Disposition value. Names come from
// textutil and contain only [A-Za-z0-9_-.].
func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
