package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/internal/registry"
	"github.com/kiranshivaraju/clipper/internal/workspace"
	"github.com/kiranshivaraju/clipper/pkg/models"
	"github.com/stretchr/testify/require"
)

// withParams attaches chi URL parameters to r, as the router would.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data
}

func decodeErrCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

// seedJob registers a job with n clips on disk and leaves it in status.
func seedJob(t *testing.T, reg *registry.Registry, layout workspace.Layout, title string, n int, status models.JobStatus) models.Job {
	t.Helper()
	job := reg.Create("https://example.com/watch?v=abc", 30)

	_, err := layout.Prepare(job.ID)
	require.NoError(t, err)

	job, err = reg.Update(job.ID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.VideoTitle = title
		j.TotalClips = n + 1
	})
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		name := workspace.ClipName(i)
		require.NoError(t, os.WriteFile(layout.ClipPath(job.ID, name), []byte("mp4-"+name), 0o644))
		job, err = reg.Update(job.ID, func(j *models.Job) {
			j.Clips = append(j.Clips, models.Clip{Index: i, Start: float64(i * 30), Duration: 30, Filename: name})
			j.CompletedClips++
		})
		require.NoError(t, err)
	}

	if status != models.JobStatusProcessing {
		job, err = reg.Update(job.ID, func(j *models.Job) {
			j.Status = status
			if status == models.JobStatusDone {
				j.TotalClips = n
			}
		})
		require.NoError(t, err)
	}
	return job
}

func randomID() string {
	return uuid.NewString()
}
