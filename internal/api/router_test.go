package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/internal/api"
	"github.com/kiranshivaraju/clipper/internal/api/handler"
	mw "github.com/kiranshivaraju/clipper/internal/api/middleware"
	"github.com/kiranshivaraju/clipper/internal/registry"
	"github.com/kiranshivaraju/clipper/internal/workspace"
	"github.com/kiranshivaraju/clipper/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// marker answers with the handler name and the chi URL params it saw.
func marker(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"handler": name,
			"jobID":   chi.URLParam(r, "jobID"),
			"index":   chi.URLParam(r, "index"),
		})
	}
}

func newTestRouter() http.Handler {
	return api.NewRouter(api.Dependencies{
		HealthHandler:      marker("health"),
		ProcessHandler:     marker("process"),
		JobHandler:         marker("job"),
		ClipHandler:        marker("clip"),
		BundleHandler:      marker("bundle"),
		HistoryHandler:     marker("history"),
		ListHistoryHandler: marker("list-history"),
	})
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method  string
		path    string
		handler string
		jobID   string
		index   string
	}{
		{"GET", "/", "health", "", ""},
		{"GET", "/health", "health", "", ""},
		{"POST", "/process", "process", "", ""},
		{"GET", "/jobs/abc", "job", "abc", ""},
		{"GET", "/clips/abc/3", "clip", "abc", "3"},
		{"GET", "/clips/abc/download-all", "bundle", "abc", ""},
		{"GET", "/history", "list-history", "", ""},
		{"GET", "/history/abc", "history", "abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(router, tt.method, tt.path)
			require.Equal(t, http.StatusOK, w.Code)

			var got map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.handler, got["handler"])
			assert.Equal(t, tt.jobID, got["jobID"])
			assert.Equal(t, tt.index, got["index"])
		})
	}
}

func TestRouter_DownloadAllNeverReachesIndexRoute(t *testing.T) {
	reg := registry.New()
	layout := workspace.New(t.TempDir())

	job := reg.Create("https://example.com/v", 30)
	_, err := layout.Prepare(job.ID)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(layout.ClipPath(job.ID, workspace.ClipName(0)), []byte("clip"), 0o644))
	_, err = reg.Update(job.ID, func(j *models.Job) {
		j.Status = models.JobStatusDone
		j.TotalClips = 1
		j.CompletedClips = 1
		j.Clips = []models.Clip{{Index: 0, Duration: 30, Filename: workspace.ClipName(0)}}
	})
	require.NoError(t, err)

	router := api.NewRouter(api.Dependencies{
		ClipHandler:   handler.NewClipHandler(reg, layout),
		BundleHandler: handler.NewBundleHandler(reg, layout),
	})

	w := serve(router, "GET", "/clips/"+job.ID.String()+"/download-all")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))

	w = serve(router, "GET", "/clips/"+job.ID.String()+"/0")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
}

func TestRouter_MissingHandlerIsNotImplemented(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	w := serve(router, "GET", "/jobs/"+uuid.NewString())

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "NOT_IMPLEMENTED", errObj["code"])
}

func TestRouter_SetsRequestID(t *testing.T) {
	w := serve(newTestRouter(), "GET", "/health")

	_, err := uuid.Parse(w.Header().Get(mw.RequestIDHeader))
	assert.NoError(t, err)
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	router := api.NewRouter(api.Dependencies{
		JobHandler: func(http.ResponseWriter, *http.Request) { panic("boom") },
	})

	w := serve(router, "GET", "/jobs/x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/api/v1/nonexistent", "/clips/abc", "/clips/abc/1/extra"} {
		w := serve(router, "GET", path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	w := serve(newTestRouter(), "GET", "/process")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
