package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/internal/registry"
	"github.com/kiranshivaraju/clipper/internal/workspace"
	"github.com/kiranshivaraju/clipper/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSnapshots struct {
	jobs map[uuid.UUID]models.Job
	err  error
}

func (s *stubSnapshots) GetJobSnapshot(_ context.Context, id uuid.UUID) (models.Job, bool, error) {
	if s.err != nil {
		return models.Job{}, false, s.err
	}
	job, ok := s.jobs[id]
	return job, ok, nil
}

func getJob(h http.Handler, id string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := withParams(httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil), "jobID", id)
	h.ServeHTTP(rec, req)
	return rec
}

func TestJobHandler_Snapshot(t *testing.T) {
	reg := registry.New()
	layout := workspace.New(t.TempDir())
	job := seedJob(t, reg, layout, "My Video", 2, models.JobStatusProcessing)

	rec := getJob(NewJobHandler(reg, nil), job.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, job.ID.String(), data["job_id"])
	assert.Equal(t, "processing", data["status"])
	assert.Equal(t, float64(3), data["total_clips"])
	assert.Equal(t, float64(2), data["completed_clips"])
	assert.Equal(t, "My Video", data["video_title"])
	assert.Nil(t, data["error"])

	clips := data["clips"].([]any)
	require.Len(t, clips, 2)
	second := clips[1].(map[string]any)
	assert.Equal(t, float64(1), second["index"])
	assert.Equal(t, float64(30), second["start"])
	assert.Equal(t, float64(30), second["duration"])
	assert.Equal(t, "clip_1.mp4", second["filename"])
}

func TestJobHandler_RepeatedReadsAreIdentical(t *testing.T) {
	reg := registry.New()
	job := seedJob(t, reg, workspace.New(t.TempDir()), "x", 1, models.JobStatusProcessing)
	h := NewJobHandler(reg, nil)

	first := getJob(h, job.ID.String())
	second := getJob(h, job.ID.String())
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestJobHandler_InvalidID(t *testing.T) {
	rec := getJob(NewJobHandler(registry.New(), nil), "not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JOB_ID", decodeErrCode(t, rec))
}

func TestJobHandler_NotFound(t *testing.T) {
	rec := getJob(NewJobHandler(registry.New(), nil), randomID())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "JOB_NOT_FOUND", decodeErrCode(t, rec))
}

func TestJobHandler_FallsBackToTerminalSnapshot(t *testing.T) {
	msg := "clip 2 of 4: ffmpeg failed"
	done := models.Job{ID: uuid.New(), Status: models.JobStatusError, Error: &msg, TotalClips: 4, CompletedClips: 1}
	running := models.Job{ID: uuid.New(), Status: models.JobStatusProcessing}
	snaps := &stubSnapshots{jobs: map[uuid.UUID]models.Job{done.ID: done, running.ID: running}}
	h := NewJobHandler(registry.New(), snaps)

	rec := getJob(h, done.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "error", data["status"])
	assert.Equal(t, msg, data["error"])

	// a non-terminal snapshot belongs to a worker that no longer exists
	rec = getJob(h, running.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobHandler_SnapshotErrorIsNotFound(t *testing.T) {
	h := NewJobHandler(registry.New(), &stubSnapshots{err: errors.New("redis down")})

	rec := getJob(h, randomID())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
