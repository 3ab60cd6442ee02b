// Package clipping runs segmentation jobs: one background worker per
// submission that fetches, probes, plans and transcodes, plus a sweeper that
// reclaims expired terminal jobs.
package clipping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/internal/cache"
	"github.com/kiranshivaraju/clipper/internal/registry"
	"github.com/kiranshivaraju/clipper/internal/segment"
	"github.com/kiranshivaraju/clipper/internal/store"
	"github.com/kiranshivaraju/clipper/internal/workspace"
	"github.com/kiranshivaraju/clipper/pkg/models"
	"golang.org/x/sync/semaphore"
)

var (
	ErrInvalidURL          = errors.New("url must be an absolute http or https URL")
	ErrInvalidClipDuration = errors.New("clip_duration must be one of 30, 60 or 90")
	ErrInvalidTransition   = errors.New("invalid job status transition")
)

const defaultSnapshotTTL = 2 * time.Hour

// SubmitRequest is a validated-on-submit request for a new job.
type SubmitRequest struct {
	URL          string
	ClipDuration int
}

// Deps wires a Service. Registry, Fetcher, Prober and Transcoder are required.
type Deps struct {
	Registry   *registry.Registry
	Layout     workspace.Layout
	Fetcher    models.SourceFetcher
	Prober     models.Prober
	Transcoder models.Transcoder

	// Optional collaborators.
	Cache   cache.Cache
	Store   store.Store
	Sweeper *Sweeper
	Logger  *slog.Logger

	SnapshotTTL time.Duration
	// MaxConcurrent bounds how many workers transcode at once. 0 means unbounded.
	MaxConcurrent int
}

// Service accepts submissions and owns their workers.
type Service struct {
	registry    *registry.Registry
	layout      workspace.Layout
	fetcher     models.SourceFetcher
	prober      models.Prober
	transcoder  models.Transcoder
	cache       cache.Cache
	store       store.Store
	sweeper     *Sweeper
	logger      *slog.Logger
	snapshotTTL time.Duration
	sem         *semaphore.Weighted

	wg sync.WaitGroup
}

// NewService creates a Service, filling optional dependencies with no-ops.
func NewService(d Deps) *Service {
	s := &Service{
		registry:    d.Registry,
		layout:      d.Layout,
		fetcher:     d.Fetcher,
		prober:      d.Prober,
		transcoder:  d.Transcoder,
		cache:       d.Cache,
		store:       d.Store,
		sweeper:     d.Sweeper,
		logger:      d.Logger,
		snapshotTTL: d.SnapshotTTL,
	}
	if s.cache == nil {
		s.cache = cache.NopCache{}
	}
	if s.store == nil {
		s.store = store.NopStore{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.snapshotTTL <= 0 {
		s.snapshotTTL = defaultSnapshotTTL
	}
	if d.MaxConcurrent > 0 {
		s.sem = semaphore.NewWeighted(int64(d.MaxConcurrent))
	}
	return s
}

// Validate checks a request without allocating anything.
func Validate(req SubmitRequest) error {
	raw := strings.TrimSpace(req.URL)
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	if !segment.ValidClipLength(req.ClipDuration) {
		return ErrInvalidClipDuration
	}
	return nil
}

// Submit validates req, creates a queued job and starts its worker. It
// returns as soon as the job is registered.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (models.Job, error) {
	if err := Validate(req); err != nil {
		return models.Job{}, err
	}

	if s.sweeper != nil {
		if n := s.sweeper.Sweep(ctx); n > 0 {
			s.logger.Info("swept expired jobs", "count", n)
		}
	}

	job := s.registry.Create(strings.TrimSpace(req.URL), req.ClipDuration)
	s.mirror(ctx, job)
	s.logger.Info("job accepted", "job_id", job.ID, "clip_duration", job.ClipDuration)

	s.wg.Add(1)
	go s.process(job.ID)

	return job, nil
}

// Wait blocks until every started worker has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Drain waits for running workers until ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// process drives one job to a terminal state. It recovers from panics and
// always removes the downloaded source before returning.
func (s *Service) process(id uuid.UUID) {
	defer s.wg.Done()
	ctx := context.Background()
	logger := s.logger.With("job_id", id)

	var sourcePath string
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in job worker", "error", r)
			s.fail(ctx, id, fmt.Sprintf("internal error: %v", r))
		}
		if err := s.layout.RemoveSource(sourcePath); err != nil {
			logger.Warn("source cleanup failed", "error", err)
		}
	}()

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			s.fail(ctx, id, fmt.Sprintf("waiting for a worker slot: %v", err))
			return
		}
		defer s.sem.Release(1)
	}

	job, err := s.transition(ctx, id, models.JobStatusDownloading, nil)
	if err != nil {
		logger.Error("starting job", "error", err)
		return
	}

	dir, err := s.layout.Prepare(id)
	if err != nil {
		s.fail(ctx, id, err.Error())
		return
	}

	fetched, err := s.fetcher.Fetch(ctx, job.SourceURL, dir)
	if err != nil {
		logger.Warn("fetch failed", "error", err)
		s.fail(ctx, id, err.Error())
		return
	}
	sourcePath = fetched.Path
	if fetched.Title != "" {
		if _, err := s.update(ctx, id, func(j *models.Job) { j.VideoTitle = fetched.Title }); err != nil {
			logger.Error("recording title", "error", err)
			return
		}
	}

	probed, err := s.prober.Probe(ctx, sourcePath)
	if err != nil {
		logger.Warn("probe failed", "error", err)
		s.fail(ctx, id, err.Error())
		return
	}
	geom := models.Geometry{Width: probed.Width, Height: probed.Height}
	if geom.Width <= 0 || geom.Height <= 0 {
		logger.Info("source dimensions unknown, assuming default", "width", models.DefaultGeometry.Width, "height", models.DefaultGeometry.Height)
		geom = models.DefaultGeometry
	}

	plan := segment.Plan(probed.DurationSeconds, job.ClipDuration)
	if len(plan) == 0 {
		s.fail(ctx, id, fmt.Sprintf("source video is too short to produce a clip (%.1fs, minimum %.0fs)", probed.DurationSeconds, segment.MinClipSeconds))
		return
	}

	if _, err := s.transition(ctx, id, models.JobStatusProcessing, func(j *models.Job) {
		j.TotalClips = len(plan)
	}); err != nil {
		logger.Error("entering processing", "error", err)
		return
	}
	logger.Info("processing job", "duration", probed.DurationSeconds, "clips", len(plan))

	for _, seg := range plan {
		if err := s.renderClip(ctx, id, sourcePath, geom, seg); err != nil {
			logger.Warn("transcode failed", "clip", seg.Index, "error", err)
			s.fail(ctx, id, fmt.Sprintf("clip %d of %d: %v", seg.Index+1, len(plan), err))
			return
		}
	}

	if err := s.layout.RemoveSource(sourcePath); err != nil {
		logger.Warn("source cleanup failed", "error", err)
	}
	sourcePath = ""

	if _, err := s.transition(ctx, id, models.JobStatusDone, nil); err != nil {
		logger.Error("finishing job", "error", err)
		return
	}
	logger.Info("job done", "clips", len(plan))
}

// renderClip transcodes one segment and appends its descriptor once the
// output is confirmed on disk. A failed render leaves no file behind.
func (s *Service) renderClip(ctx context.Context, id uuid.UUID, source string, geom models.Geometry, seg segment.Segment) error {
	name := workspace.ClipName(seg.Index)
	out := s.layout.ClipPath(id, name)

	if _, err := s.transcoder.Transcode(ctx, models.TranscodeRequest{
		InputPath:     source,
		StartSeconds:  seg.Start,
		LengthSeconds: seg.Length,
		Source:        geom,
		OutputPath:    out,
	}); err != nil {
		_ = os.Remove(out)
		return err
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(out)
		return fmt.Errorf("transcoder reported success but %s is missing or empty", name)
	}

	_, err = s.update(ctx, id, func(j *models.Job) {
		j.Clips = append(j.Clips, models.Clip{
			Index:    seg.Index,
			Start:    seg.Start,
			Duration: seg.Length,
			Filename: name,
		})
		j.CompletedClips++
	})
	return err
}

// transition moves a job to status `to`, applying mutate in the same commit.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to models.JobStatus, mutate func(*models.Job)) (models.Job, error) {
	current, err := s.registry.Get(id)
	if err != nil {
		return models.Job{}, err
	}
	if !models.CanTransition(current.Status, to) {
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}
	return s.update(ctx, id, func(j *models.Job) {
		j.Status = to
		if mutate != nil {
			mutate(j)
		}
	})
}

// update commits fn and mirrors the result.
func (s *Service) update(ctx context.Context, id uuid.UUID, fn func(*models.Job)) (models.Job, error) {
	job, err := s.registry.Update(id, fn)
	if err != nil {
		return job, err
	}
	s.mirror(ctx, job)
	return job, nil
}

func (s *Service) fail(ctx context.Context, id uuid.UUID, msg string) {
	if _, err := s.transition(ctx, id, models.JobStatusError, func(j *models.Job) {
		j.Error = &msg
	}); err != nil {
		s.logger.Error("marking job failed", "job_id", id, "error", err, "reason", msg)
		return
	}
	s.logger.Info("job failed", "job_id", id, "reason", msg)
}

// mirror copies a snapshot to the cache and archives terminal jobs. Both are
// best effort and never affect the job itself.
func (s *Service) mirror(ctx context.Context, job models.Job) {
	if err := s.cache.SetJobSnapshot(ctx, job, s.snapshotTTL); err != nil {
		s.logger.Warn("cache snapshot failed", "job_id", job.ID, "error", err)
	}
	if job.IsTerminal() {
		if err := s.store.RecordJob(ctx, models.NewJobRecord(job)); err != nil {
			s.logger.Warn("archiving job failed", "job_id", job.ID, "error", err)
		}
	}
}
