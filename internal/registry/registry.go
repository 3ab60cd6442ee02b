// Package registry holds live job records in memory for the lifetime of the process.
package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

var (
	ErrNotFound    = errors.New("job not found")
	ErrTerminal    = errors.New("job is terminal and can no longer change")
	ErrNotTerminal = errors.New("job is still active")
	ErrRegression  = errors.New("job progress may not move backwards")
)

// Registry is a concurrency-safe store of job records keyed by job id.
// Every read returns a deep copy; records are only changed through Update.
type Registry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*models.Job
	now  func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		jobs: make(map[uuid.UUID]*models.Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create allocates a fresh queued job.
func (r *Registry) Create(sourceURL string, clipDuration int) models.Job {
	now := r.now()
	job := &models.Job{
		ID:           uuid.New(),
		Status:       models.JobStatusQueued,
		SourceURL:    sourceURL,
		ClipDuration: clipDuration,
		Clips:        []models.Clip{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for r.jobs[job.ID] != nil {
		job.ID = uuid.New()
	}
	r.jobs[job.ID] = job
	return job.Clone()
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id uuid.UUID) (models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return job.Clone(), nil
}

// List returns snapshots of all jobs, oldest first.
func (r *Registry) List() []models.Job {
	r.mu.RLock()
	jobs := make([]models.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
	})
	return jobs
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Update applies fn to a working copy of the job and commits it atomically.
// Only the job's own worker calls Update. The mutation is discarded when the
// stored record is terminal or when it would shrink the clip list, decrease
// completed_clips, or push completed_clips past total_clips.
func (r *Registry) Update(id uuid.UUID, fn func(*models.Job)) (models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	if current.IsTerminal() {
		return current.Clone(), ErrTerminal
	}

	next := current.Clone()
	fn(&next)
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt

	if len(next.Clips) < len(current.Clips) ||
		next.CompletedClips < current.CompletedClips ||
		next.CompletedClips > next.TotalClips {
		return current.Clone(), ErrRegression
	}

	next.UpdatedAt = r.now()
	r.jobs[id] = &next
	return next.Clone(), nil
}

// Delete removes a terminal job. Active jobs are never removed.
func (r *Registry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !job.IsTerminal() {
		return ErrNotTerminal
	}
	delete(r.jobs, id)
	return nil
}
