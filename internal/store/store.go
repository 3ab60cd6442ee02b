package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store archives terminal jobs. The live registry never reads from it.
type Store interface {
	Ping(ctx context.Context) error
	RecordJob(ctx context.Context, rec models.JobRecord) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.JobRecord, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.JobRecord, error)
}

// JobFilter narrows ListJobs. Zero values mean "any".
type JobFilter struct {
	Status models.JobStatus
	Limit  int
}

// NopStore is used when DATABASE_URL is unset. Writes are dropped and every
// lookup misses.
type NopStore struct{}

func (NopStore) Ping(context.Context) error                        { return nil }
func (NopStore) RecordJob(context.Context, models.JobRecord) error { return nil }
func (NopStore) GetJob(context.Context, uuid.UUID) (*models.JobRecord, error) {
	return nil, ErrNotFound
}
func (NopStore) ListJobs(context.Context, JobFilter) ([]*models.JobRecord, error) {
	return nil, nil
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = NopStore{}
)
