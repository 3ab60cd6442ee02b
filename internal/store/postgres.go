package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/clipper/pkg/models"
)

const recordColumns = `id, status, source_url, clip_duration, video_title, total_clips, completed_clips, error_message, created_at, finished_at`

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RecordJob inserts or replaces the archived record for rec.ID.
func (s *PostgresStore) RecordJob(ctx context.Context, rec models.JobRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_archive (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   video_title = EXCLUDED.video_title,
		   total_clips = EXCLUDED.total_clips,
		   completed_clips = EXCLUDED.completed_clips,
		   error_message = EXCLUDED.error_message,
		   finished_at = EXCLUDED.finished_at`,
		rec.ID, string(rec.Status), rec.SourceURL, rec.ClipDuration, rec.VideoTitle,
		rec.TotalClips, rec.CompletedClips, rec.ErrorMessage, rec.CreatedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.JobRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM job_archive WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.JobRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `SELECT ` + recordColumns + ` FROM job_archive`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var recs []*models.JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanRecord(row pgx.Row) (*models.JobRecord, error) {
	var rec models.JobRecord
	var status string
	if err := row.Scan(&rec.ID, &status, &rec.SourceURL, &rec.ClipDuration, &rec.VideoTitle,
		&rec.TotalClips, &rec.CompletedClips, &rec.ErrorMessage, &rec.CreatedAt, &rec.FinishedAt); err != nil {
		return nil, err
	}
	rec.Status = models.JobStatus(status)
	return &rec, nil
}
