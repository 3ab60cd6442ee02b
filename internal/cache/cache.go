package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipper/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Cache mirrors job snapshots for external observers. The in-process
// registry stays authoritative; nothing reads job state back from here to
// drive processing. Implementations must be safe for concurrent use.
type Cache interface {
	Ping(ctx context.Context) error
	SetJobSnapshot(ctx context.Context, job models.Job, ttl time.Duration) error
	GetJobSnapshot(ctx context.Context, jobID uuid.UUID) (models.Job, bool, error)
	DeleteJob(ctx context.Context, jobID uuid.UUID) error
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) SetJobSnapshot(ctx context.Context, job models.Job, ttl time.Duration) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job snapshot: %w", err)
	}
	return c.client.Set(ctx, JobSnapshotKey(job.ID), raw, ttl).Err()
}

func (c *RedisCache) GetJobSnapshot(ctx context.Context, jobID uuid.UUID) (models.Job, bool, error) {
	raw, err := c.client.Get(ctx, JobSnapshotKey(jobID)).Bytes()
	if err == redis.Nil {
		return models.Job{}, false, nil
	}
	if err != nil {
		return models.Job{}, false, err
	}
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return models.Job{}, false, fmt.Errorf("decoding job snapshot: %w", err)
	}
	return job, true, nil
}

func (c *RedisCache) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	return c.client.Del(ctx, JobSnapshotKey(jobID)).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NopCache discards every write. It is used when REDIS_URL is unset.
type NopCache struct{}

func (NopCache) Ping(context.Context) error                                      { return nil }
func (NopCache) SetJobSnapshot(context.Context, models.Job, time.Duration) error { return nil }
func (NopCache) GetJobSnapshot(context.Context, uuid.UUID) (models.Job, bool, error) {
	return models.Job{}, false, nil
}
func (NopCache) DeleteJob(context.Context, uuid.UUID) error { return nil }

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = NopCache{}
)
