package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"catapult/internal/course/models"
	"catapult/internal/platform/metrics"
)

const (
	courseKeyPrefix = "catapult:course:"
	defaultCacheTTL = 5 * time.Minute
)

// Backend is the authoritative course store behind the cache.
type Backend interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, tenantID, id int64) (*models.Course, error)
	DeleteConfirmed(ctx context.Context, tenantID, id int64, confirm Confirm) error
}

// cachedCourse keeps RemoteID, which the API document omits.
type cachedCourse struct {
	ID        int64            `json:"id"`
	TenantID  int64            `json:"tenantId"`
	RemoteID  string           `json:"remoteId"`
	Structure models.Structure `json:"structure"`
}

// RedisCache is a read-through cache in front of a Backend. Concurrent misses
// for the same course share one backend read. Redis errors degrade to the
// backend; they are logged, never returned.
type RedisCache struct {
	backend Backend
	client  *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type CacheOption func(*RedisCache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *RedisCache) {
		c.metrics = m
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func NewRedisCache(backend Backend, client *redis.Client, opts ...CacheOption) *RedisCache {
	c := &RedisCache{
		backend: backend,
		client:  client,
		ttl:     defaultCacheTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *RedisCache) Create(ctx context.Context, course *models.Course) error {
	return c.backend.Create(ctx, course)
}

func (c *RedisCache) FindByID(ctx context.Context, tenantID, id int64) (*models.Course, error) {
	key := courseKey(tenantID, id)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedCourse
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.metrics.IncCourseCache("hit")
			return cached.toModel(), nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cached course", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "course cache read failed", "key", key, "error", err)
	}
	c.metrics.IncCourseCache("miss")

	v, err, _ := c.group.Do(key, func() (any, error) {
		course, err := c.backend.FindByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, course)
		return course, nil
	})
	if err != nil {
		return nil, err
	}
	course := *v.(*models.Course)
	return &course, nil
}

// DeleteConfirmed removes the course from the backend first, then evicts it.
func (c *RedisCache) DeleteConfirmed(ctx context.Context, tenantID, id int64, confirm Confirm) error {
	if err := c.backend.DeleteConfirmed(ctx, tenantID, id, confirm); err != nil {
		return err
	}
	if err := c.client.Del(ctx, courseKey(tenantID, id)).Err(); err != nil {
		c.logger.WarnContext(ctx, "course cache eviction failed", "course_id", id, "error", err)
	}
	return nil
}

func (c *RedisCache) store(ctx context.Context, key string, course *models.Course) {
	raw, err := json.Marshal(cachedCourse{
		ID:        course.ID,
		TenantID:  course.TenantID,
		RemoteID:  course.RemoteID,
		Structure: course.Structure,
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "course cache write failed", "key", key, "error", err)
	}
}

func (cc cachedCourse) toModel() *models.Course {
	return &models.Course{ID: cc.ID, TenantID: cc.TenantID, RemoteID: cc.RemoteID, Structure: cc.Structure}
}

func courseKey(tenantID, id int64) string {
	return fmt.Sprintf("%s%s:%s", courseKeyPrefix, strconv.FormatInt(tenantID, 10), strconv.FormatInt(id, 10))
}
