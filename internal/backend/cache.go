package backend

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fentz26/roster/internal/models"
)

const (
	tasksCacheKey        = "roster:tasks"
	housekeepersCacheKey = "roster:housekeepers"
)

// Repository is the storage surface the HTTP server needs.
type Repository interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListHousekeepers(ctx context.Context) ([]models.Housekeeper, error)
	ReplaceTasks(ctx context.Context, tasks []models.Task) error
	RecordSubmission(ctx context.Context, inputsHash string, taskCount int) (*models.Submission, error)
	ListSubmissions(ctx context.Context, limit int) ([]models.Submission, error)
	Ping(ctx context.Context) error
}

// Cache wraps a Repository with Redis-backed caching for list reads.
// A nil client disables caching.
//
// Writes through the Cache bump a generation counter. A read-through only
// fills the cache if no write happened since its database read began, so a
// slow read cannot repopulate a key a concurrent write just evicted. Writers
// in other processes are not covered and rely on the ttl.
type Cache struct {
	Repository
	redis *redis.Client
	ttl   time.Duration

	mu  sync.Mutex
	gen uint64
}

// NewCache creates a caching wrapper around base.
func NewCache(base Repository, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("backend.NewCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{Repository: base, redis: client, ttl: ttl}
}

// ListTasks returns the cached task list, reading through to the
// repository on a miss.
func (c *Cache) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if c.load(ctx, tasksCacheKey, &tasks) {
		return tasks, nil
	}

	gen := c.generation()
	tasks, err := c.Repository.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, tasksCacheKey, tasks, gen)
	return tasks, nil
}

// ListHousekeepers returns the cached roster, reading through to the
// repository on a miss.
func (c *Cache) ListHousekeepers(ctx context.Context) ([]models.Housekeeper, error) {
	var hks []models.Housekeeper
	if c.load(ctx, housekeepersCacheKey, &hks) {
		return hks, nil
	}

	gen := c.generation()
	hks, err := c.Repository.ListHousekeepers(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, housekeepersCacheKey, hks, gen)
	return hks, nil
}

// ReplaceTasks writes through to the repository and evicts the cached task
// list.
func (c *Cache) ReplaceTasks(ctx context.Context, tasks []models.Task) error {
	if err := c.Repository.ReplaceTasks(ctx, tasks); err != nil {
		return err
	}

	c.mu.Lock()
	c.gen++
	c.evict(ctx, tasksCacheKey)
	c.mu.Unlock()
	return nil
}

func (c *Cache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Ping checks the backing store and, when configured, Redis.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.Repository.Ping(ctx); err != nil {
		return err
	}
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

func (c *Cache) load(ctx context.Context, key string, v any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the database without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

// store caches v under key unless a write has happened since gen.
func (c *Cache) store(ctx context.Context, key string, v any, gen uint64) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}
