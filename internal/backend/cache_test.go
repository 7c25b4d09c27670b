package backend

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fentz26/roster/internal/models"
)

// countingRepo counts reads that reach the database.
type countingRepo struct {
	*Store
	taskReads int
	hkReads   int
}

func (r *countingRepo) ListTasks(ctx context.Context) ([]models.Task, error) {
	r.taskReads++
	return r.Store.ListTasks(ctx)
}

func (r *countingRepo) ListHousekeepers(ctx context.Context) ([]models.Housekeeper, error) {
	r.hkReads++
	return r.Store.ListHousekeepers(ctx)
}

// stallingRepo holds its first task read open, after the database has
// answered, until release is closed.
type stallingRepo struct {
	*Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *stallingRepo) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := r.Store.ListTasks(ctx)
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return tasks, err
}

func newTestCache(t *testing.T) (*Cache, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rc.Close() })

	repo := &countingRepo{Store: newSeededStore(t)}
	return NewCache(repo, rc, time.Minute), repo, m
}

func TestCacheReadThrough(t *testing.T) {
	c, repo, m := newTestCache(t)
	ctx := context.Background()

	first, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	second, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if repo.taskReads != 1 {
		t.Errorf("Expected 1 database read, got %d", repo.taskReads)
	}
	if len(first) != len(second) || first[0].ID != second[0].ID {
		t.Error("Cached tasks differ from stored tasks")
	}
	if !m.Exists(tasksCacheKey) {
		t.Error("Expected tasks key in redis")
	}
	if ttl := m.TTL(tasksCacheKey); ttl != time.Minute {
		t.Errorf("Expected 1m ttl, got %v", ttl)
	}

	if _, err := c.ListHousekeepers(ctx); err != nil {
		t.Fatalf("ListHousekeepers failed: %v", err)
	}
	if _, err := c.ListHousekeepers(ctx); err != nil {
		t.Fatalf("ListHousekeepers failed: %v", err)
	}
	if repo.hkReads != 1 {
		t.Errorf("Expected 1 roster read, got %d", repo.hkReads)
	}
}

func TestCacheKeepsAssignment(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	c.ListTasks(ctx)
	cached, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if !cached[0].IsAssigned() || *cached[0].AssignedTo != 1 {
		t.Errorf("Expected assignee to survive the cache, got %+v", cached[0])
	}
	if cached[1].IsAssigned() {
		t.Errorf("Expected unassigned task to stay unassigned, got %+v", cached[1])
	}
}

func TestCacheEvictsOnReplace(t *testing.T) {
	c, repo, m := newTestCache(t)
	ctx := context.Background()

	tasks, _ := c.ListTasks(ctx)
	if err := c.ReplaceTasks(ctx, tasks[:2]); err != nil {
		t.Fatalf("ReplaceTasks failed: %v", err)
	}
	if m.Exists(tasksCacheKey) {
		t.Error("Expected tasks key evicted after replace")
	}

	got, _ := c.ListTasks(ctx)
	if len(got) != 2 {
		t.Errorf("Expected 2 tasks after replace, got %d", len(got))
	}
	if repo.taskReads != 2 {
		t.Errorf("Expected a fresh database read after eviction, got %d reads", repo.taskReads)
	}
}

func TestCacheCorruptEntryFallsBack(t *testing.T) {
	c, repo, m := newTestCache(t)
	ctx := context.Background()

	m.Set(tasksCacheKey, "not json")
	tasks, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) == 0 || repo.taskReads != 1 {
		t.Errorf("Expected fallback to the database, got %d tasks and %d reads", len(tasks), repo.taskReads)
	}
}

func TestCacheDisabled(t *testing.T) {
	repo := &countingRepo{Store: newSeededStore(t)}
	c := NewCache(repo, nil, time.Minute)
	ctx := context.Background()

	c.ListTasks(ctx)
	c.ListTasks(ctx)
	if repo.taskReads != 2 {
		t.Errorf("Expected every read to hit the database, got %d", repo.taskReads)
	}
	if err := c.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestCachePingRedisDown(t *testing.T) {
	c, _, m := newTestCache(t)
	m.Close()

	if err := c.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail with redis down")
	}
}

func TestCacheSlowReadDoesNotRestoreEvictedList(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rc.Close() })

	repo := &stallingRepo{
		Store:   newSeededStore(t),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewCache(repo, rc, time.Minute)
	ctx := context.Background()

	stale := make(chan []models.Task, 1)
	go func() {
		tasks, _ := c.ListTasks(ctx)
		stale <- tasks
	}()
	<-repo.entered

	current, err := repo.Store.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	slices.Reverse(current)
	if err := c.ReplaceTasks(ctx, current); err != nil {
		t.Fatalf("ReplaceTasks failed: %v", err)
	}
	close(repo.release)

	if old := <-stale; old[0].ID == current[0].ID {
		t.Fatal("Expected the slow read to return the pre-replace order")
	}
	if m.Exists(tasksCacheKey) {
		t.Error("Expected the stale list to stay out of redis")
	}

	got, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if got[0].ID != current[0].ID {
		t.Errorf("Expected replaced order first %s, got %s", current[0].ID, got[0].ID)
	}
	if !m.Exists(tasksCacheKey) {
		t.Error("Expected a fresh read to fill the cache")
	}
}
