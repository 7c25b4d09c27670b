package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fentz26/roster/internal/models"
)

// ErrSimulatedFailure is returned by Mock calls that were forced to fail.
var ErrSimulatedFailure = errors.New("simulated gateway failure")

// Mock simulates the backend with fixed latency. Calls always succeed unless
// a failure switch is set. Safe for concurrent use.
type Mock struct {
	mu           sync.Mutex
	tasks        []models.Task
	housekeepers []models.Housekeeper

	fetchTasksDelay        time.Duration
	fetchHousekeepersDelay time.Duration
	submitDelay            time.Duration

	failFetchTasks        atomic.Bool
	failFetchHousekeepers atomic.Bool
	failSubmit            atomic.Bool

	submits atomic.Int64
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithDelays sets the simulated latency of each call.
func WithDelays(fetchTasks, fetchHousekeepers, submit time.Duration) MockOption {
	return func(m *Mock) {
		m.fetchTasksDelay = fetchTasks
		m.fetchHousekeepersDelay = fetchHousekeepers
		m.submitDelay = submit
	}
}

// WithFailures sets the initial failure switches.
func WithFailures(fetchTasks, fetchHousekeepers, submit bool) MockOption {
	return func(m *Mock) {
		m.failFetchTasks.Store(fetchTasks)
		m.failFetchHousekeepers.Store(fetchHousekeepers)
		m.failSubmit.Store(submit)
	}
}

// WithTasks replaces the seeded task set.
func WithTasks(tasks []models.Task) MockOption {
	return func(m *Mock) {
		m.tasks = models.CloneTasks(tasks)
	}
}

// WithHousekeepers replaces the seeded roster.
func WithHousekeepers(hks []models.Housekeeper) MockOption {
	return func(m *Mock) {
		m.housekeepers = models.CloneHousekeepers(hks)
	}
}

// NewMock creates a mock gateway seeded with fixture data.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		tasks:                  FixtureTasks(),
		housekeepers:           FixtureHousekeepers(),
		fetchTasksDelay:        500 * time.Millisecond,
		fetchHousekeepersDelay: 500 * time.Millisecond,
		submitDelay:            800 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetFailFetchTasks forces FetchTasks to fail while on.
func (m *Mock) SetFailFetchTasks(on bool) { m.failFetchTasks.Store(on) }

// SetFailFetchHousekeepers forces FetchHousekeepers to fail while on.
func (m *Mock) SetFailFetchHousekeepers(on bool) { m.failFetchHousekeepers.Store(on) }

// SetFailSubmit forces SubmitTasks to fail while on.
func (m *Mock) SetFailSubmit(on bool) { m.failSubmit.Store(on) }

// Submits returns how many submissions were accepted.
func (m *Mock) Submits() int64 { return m.submits.Load() }

// FetchTasks implements Gateway.
func (m *Mock) FetchTasks(ctx context.Context) ([]models.Task, error) {
	if err := sleep(ctx, m.fetchTasksDelay); err != nil {
		return nil, err
	}
	if m.failFetchTasks.Load() {
		return nil, fmt.Errorf("fetch tasks: %w", ErrSimulatedFailure)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneTasks(m.tasks), nil
}

// FetchHousekeepers implements Gateway.
func (m *Mock) FetchHousekeepers(ctx context.Context) ([]models.Housekeeper, error) {
	if err := sleep(ctx, m.fetchHousekeepersDelay); err != nil {
		return nil, err
	}
	if m.failFetchHousekeepers.Load() {
		return nil, fmt.Errorf("fetch housekeepers: %w", ErrSimulatedFailure)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneHousekeepers(m.housekeepers), nil
}

// SubmitTasks implements Gateway. The submitted set is echoed back and
// becomes what later fetches return.
func (m *Mock) SubmitTasks(ctx context.Context, tasks []models.Task) ([]models.Task, error) {
	payload := models.CloneTasks(tasks)
	if err := sleep(ctx, m.submitDelay); err != nil {
		return nil, err
	}
	if m.failSubmit.Load() {
		return nil, fmt.Errorf("submit tasks: %w", ErrSimulatedFailure)
	}

	m.mu.Lock()
	m.tasks = models.CloneTasks(payload)
	m.mu.Unlock()
	m.submits.Add(1)
	return payload, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
