// Package tasks holds the task-assignment state machine: the working set,
// the pristine snapshot it can be rolled back to, and the dirty flag.
//
// Every mutation runs on the store's dispatch loop. Gateway calls happen off
// the loop and their outcome is applied back on it, so observers only ever
// see settled state.
package tasks

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/fentz26/roster/internal/dispatch"
	"github.com/fentz26/roster/internal/models"
)

// Sentinel errors surfaced by the store's futures.
var (
	ErrFetchTasks = errors.New("fetch tasks failed")
	ErrSubmit     = errors.New("submit tasks failed")
)

// Gateway is the subset of the synchronization gateway the store owns.
type Gateway interface {
	FetchTasks(ctx context.Context) ([]models.Task, error)
	SubmitTasks(ctx context.Context, tasks []models.Task) ([]models.Task, error)
}

// Store is the task-assignment state machine.
type Store struct {
	gw   Gateway
	loop *dispatch.Loop
	log  *log.Entry

	// Owned by loop.
	tasks        []models.Task
	original     []models.Task
	modified     bool
	loaded       bool
	loading      bool
	loadErr      string
	hasLoadErr   bool
	submitting   bool
	submitErr    string
	hasSubmitErr bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for phase transitions.
func WithLogger(l *log.Entry) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates an empty store backed by gw.
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:       gw,
		loop:     dispatch.NewLoop(),
		log:      log.WithField("store", "tasks"),
		tasks:    []models.Task{},
		original: []models.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops the store. Later operations are no-ops and pending futures
// resolve with dispatch.ErrClosed.
func (s *Store) Close() {
	s.loop.Stop()
}

// FetchAll loads the task set from the gateway. On success the working set
// and the pristine snapshot both become the fetched sequence and the store
// is clean. On failure the error flag is set and existing state is kept.
func (s *Store) FetchAll() *dispatch.Future[[]models.Task] {
	if !s.loop.Do(func() {
		s.loading = true
		s.log.Debug("fetching tasks")
	}) {
		return dispatch.Resolved[[]models.Task](nil, dispatch.ErrClosed)
	}

	return dispatch.Go(s.loop,
		func() ([]models.Task, error) {
			return s.gw.FetchTasks(context.Background())
		},
		func(fetched []models.Task, err error) ([]models.Task, error) {
			s.loading = false
			if err != nil {
				s.hasLoadErr = true
				s.loadErr = err.Error()
				s.log.WithError(err).Warn("fetch tasks failed")
				return nil, fmt.Errorf("%w: %w", ErrFetchTasks, err)
			}
			s.tasks = models.CloneTasks(fetched)
			s.original = models.CloneTasks(fetched)
			s.modified = false
			s.loaded = true
			s.hasLoadErr = false
			s.loadErr = ""
			s.log.WithField("count", len(fetched)).Debug("tasks loaded")
			return models.CloneTasks(fetched), nil
		},
	)
}

// Assign sets the assignee of a task; nil unassigns it. An unknown id is
// silently ignored. Re-asserting the current assignee still marks the store
// modified.
func (s *Store) Assign(taskID string, housekeeperID *int) {
	s.loop.Do(func() {
		if !assign(s.tasks, taskID, housekeeperID) {
			s.log.WithField("task", taskID).Debug("assign: unknown task")
			return
		}
		s.modified = true
	})
}

// Unassign clears the assignee of a task.
func (s *Store) Unassign(taskID string) {
	s.Assign(taskID, nil)
}

// Reorder moves the task at global index from to global index to. Invalid or
// equal indices are silently ignored. Assignments are never changed.
func (s *Store) Reorder(from, to int) {
	s.loop.Do(func() {
		var ok bool
		s.tasks, ok = move(s.tasks, from, to)
		if !ok {
			s.log.WithFields(log.Fields{"from": from, "to": to}).Debug("reorder: ignored")
			return
		}
		s.modified = true
	})
}

// Submit pushes tasks through the gateway. The payload is captured when
// Submit is called. On success the gateway's response replaces the working
// set unconditionally and becomes the new pristine snapshot, so edits made
// while the submission is in flight are discarded. On failure the working
// set and the dirty flag are left as they are.
func (s *Store) Submit(tasks []models.Task) *dispatch.Future[[]models.Task] {
	payload := models.CloneTasks(tasks)
	if !s.loop.Do(func() {
		s.submitting = true
		s.log.WithField("count", len(payload)).Debug("submitting tasks")
	}) {
		return dispatch.Resolved[[]models.Task](nil, dispatch.ErrClosed)
	}

	return dispatch.Go(s.loop,
		func() ([]models.Task, error) {
			return s.gw.SubmitTasks(context.Background(), payload)
		},
		func(accepted []models.Task, err error) ([]models.Task, error) {
			s.submitting = false
			if err != nil {
				s.hasSubmitErr = true
				s.submitErr = err.Error()
				s.log.WithError(err).Warn("submit tasks failed")
				return nil, fmt.Errorf("%w: %w", ErrSubmit, err)
			}
			s.tasks = models.CloneTasks(accepted)
			s.original = models.CloneTasks(accepted)
			s.modified = false
			s.hasSubmitErr = false
			s.submitErr = ""
			s.log.WithField("count", len(accepted)).Info("tasks submitted")
			return models.CloneTasks(accepted), nil
		},
	)
}

// CancelChanges restores the working set from the pristine snapshot.
func (s *Store) CancelChanges() {
	s.loop.Do(func() {
		s.tasks = models.CloneTasks(s.original)
		s.modified = false
	})
}

// Snapshot returns a detached copy of the store state.
func (s *Store) Snapshot() State {
	st := State{Tasks: []models.Task{}, OriginalTasks: []models.Task{}}
	s.loop.Do(func() {
		st = State{
			Tasks:              models.CloneTasks(s.tasks),
			OriginalTasks:      models.CloneTasks(s.original),
			IsModified:         s.modified,
			Loaded:             s.loaded,
			Loading:            s.loading,
			LoadError:          s.hasLoadErr,
			LoadErrorMessage:   s.loadErr,
			Submitting:         s.submitting,
			SubmitError:        s.hasSubmitErr,
			SubmitErrorMessage: s.submitErr,
		}
	})
	return st
}

// Tasks returns a copy of the working set.
func (s *Store) Tasks() []models.Task {
	out := []models.Task{}
	s.loop.Do(func() {
		out = models.CloneTasks(s.tasks)
	})
	return out
}

// IsModified reports whether the working set has local edits.
func (s *Store) IsModified() bool {
	var m bool
	s.loop.Do(func() {
		m = s.modified
	})
	return m
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() Phase {
	return s.Snapshot().Phase()
}
