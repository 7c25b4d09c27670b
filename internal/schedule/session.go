// Package schedule is the view model behind the scheduling screen: the
// selected housekeeper, the assigned and unassigned lists it shows, and the
// translation of list positions into store operations.
package schedule

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fentz26/roster/internal/dispatch"
	"github.com/fentz26/roster/internal/housekeepers"
	"github.com/fentz26/roster/internal/models"
	"github.com/fentz26/roster/internal/tasks"
)

// TaskStore is the task state machine as seen by the screen.
type TaskStore interface {
	FetchAll() *dispatch.Future[[]models.Task]
	Snapshot() tasks.State
	Assign(taskID string, housekeeperID *int)
	Unassign(taskID string)
	Reorder(from, to int)
	Submit(tasks []models.Task) *dispatch.Future[[]models.Task]
	CancelChanges()
}

// Roster is the housekeeper store as seen by the screen.
type Roster interface {
	FetchAll() *dispatch.Future[[]models.Housekeeper]
	Snapshot() housekeepers.State
}

// View is everything the screen renders, taken at one point in time.
type View struct {
	Tasks        tasks.State
	Roster       housekeepers.State
	Selected     *int
	Assigned     []models.Task
	Unassigned   []models.Task
	Loading      bool
	Error        bool
	ErrorMessage string
}

// Session ties the two stores to a housekeeper selection.
type Session struct {
	tasks  TaskStore
	roster Roster

	mu       sync.Mutex
	selected *int
}

// New creates a session over the given stores.
func New(ts TaskStore, roster Roster) *Session {
	return &Session{tasks: ts, roster: roster}
}

// Mount fetches tasks and housekeepers concurrently and waits for both. When
// the roster arrives and nothing is selected yet, the first housekeeper is
// selected, even if the task fetch failed. The first error is returned.
func (s *Session) Mount(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.tasks.FetchAll().Wait(ctx)
		return err
	})
	g.Go(func() error {
		hks, err := s.roster.FetchAll().Wait(ctx)
		if err != nil {
			return err
		}
		s.selectDefault(hks)
		return nil
	})
	return g.Wait()
}

func (s *Session) selectDefault(hks []models.Housekeeper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil && len(hks) > 0 {
		s.selected = models.HousekeeperID(hks[0].ID)
	}
}

// Select makes id the selected housekeeper.
func (s *Session) Select(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = models.HousekeeperID(id)
}

// Selected returns the selected housekeeper id.
func (s *Session) Selected() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return 0, false
	}
	return *s.selected, true
}

// View returns the current screen state.
func (s *Session) View() View {
	ts := s.tasks.Snapshot()
	rs := s.roster.Snapshot()
	v := View{
		Tasks:      ts,
		Roster:     rs,
		Assigned:   []models.Task{},
		Unassigned: ts.Unassigned(),
		Loading:    ts.Loading || rs.Loading,
		Error:      ts.LoadError || rs.Error,
	}
	switch {
	case ts.LoadError:
		v.ErrorMessage = ts.LoadErrorMessage
	case rs.Error:
		v.ErrorMessage = rs.ErrorMessage
	}
	if id, ok := s.Selected(); ok {
		v.Selected = models.HousekeeperID(id)
		v.Assigned = ts.AssignedTo(id)
	}
	return v
}

// Assigned returns the selected housekeeper's tasks in working-set order.
func (s *Session) Assigned() []models.Task {
	return s.View().Assigned
}

// Unassigned returns tasks with no assignee in working-set order.
func (s *Session) Unassigned() []models.Task {
	return s.tasks.Snapshot().Unassigned()
}

// AssignToSelected assigns a task to the selected housekeeper. Without a
// selection it does nothing.
func (s *Session) AssignToSelected(taskID string) {
	id, ok := s.Selected()
	if !ok {
		return
	}
	s.tasks.Assign(taskID, models.HousekeeperID(id))
}

// Unassign clears a task's assignee.
func (s *Session) Unassign(taskID string) {
	s.tasks.Unassign(taskID)
}

// MoveAssigned moves a task within the selected housekeeper's list. Both
// positions index that list; they are translated to positions in the full
// working set before reordering. Out-of-range or equal positions do nothing.
func (s *Session) MoveAssigned(fromView, toView int) {
	v := s.View()
	n := len(v.Assigned)
	if fromView < 0 || toView < 0 || fromView >= n || toView >= n || fromView == toView {
		return
	}
	from := tasks.IndexOf(v.Tasks.Tasks, v.Assigned[fromView].ID)
	to := tasks.IndexOf(v.Tasks.Tasks, v.Assigned[toView].ID)
	s.tasks.Reorder(from, to)
}

// DropOnAssigned handles a task dropped onto position viewIndex of the
// selected housekeeper's list. An unassigned task is assigned to the
// selected housekeeper; an assigned one is moved to that position.
func (s *Session) DropOnAssigned(taskID string, viewIndex int) {
	v := s.View()
	i := tasks.IndexOf(v.Tasks.Tasks, taskID)
	if i < 0 {
		return
	}
	if !v.Tasks.Tasks[i].IsAssigned() {
		s.AssignToSelected(taskID)
		return
	}
	from := tasks.IndexOf(v.Assigned, taskID)
	if from < 0 {
		return
	}
	s.MoveAssigned(from, viewIndex)
}

// DropOnUnassigned handles a task dropped onto the unassigned list.
func (s *Session) DropOnUnassigned(taskID string) {
	s.tasks.Unassign(taskID)
}

// Submit sends the current working set.
func (s *Session) Submit() *dispatch.Future[[]models.Task] {
	return s.tasks.Submit(s.tasks.Snapshot().Tasks)
}

// Cancel discards local edits.
func (s *Session) Cancel() {
	s.tasks.CancelChanges()
}
