package tasks

import "github.com/fentz26/roster/internal/models"

// Phase names where the task set is in its lifecycle.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseLoading     Phase = "loading"
	PhaseLoadError   Phase = "load_error"
	PhaseClean       Phase = "clean"
	PhaseDirty       Phase = "dirty"
	PhaseSubmitting  Phase = "submitting"
	PhaseSubmitError Phase = "submit_error"
)

// State is a read-only view of the store. Slices are copies.
type State struct {
	Tasks         []models.Task
	OriginalTasks []models.Task
	IsModified    bool

	// Loaded is set after the first successful fetch.
	Loaded           bool
	Loading          bool
	LoadError        bool
	LoadErrorMessage string

	Submitting         bool
	SubmitError        bool
	SubmitErrorMessage string
}

// Phase derives the lifecycle phase from the flags. A failed refetch after a
// successful load keeps the loaded phase; LoadError is still reported.
func (st State) Phase() Phase {
	switch {
	case st.Submitting:
		return PhaseSubmitting
	case st.Loading:
		return PhaseLoading
	case !st.Loaded && st.LoadError:
		return PhaseLoadError
	case !st.Loaded:
		return PhaseIdle
	case st.IsModified && st.SubmitError:
		return PhaseSubmitError
	case st.IsModified:
		return PhaseDirty
	default:
		return PhaseClean
	}
}

// AssignedTo returns the tasks assigned to housekeeperID in working-set order.
func (st State) AssignedTo(housekeeperID int) []models.Task {
	out := []models.Task{}
	for _, t := range st.Tasks {
		if t.AssignedToID(housekeeperID) {
			out = append(out, t)
		}
	}
	return out
}

// Unassigned returns the tasks with no assignee in working-set order.
func (st State) Unassigned() []models.Task {
	out := []models.Task{}
	for _, t := range st.Tasks {
		if !t.IsAssigned() {
			out = append(out, t)
		}
	}
	return out
}
