package tasks

import (
	"reflect"
	"testing"

	"github.com/fentz26/roster/internal/models"
)

func TestMovePreservesLength(t *testing.T) {
	for from := 0; from < 4; from++ {
		for to := 0; to < 4; to++ {
			tasks := abcd()
			got, ok := move(tasks, from, to)
			if ok != (from != to) {
				t.Errorf("move(%d, %d) ok = %v", from, to, ok)
			}
			if len(got) != 4 {
				t.Fatalf("move(%d, %d) changed length to %d", from, to, len(got))
			}
			if ok && got[to].ID != abcd()[from].ID {
				t.Errorf("move(%d, %d) put %s at %d", from, to, got[to].ID, to)
			}
			seen := map[string]bool{}
			for _, task := range got {
				if seen[task.ID] {
					t.Fatalf("move(%d, %d) duplicated %s", from, to, task.ID)
				}
				seen[task.ID] = true
			}
		}
	}
}

func TestAssignHelper(t *testing.T) {
	tasks := abcd()
	if assign(tasks, "missing", models.HousekeeperID(1)) {
		t.Error("Expected assign to report false for unknown id")
	}
	if !reflect.DeepEqual(tasks, abcd()) {
		t.Error("assign with unknown id modified tasks")
	}
	if !assign(tasks, "B", models.HousekeeperID(2)) || !tasks[1].AssignedToID(2) {
		t.Error("Expected B assigned to 2")
	}
}

func TestIndexOf(t *testing.T) {
	if IndexOf(abcd(), "C") != 2 {
		t.Error("Expected C at index 2")
	}
	if IndexOf(abcd(), "Z") != -1 {
		t.Error("Expected -1 for unknown id")
	}
	if IndexOf(nil, "A") != -1 {
		t.Error("Expected -1 for empty slice")
	}
}

func TestStateViews(t *testing.T) {
	st := State{Tasks: abcd()}

	if got := ids(st.AssignedTo(1)); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("AssignedTo(1) = %v", got)
	}
	if got := ids(st.Unassigned()); !reflect.DeepEqual(got, []string{"B", "D"}) {
		t.Errorf("Unassigned() = %v", got)
	}
	if got := st.AssignedTo(99); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}
}
