package audit

import (
	"context"
	"testing"

	"github.com/fentz26/roster/internal/models"
)

type memWriter struct {
	hashes []string
	counts []int
}

func (w *memWriter) RecordSubmission(ctx context.Context, inputsHash string, taskCount int) (*models.Submission, error) {
	w.hashes = append(w.hashes, inputsHash)
	w.counts = append(w.counts, taskCount)
	return &models.Submission{ID: "sub-1", InputsHash: inputsHash, TaskCount: taskCount}, nil
}

func TestHashTasksDeterministic(t *testing.T) {
	a := []models.Task{{ID: "t1", Title: "Clean"}, {ID: "t2", AssignedTo: models.HousekeeperID(1)}}
	b := models.CloneTasks(a)

	if HashTasks(a) != HashTasks(b) {
		t.Error("Expected identical sets to hash the same")
	}
	if len(HashTasks(a)) != 64 {
		t.Errorf("Expected hex sha256, got %q", HashTasks(a))
	}
}

func TestHashTasksOrderSensitive(t *testing.T) {
	a := []models.Task{{ID: "t1"}, {ID: "t2"}}
	b := []models.Task{{ID: "t2"}, {ID: "t1"}}
	if HashTasks(a) == HashTasks(b) {
		t.Error("Expected reordered sets to hash differently")
	}
}

func TestHashTasksNilEqualsEmpty(t *testing.T) {
	if HashTasks(nil) != HashTasks([]models.Task{}) {
		t.Error("Expected nil and empty sets to hash the same")
	}
}

func TestRecord(t *testing.T) {
	w := &memWriter{}
	r := NewRecorder(w)
	tasks := []models.Task{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}

	sub, err := r.Record(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if sub.TaskCount != 3 || w.counts[0] != 3 {
		t.Errorf("Expected task count 3, got %d", sub.TaskCount)
	}
	if w.hashes[0] != HashTasks(tasks) {
		t.Error("Expected recorded hash to match HashTasks")
	}
}
