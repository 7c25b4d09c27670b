// Package audit records accepted task submissions for later inspection.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/roster/internal/models"
)

// Writer persists submission records.
type Writer interface {
	RecordSubmission(ctx context.Context, inputsHash string, taskCount int) (*models.Submission, error)
}

// Recorder writes an audit row for every accepted task set.
type Recorder struct {
	w Writer
}

// NewRecorder creates a recorder backed by w.
func NewRecorder(w Writer) *Recorder {
	return &Recorder{w: w}
}

// Record hashes the submitted set and writes a submission entry.
func (r *Recorder) Record(ctx context.Context, tasks []models.Task) (*models.Submission, error) {
	return r.w.RecordSubmission(ctx, HashTasks(tasks), len(tasks))
}

// HashTasks returns the SHA256 of the JSON encoding of tasks. Identical sets
// in identical order hash the same.
func HashTasks(tasks []models.Task) string {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
