// Package models defines the core domain types for the roster.
package models

import "time"

// Task represents a unit of housekeeping work.
type Task struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Duration       int    `json:"duration"` // minutes
	Deadline       string `json:"deadline"`
	HotelApartment string `json:"hotelApartment"`
	AssignedTo     *int   `json:"assignedTo"` // nil when unassigned
}

// Housekeeper is a worker tasks can be assigned to.
type Housekeeper struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Submission records a task set accepted by the backend, for audit.
type Submission struct {
	ID         string    `json:"id"`
	InputsHash string    `json:"inputs_hash"`
	TaskCount  int       `json:"task_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsAssigned reports whether the task has a housekeeper.
func (t Task) IsAssigned() bool {
	return t.AssignedTo != nil
}

// AssignedToID reports whether the task is assigned to the given housekeeper.
func (t Task) AssignedToID(id int) bool {
	return t.AssignedTo != nil && *t.AssignedTo == id
}

// Clone returns a copy of the task that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		c.AssignedTo = &id
	}
	return c
}

// CloneTasks returns a fully detached copy of tasks. The result is never nil.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// CloneHousekeepers returns a copy of the roster. The result is never nil.
func CloneHousekeepers(hks []Housekeeper) []Housekeeper {
	out := make([]Housekeeper, len(hks))
	copy(out, hks)
	return out
}

// HousekeeperID returns a pointer to a copy of id, for use as Task.AssignedTo.
func HousekeeperID(id int) *int {
	return &id
}
