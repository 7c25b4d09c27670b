package tasks

import (
	"slices"

	"github.com/fentz26/roster/internal/models"
)

// IndexOf returns the position of the task with the given id, or -1.
func IndexOf(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}

// assign sets the assignee of the task with the given id in place. It reports
// false when no such task exists.
func assign(tasks []models.Task, id string, housekeeperID *int) bool {
	i := IndexOf(tasks, id)
	if i < 0 {
		return false
	}
	if housekeeperID == nil {
		tasks[i].AssignedTo = nil
	} else {
		tasks[i].AssignedTo = models.HousekeeperID(*housekeeperID)
	}
	return true
}

// move removes the task at from and reinserts it at to, where to is measured
// against the slice after removal. Out-of-range or equal indices leave tasks
// unchanged and report false.
func move(tasks []models.Task, from, to int) ([]models.Task, bool) {
	n := len(tasks)
	if from < 0 || to < 0 || from >= n || to >= n || from == to {
		return tasks, false
	}
	t := tasks[from]
	tasks = slices.Delete(tasks, from, from+1)
	return slices.Insert(tasks, to, t), true
}
