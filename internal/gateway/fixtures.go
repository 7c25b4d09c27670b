package gateway

import "github.com/fentz26/roster/internal/models"

// FixtureHousekeepers returns the demo roster.
func FixtureHousekeepers() []models.Housekeeper {
	return []models.Housekeeper{
		{ID: 1, Name: "Maria Silva"},
		{ID: 2, Name: "Ana Costa"},
		{ID: 3, Name: "Joana Pereira"},
		{ID: 4, Name: "Rita Santos"},
	}
}

// FixtureTasks returns the demo task set.
func FixtureTasks() []models.Task {
	return []models.Task{
		{ID: "task-1", Title: "Full clean", Duration: 90, Deadline: "2025-05-12T11:00:00Z", HotelApartment: "Apt 101", AssignedTo: models.HousekeeperID(1)},
		{ID: "task-2", Title: "Change linens", Duration: 30, Deadline: "2025-05-12T12:00:00Z", HotelApartment: "Apt 102"},
		{ID: "task-3", Title: "Restock minibar", Duration: 15, Deadline: "2025-05-12T12:30:00Z", HotelApartment: "Apt 204", AssignedTo: models.HousekeeperID(1)},
		{ID: "task-4", Title: "Deep clean kitchen", Duration: 120, Deadline: "2025-05-12T14:00:00Z", HotelApartment: "Apt 305"},
		{ID: "task-5", Title: "Bathroom refresh", Duration: 45, Deadline: "2025-05-12T13:00:00Z", HotelApartment: "Apt 110", AssignedTo: models.HousekeeperID(2)},
		{ID: "task-6", Title: "Check-out inspection", Duration: 20, Deadline: "2025-05-12T10:30:00Z", HotelApartment: "Apt 401"},
		{ID: "task-7", Title: "Window cleaning", Duration: 60, Deadline: "2025-05-12T16:00:00Z", HotelApartment: "Apt 402"},
		{ID: "task-8", Title: "Balcony sweep", Duration: 25, Deadline: "2025-05-12T15:00:00Z", HotelApartment: "Apt 203", AssignedTo: models.HousekeeperID(3)},
	}
}
