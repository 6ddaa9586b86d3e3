package domain

import "time"

// StudentStatus represents lifecycle states for a student account.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusSuspended StudentStatus = "SUSPENDED"
)

// Student is the domain model for hostel residents who file complaints.
type Student struct {
	ID           string
	Name         string
	Email        string
	RollNumber   string
	HostelID     string
	RoomNumber   string
	PasswordHash string
	Status       StudentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
