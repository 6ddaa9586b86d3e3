package domain

import "time"

// Hostel represents a residence block complaints are filed against.
type Hostel struct {
	ID         string
	Name       string
	Code       string
	WardenName string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
