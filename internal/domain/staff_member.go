package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleCaretaker  StaffRole = "CARETAKER"
	StaffRoleSupervisor StaffRole = "SUPERVISOR"
	StaffRoleWarden     StaffRole = "WARDEN"
	StaffRoleAdmin      StaffRole = "ADMIN"
)

// Valid reports whether the role is a known one.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleCaretaker, StaffRoleSupervisor, StaffRoleWarden, StaffRoleAdmin:
		return true
	}
	return false
}

// StaffMember models hostel maintenance staff and administrators. A nil
// HostelID means the member operates across all hostels.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         StaffRole
	HostelID     *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
