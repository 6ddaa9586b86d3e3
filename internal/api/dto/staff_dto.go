package dto

import "github.com/spec-kit/complaint-service/internal/domain"

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// StaffCreateRequest payload for admin staff creation.
type StaffCreateRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Password string           `json:"password"`
	Role     domain.StaffRole `json:"role"`
	HostelID *string          `json:"hostel_id"`
}

// StaffUpdateRequest payload for admin staff updates.
type StaffUpdateRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Role     domain.StaffRole `json:"role"`
	HostelID *string          `json:"hostel_id"`
	Active   bool             `json:"active"`
}

// StaffResponse describes a staff account.
type StaffResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Role     domain.StaffRole `json:"role"`
	HostelID *string          `json:"hostel_id"`
	Active   bool             `json:"active"`
}
