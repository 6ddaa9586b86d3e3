package dto

import "time"

// StudentRegisterRequest payload for new residents.
type StudentRegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
	HostelID   string `json:"hostel_id"`
	RoomNumber string `json:"room_number"`
	Password   string `json:"password"`
}

// StudentLoginRequest payload for login. Identifier accepts email or roll
// number.
type StudentLoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StudentResponse describes a resident account.
type StudentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
	HostelID   string `json:"hostel_id"`
	RoomNumber string `json:"room_number"`
}
