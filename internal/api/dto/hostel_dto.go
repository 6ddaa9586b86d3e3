package dto

// HostelRequest payload for creating or updating a hostel.
type HostelRequest struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	WardenName string `json:"warden_name"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

// HostelResponse describes a residence block.
type HostelResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	WardenName string `json:"warden_name"`
	IsActive   bool   `json:"is_active"`
}
