package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/escalation"
)

// CreateComplaintRequest payload. Hostel and room default to the student's
// own residence when omitted.
type CreateComplaintRequest struct {
	HostelID       *string              `json:"hostel_id,omitempty"`
	RoomNumber     *string              `json:"room_number,omitempty"`
	Category       domain.IssueCategory `json:"category"`
	CategoryDetail *string              `json:"category_detail,omitempty"`
	Description    string               `json:"description"`
	Severity       domain.Severity      `json:"severity"`
}

// WorkerResponse is the currently assigned maintenance contact.
type WorkerResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ComplaintSummary response.
type ComplaintSummary struct {
	ID             string                 `json:"id"`
	ExternalKey    string                 `json:"external_key"`
	HostelID       string                 `json:"hostel_id"`
	RoomNumber     string                 `json:"room_number"`
	Category       domain.IssueCategory   `json:"category"`
	CategoryDetail *string                `json:"category_detail,omitempty"`
	Severity       domain.Severity        `json:"severity"`
	Level          domain.EscalationLevel `json:"level"`
	Status         domain.ComplaintStatus `json:"status"`
	Worker         WorkerResponse         `json:"worker"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// FeedbackResponse is present once the reporter rated the resolution.
type FeedbackResponse struct {
	Rating      int        `json:"rating"`
	Comment     *string    `json:"comment,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// ComplaintDetailResponse provides full complaint info.
type ComplaintDetailResponse struct {
	ComplaintSummary
	StudentID   string                     `json:"student_id"`
	Description string                     `json:"description"`
	Feedback    *FeedbackResponse          `json:"feedback,omitempty"`
	History     []ComplaintHistoryResponse `json:"history"`
	Attachments []AttachmentResponse       `json:"attachments,omitempty"`
}

// ComplaintHistoryResponse is one audit trail entry.
type ComplaintHistoryResponse struct {
	ID            string                     `json:"id"`
	ChangeType    domain.ComplaintChangeType `json:"change_type"`
	ChangedByType domain.ActorType           `json:"changed_by_type"`
	ChangedByID   *string                    `json:"changed_by_id,omitempty"`
	OldValue      map[string]any             `json:"old_value,omitempty"`
	NewValue      map[string]any             `json:"new_value,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// EscalationResponse pairs the complaint with the engine outcome so callers
// can tell an actual escalation from the max-level no-op.
type EscalationResponse struct {
	Outcome   escalation.Outcome `json:"outcome"`
	Complaint ComplaintSummary   `json:"complaint"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment,omitempty"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StatsResponse aggregates complaint counts.
type StatsResponse struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByLevel    map[string]int64 `json:"by_level"`
	ByCategory map[string]int64 `json:"by_category"`
}
