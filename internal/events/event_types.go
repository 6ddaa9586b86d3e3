package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintEscalated     EventType = "complaint_escalated"
	EventComplaintAutoEscalated EventType = "complaint_auto_escalated"
	EventComplaintResolved      EventType = "complaint_resolved"
	EventFeedbackSubmitted      EventType = "feedback_submitted"
)

// Actor encapsulates actor metadata for an event. Both IDs empty means the
// system acted, as in the auto-escalation sweep.
type Actor struct {
	Type      domain.ActorType `json:"type"`
	StudentID *string          `json:"student_id,omitempty"`
	StaffID   *string          `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	ExternalKey string               `json:"external_key"`
	HostelID    string               `json:"hostel_id"`
	Category    domain.IssueCategory `json:"category"`
	Severity    domain.Severity      `json:"severity"`
	WorkerName  string               `json:"worker_name"`
}

// ComplaintEscalatedPayload payload, shared by manual and automatic
// escalations.
type ComplaintEscalatedPayload struct {
	OldLevel    domain.EscalationLevel `json:"old_level"`
	NewLevel    domain.EscalationLevel `json:"new_level"`
	WorkerName  string                 `json:"worker_name"`
	WorkerPhone string                 `json:"worker_phone"`
	Automatic   bool                   `json:"automatic"`
}

// ComplaintResolvedPayload payload.
type ComplaintResolvedPayload struct {
	Level domain.EscalationLevel `json:"level"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}
