package domain

import "time"

// ActorType indicates who performed a recorded change.
type ActorType string

const (
	ActorTypeStudent ActorType = "STUDENT"
	ActorTypeStaff   ActorType = "STAFF"
	ActorTypeSystem  ActorType = "SYSTEM"
)

// ComplaintChangeType captures what changed in a history entry.
type ComplaintChangeType string

const (
	ChangeTypeCreated  ComplaintChangeType = "CREATED"
	ChangeTypeStatus   ComplaintChangeType = "STATUS_CHANGE"
	ChangeTypeLevel    ComplaintChangeType = "LEVEL_CHANGE"
	ChangeTypeWorker   ComplaintChangeType = "WORKER_CHANGE"
	ChangeTypeFeedback ComplaintChangeType = "FEEDBACK"
)

// ComplaintHistory is an immutable audit trail entry.
type ComplaintHistory struct {
	ID            string
	ComplaintID   string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    ComplaintChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
