package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusPending   ComplaintStatus = "PENDING"
	ComplaintStatusAssigned  ComplaintStatus = "ASSIGNED"
	ComplaintStatusEscalated ComplaintStatus = "ESCALATED"
	ComplaintStatusResolved  ComplaintStatus = "RESOLVED"
)

// Valid reports whether the status is one of the defined states.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusAssigned, ComplaintStatusEscalated, ComplaintStatusResolved:
		return true
	}
	return false
}

// EscalationLevel enumerates the four-step escalation chain.
type EscalationLevel string

const (
	LevelOne   EscalationLevel = "LEVEL_1"
	LevelTwo   EscalationLevel = "LEVEL_2"
	LevelThree EscalationLevel = "LEVEL_3"
	LevelFour  EscalationLevel = "LEVEL_4"
)

var levelOrder = []EscalationLevel{LevelOne, LevelTwo, LevelThree, LevelFour}

// Rank returns the 1-based position of the level in the chain, 0 for unknown values.
func (l EscalationLevel) Rank() int {
	for i, candidate := range levelOrder {
		if candidate == l {
			return i + 1
		}
	}
	return 0
}

// Next returns the following level. The second return is false at LevelFour,
// which is the defined maximum, and for unknown values.
func (l EscalationLevel) Next() (EscalationLevel, bool) {
	rank := l.Rank()
	if rank == 0 || rank == len(levelOrder) {
		return l, false
	}
	return levelOrder[rank], true
}

// Valid reports whether the level is one of the defined four.
func (l EscalationLevel) Valid() bool {
	return l.Rank() > 0
}

// Severity is the reporter-declared urgency. It is informational and does not
// change escalation mechanics.
type Severity string

const (
	SeverityNormal              Severity = "NORMAL"
	SeverityNeedsQuickAttention Severity = "NEEDS_QUICK_ATTENTION"
	SeverityExtreme             Severity = "EXTREME"
)

// Valid reports whether the severity is a defined value.
func (s Severity) Valid() bool {
	switch s {
	case SeverityNormal, SeverityNeedsQuickAttention, SeverityExtreme:
		return true
	}
	return false
}

// IssueCategory enumerates recognized complaint categories. CategoryOther
// carries a free-text detail on the complaint.
type IssueCategory string

const (
	CategoryElectricity IssueCategory = "ELECTRICITY"
	CategoryPlumbing    IssueCategory = "PLUMBING"
	CategoryCleaning    IssueCategory = "CLEANING"
	CategoryInternet    IssueCategory = "INTERNET"
	CategoryFurniture   IssueCategory = "FURNITURE"
	CategoryMess        IssueCategory = "MESS"
	CategorySecurity    IssueCategory = "SECURITY"
	CategoryOther       IssueCategory = "OTHER"
)

// Valid reports whether the category is a defined value.
func (c IssueCategory) Valid() bool {
	switch c {
	case CategoryElectricity, CategoryPlumbing, CategoryCleaning, CategoryInternet,
		CategoryFurniture, CategoryMess, CategorySecurity, CategoryOther:
		return true
	}
	return false
}

// Complaint is the aggregate for hostel maintenance reports.
type Complaint struct {
	ID                  string
	ExternalKey         string
	StudentID           string
	HostelID            string
	RoomNumber          string
	Category            IssueCategory
	CategoryDetail      *string
	Description         string
	Severity            Severity
	Level               EscalationLevel
	Status              ComplaintStatus
	AssignedWorkerName  string
	AssignedWorkerPhone string
	FeedbackRating      *int
	FeedbackComment     *string
	FeedbackAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Resolved reports whether the complaint reached its terminal state.
func (c *Complaint) Resolved() bool {
	return c.Status == ComplaintStatusResolved
}
