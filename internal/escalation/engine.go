// Package escalation implements the complaint routing and escalation rules.
// Every operation is pure: no I/O, no system clock. Callers pass the current
// time in and persist the returned delta themselves.
package escalation

import (
	"errors"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// DefaultAutoEscalateDays is the age at which an unresolved complaint becomes
// due for automatic escalation.
const DefaultAutoEscalateDays = 3

const millisPerDay = 86_400_000

// ErrResolved rejects operations on complaints that reached the terminal
// state.
var ErrResolved = errors.New("complaint is resolved")

// Outcome classifies the result of an escalation check.
type Outcome string

const (
	OutcomeEscalated Outcome = "ESCALATED"
	OutcomeMaxLevel  Outcome = "MAX_LEVEL"
	OutcomeNotDue    Outcome = "NOT_DUE"
	OutcomeResolved  Outcome = "RESOLVED"
)

// Result is the state delta produced by the engine. Only Changed results
// carry fields to persist; MAX_LEVEL and NOT_DUE are explicit no-ops.
type Result struct {
	Outcome Outcome
	Level   domain.EscalationLevel
	Status  domain.ComplaintStatus
	Worker  Worker
}

// Changed reports whether the result carries a delta to persist.
func (r Result) Changed() bool {
	return r.Outcome == OutcomeEscalated || r.Outcome == OutcomeResolved
}

// Apply writes the delta onto the complaint in memory. Persistence is the
// caller's job.
func (r Result) Apply(c *domain.Complaint) {
	switch r.Outcome {
	case OutcomeEscalated:
		c.Level = r.Level
		c.Status = r.Status
		c.AssignedWorkerName = r.Worker.Name
		c.AssignedWorkerPhone = r.Worker.Phone
	case OutcomeResolved:
		c.Status = domain.ComplaintStatusResolved
	}
}

// Engine evaluates escalation rules against an immutable roster.
type Engine struct {
	roster    *Roster
	afterDays int64
}

// NewEngine builds an engine. A non-positive afterDays falls back to
// DefaultAutoEscalateDays.
func NewEngine(roster *Roster, afterDays int) *Engine {
	if roster == nil {
		roster = DefaultRoster()
	}
	days := int64(afterDays)
	if days <= 0 {
		days = DefaultAutoEscalateDays
	}
	return &Engine{roster: roster, afterDays: days}
}

// Roster exposes the routing tables for initial assignment.
func (e *Engine) Roster() *Roster {
	return e.roster
}

// AssignInitial returns the first responder for a new complaint. The lookup
// never fails; unknown categories route to the fallback worker.
func (e *Engine) AssignInitial(category domain.IssueCategory) Worker {
	return e.roster.WorkerForCategory(category)
}

// Escalate moves a complaint one level up the chain. Resolved complaints are
// rejected with ErrResolved. At the top of the chain the result is
// OutcomeMaxLevel, a defined no-op rather than an error.
func (e *Engine) Escalate(c *domain.Complaint) (Result, error) {
	if c.Resolved() {
		return Result{}, ErrResolved
	}
	next, ok := c.Level.Next()
	if !ok {
		return Result{Outcome: OutcomeMaxLevel}, nil
	}
	return Result{
		Outcome: OutcomeEscalated,
		Level:   next,
		Status:  domain.ComplaintStatusEscalated,
		Worker:  e.roster.WorkerForLevel(next),
	}, nil
}

// CheckAuto decides whether a complaint is due for automatic escalation at
// the given instant. Age is measured in whole elapsed days, floor of the
// millisecond difference, so a complaint becomes due at exactly 3.0 days and
// not a moment before.
func (e *Engine) CheckAuto(c *domain.Complaint, now time.Time) (Result, error) {
	if c.Resolved() {
		return Result{}, ErrResolved
	}
	if _, ok := c.Level.Next(); !ok {
		return Result{Outcome: OutcomeMaxLevel}, nil
	}
	if ElapsedDays(c.CreatedAt, now) < e.afterDays {
		return Result{Outcome: OutcomeNotDue}, nil
	}
	return e.Escalate(c)
}

// Resolve produces the terminal delta. Legal from any state and idempotent;
// level and worker are left untouched.
func (e *Engine) Resolve(c *domain.Complaint) Result {
	return Result{Outcome: OutcomeResolved, Status: domain.ComplaintStatusResolved}
}

// ElapsedDays returns the number of whole days between two instants,
// truncated millisecond division. Never positive when to precedes from.
func ElapsedDays(from, to time.Time) int64 {
	return to.Sub(from).Milliseconds() / millisPerDay
}
