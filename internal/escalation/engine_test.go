package escalation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/escalation"
)

var testBase = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

func newComplaint(level domain.EscalationLevel, status domain.ComplaintStatus, createdAt time.Time) *domain.Complaint {
	return &domain.Complaint{
		ID:                  "c-1",
		ExternalKey:         "CMP-AB12CD34",
		StudentID:           "s-1",
		HostelID:            "h-1",
		RoomNumber:          "B-214",
		Category:            domain.CategoryElectricity,
		Description:         "fan not working",
		Severity:            domain.SeverityNormal,
		Level:               level,
		Status:              status,
		AssignedWorkerName:  "Ramesh Yadav",
		AssignedWorkerPhone: "+91-9876100001",
		CreatedAt:           createdAt,
	}
}

func TestEscalateStepsOneLevel(t *testing.T) {
	engine := escalation.NewEngine(escalation.DefaultRoster(), 0)

	cases := []struct {
		name string
		from domain.EscalationLevel
		want domain.EscalationLevel
	}{
		{"level one to two", domain.LevelOne, domain.LevelTwo},
		{"level two to three", domain.LevelTwo, domain.LevelThree},
		{"level three to four", domain.LevelThree, domain.LevelFour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newComplaint(tc.from, domain.ComplaintStatusAssigned, testBase)
			result, err := engine.Escalate(c)
			require.NoError(t, err)
			assert.Equal(t, escalation.OutcomeEscalated, result.Outcome)
			assert.Equal(t, tc.want, result.Level)
			assert.Equal(t, domain.ComplaintStatusEscalated, result.Status)
			assert.Equal(t, engine.Roster().WorkerForLevel(tc.want), result.Worker)
			assert.True(t, result.Changed())
		})
	}
}

// Escalating at the top of the chain is a defined no-op, not an error.
func TestEscalateAtMaxLevel(t *testing.T) {
	engine := escalation.NewEngine(nil, 0)
	c := newComplaint(domain.LevelFour, domain.ComplaintStatusEscalated, testBase)

	result, err := engine.Escalate(c)
	require.NoError(t, err)
	assert.Equal(t, escalation.OutcomeMaxLevel, result.Outcome)
	assert.False(t, result.Changed())

	result.Apply(c)
	assert.Equal(t, domain.LevelFour, c.Level)
	assert.Equal(t, domain.ComplaintStatusEscalated, c.Status)
}

func TestEscalateResolvedRejected(t *testing.T) {
	engine := escalation.NewEngine(nil, 0)
	c := newComplaint(domain.LevelTwo, domain.ComplaintStatusResolved, testBase)

	_, err := engine.Escalate(c)
	assert.ErrorIs(t, err, escalation.ErrResolved)
}

func TestCheckAutoDayBoundary(t *testing.T) {
	engine := escalation.NewEngine(escalation.DefaultRoster(), 3)
	const day = 24 * time.Hour

	cases := []struct {
		name    string
		elapsed time.Duration
		want    escalation.Outcome
	}{
		{"fresh complaint", 0, escalation.OutcomeNotDue},
		{"one day old", day, escalation.OutcomeNotDue},
		{"just under three days", 3*day - time.Millisecond, escalation.OutcomeNotDue},
		{"exactly three days", 3 * day, escalation.OutcomeEscalated},
		{"just over three days", 3*day + time.Millisecond, escalation.OutcomeEscalated},
		{"four days old", 4 * day, escalation.OutcomeEscalated},
		{"clock behind creation", -time.Hour, escalation.OutcomeNotDue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newComplaint(domain.LevelOne, domain.ComplaintStatusAssigned, testBase)
			result, err := engine.CheckAuto(c, testBase.Add(tc.elapsed))
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Outcome)
		})
	}
}

func TestCheckAutoResolvedRejected(t *testing.T) {
	engine := escalation.NewEngine(nil, 0)
	c := newComplaint(domain.LevelOne, domain.ComplaintStatusResolved, testBase)

	_, err := engine.CheckAuto(c, testBase.Add(10*24*time.Hour))
	assert.ErrorIs(t, err, escalation.ErrResolved)
}

func TestCheckAutoAtMaxLevel(t *testing.T) {
	engine := escalation.NewEngine(nil, 0)
	c := newComplaint(domain.LevelFour, domain.ComplaintStatusEscalated, testBase)

	result, err := engine.CheckAuto(c, testBase.Add(10*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, escalation.OutcomeMaxLevel, result.Outcome)
	assert.False(t, result.Changed())
}

func TestResolveIdempotent(t *testing.T) {
	engine := escalation.NewEngine(nil, 0)
	c := newComplaint(domain.LevelTwo, domain.ComplaintStatusEscalated, testBase)

	first := engine.Resolve(c)
	assert.Equal(t, escalation.OutcomeResolved, first.Outcome)
	assert.Equal(t, domain.ComplaintStatusResolved, first.Status)
	first.Apply(c)

	second := engine.Resolve(c)
	assert.Equal(t, first, second)
	second.Apply(c)
	assert.Equal(t, domain.ComplaintStatusResolved, c.Status)
}

// Resolve touches status only; level and worker survive unchanged.
func TestResolveKeepsLevelAndWorker(t *testing.T) {
	engine := escalation.NewEngine(escalation.DefaultRoster(), 0)
	c := newComplaint(domain.LevelTwo, domain.ComplaintStatusEscalated, testBase)
	c.AssignedWorkerName = "Anil Mehta"
	c.AssignedWorkerPhone = "+91-9876200002"

	engine.Resolve(c).Apply(c)

	assert.Equal(t, domain.ComplaintStatusResolved, c.Status)
	assert.Equal(t, domain.LevelTwo, c.Level)
	assert.Equal(t, "Anil Mehta", c.AssignedWorkerName)
	assert.Equal(t, "+91-9876200002", c.AssignedWorkerPhone)

	_, err := engine.Escalate(c)
	assert.ErrorIs(t, err, escalation.ErrResolved)
}

// Repeated escalation walks LEVEL_1 through LEVEL_4 without skips or repeats,
// then settles into the max-level no-op.
func TestLevelSequenceStrictlyMonotonic(t *testing.T) {
	engine := escalation.NewEngine(escalation.DefaultRoster(), 0)
	c := newComplaint(domain.LevelOne, domain.ComplaintStatusAssigned, testBase)

	var visited []domain.EscalationLevel
	for i := 0; i < 6; i++ {
		result, err := engine.Escalate(c)
		require.NoError(t, err)
		if result.Outcome == escalation.OutcomeMaxLevel {
			break
		}
		require.Equal(t, c.Level.Rank()+1, result.Level.Rank())
		result.Apply(c)
		visited = append(visited, c.Level)
	}

	assert.Equal(t, []domain.EscalationLevel{domain.LevelTwo, domain.LevelThree, domain.LevelFour}, visited)
	assert.Equal(t, domain.LevelFour, c.Level)
}

func TestAssignInitial(t *testing.T) {
	roster := escalation.DefaultRoster()
	engine := escalation.NewEngine(roster, 0)

	cases := []struct {
		name     string
		category domain.IssueCategory
		want     escalation.Worker
	}{
		{"electricity", domain.CategoryElectricity, roster.WorkerForCategory(domain.CategoryElectricity)},
		{"plumbing", domain.CategoryPlumbing, roster.WorkerForCategory(domain.CategoryPlumbing)},
		{"other falls back", domain.CategoryOther, roster.Fallback()},
		{"unknown falls back", domain.IssueCategory("BROKEN_WINDOW"), roster.Fallback()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.AssignInitial(tc.category))
			assert.NotEmpty(t, engine.AssignInitial(tc.category).Name)
		})
	}
}

// Four-day-old pending complaint at level one: due, and the delta carries the
// level two handler.
func TestCheckAutoOverdueScenario(t *testing.T) {
	engine := escalation.NewEngine(escalation.DefaultRoster(), 3)
	c := newComplaint(domain.LevelOne, domain.ComplaintStatusPending, testBase)

	result, err := engine.CheckAuto(c, testBase.Add(4*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, escalation.OutcomeEscalated, result.Outcome)
	assert.Equal(t, domain.LevelTwo, result.Level)
	assert.Equal(t, domain.ComplaintStatusEscalated, result.Status)
	assert.Equal(t, engine.Roster().WorkerForLevel(domain.LevelTwo), result.Worker)

	result.Apply(c)
	assert.Equal(t, domain.LevelTwo, c.Level)
	assert.Equal(t, domain.ComplaintStatusEscalated, c.Status)
	assert.Equal(t, result.Worker.Name, c.AssignedWorkerName)
	assert.Equal(t, result.Worker.Phone, c.AssignedWorkerPhone)
}

func TestElapsedDays(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		want    int64
	}{
		{"zero", 0, 0},
		{"almost one day", 24*time.Hour - time.Second, 0},
		{"one day", 24 * time.Hour, 1},
		{"two point nine days", 69*time.Hour + 36*time.Minute, 2},
		{"three days", 72 * time.Hour, 3},
		{"negative", -36 * time.Hour, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, escalation.ElapsedDays(testBase, testBase.Add(tc.elapsed)))
		})
	}
}

func TestNewEngineDefaultsThreshold(t *testing.T) {
	engine := escalation.NewEngine(nil, -5)
	c := newComplaint(domain.LevelOne, domain.ComplaintStatusAssigned, testBase)

	result, err := engine.CheckAuto(c, testBase.Add(2*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, escalation.OutcomeNotDue, result.Outcome)

	result, err = engine.CheckAuto(c, testBase.Add(3*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, escalation.OutcomeEscalated, result.Outcome)
}
