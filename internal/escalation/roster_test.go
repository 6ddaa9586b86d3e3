package escalation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/escalation"
)

func TestRosterLookupsAreTotal(t *testing.T) {
	fallback := escalation.Worker{Name: "General Maintenance", Phone: "+91-9000000000"}
	roster := escalation.NewRoster(
		map[domain.IssueCategory]escalation.Worker{
			domain.CategoryPlumbing: {Name: "Suresh Pal", Phone: "+91-9876100002"},
		},
		map[domain.EscalationLevel]escalation.Worker{
			domain.LevelTwo: {Name: "Anil Mehta", Phone: "+91-9876200002"},
		},
		fallback,
	)

	assert.Equal(t, "Suresh Pal", roster.WorkerForCategory(domain.CategoryPlumbing).Name)
	assert.Equal(t, fallback, roster.WorkerForCategory(domain.CategoryOther))
	assert.Equal(t, fallback, roster.WorkerForCategory(domain.IssueCategory("LEAKY_ROOF")))

	assert.Equal(t, "Anil Mehta", roster.WorkerForLevel(domain.LevelTwo).Name)
	assert.Equal(t, fallback, roster.WorkerForLevel(domain.LevelThree))
}

func TestRosterNilTables(t *testing.T) {
	fallback := escalation.Worker{Name: "General Maintenance", Phone: "+91-9000000000"}
	roster := escalation.NewRoster(nil, nil, fallback)

	assert.Equal(t, fallback, roster.WorkerForCategory(domain.CategoryElectricity))
	assert.Equal(t, fallback, roster.WorkerForLevel(domain.LevelFour))
	assert.Equal(t, fallback, roster.Fallback())
}

// Mutating the source tables after construction must not leak into the roster.
func TestRosterCopiesTables(t *testing.T) {
	byCategory := map[domain.IssueCategory]escalation.Worker{
		domain.CategoryMess: {Name: "Rajesh Gupta", Phone: "+91-9876100006"},
	}
	byLevel := map[domain.EscalationLevel]escalation.Worker{
		domain.LevelThree: {Name: "Prakash Rao", Phone: "+91-9876200003"},
	}
	roster := escalation.NewRoster(byCategory, byLevel, escalation.Worker{Name: "Fallback"})

	byCategory[domain.CategoryMess] = escalation.Worker{Name: "Replaced"}
	delete(byLevel, domain.LevelThree)

	assert.Equal(t, "Rajesh Gupta", roster.WorkerForCategory(domain.CategoryMess).Name)
	assert.Equal(t, "Prakash Rao", roster.WorkerForLevel(domain.LevelThree).Name)
}

func TestDefaultRosterCoversEveryCategoryAndLevel(t *testing.T) {
	roster := escalation.DefaultRoster()

	categories := []domain.IssueCategory{
		domain.CategoryElectricity, domain.CategoryPlumbing, domain.CategoryCleaning,
		domain.CategoryInternet, domain.CategoryFurniture, domain.CategoryMess,
		domain.CategorySecurity, domain.CategoryOther,
	}
	for _, category := range categories {
		worker := roster.WorkerForCategory(category)
		assert.NotEmpty(t, worker.Name, "category %s", category)
		assert.NotEmpty(t, worker.Phone, "category %s", category)
	}

	levels := []domain.EscalationLevel{domain.LevelOne, domain.LevelTwo, domain.LevelThree, domain.LevelFour}
	for _, level := range levels {
		worker := roster.WorkerForLevel(level)
		assert.NotEmpty(t, worker.Name, "level %s", level)
		assert.NotEmpty(t, worker.Phone, "level %s", level)
	}
}
