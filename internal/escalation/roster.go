package escalation

import "github.com/spec-kit/complaint-service/internal/domain"

// Worker identifies the person a complaint is routed to.
type Worker struct {
	Name  string
	Phone string
}

// Roster holds the static routing tables: issue category to first responder
// and escalation level to handler. Lookups are total; anything missing falls
// back to the default worker. The tables are copied at construction and never
// mutated afterwards.
type Roster struct {
	byCategory map[domain.IssueCategory]Worker
	byLevel    map[domain.EscalationLevel]Worker
	fallback   Worker
}

// NewRoster builds a roster from the given tables. Nil tables are allowed and
// leave every lookup on the fallback worker.
func NewRoster(byCategory map[domain.IssueCategory]Worker, byLevel map[domain.EscalationLevel]Worker, fallback Worker) *Roster {
	r := &Roster{
		byCategory: make(map[domain.IssueCategory]Worker, len(byCategory)),
		byLevel:    make(map[domain.EscalationLevel]Worker, len(byLevel)),
		fallback:   fallback,
	}
	for category, worker := range byCategory {
		r.byCategory[category] = worker
	}
	for level, worker := range byLevel {
		r.byLevel[level] = worker
	}
	return r
}

// DefaultRoster returns the compiled-in routing tables.
func DefaultRoster() *Roster {
	return NewRoster(
		map[domain.IssueCategory]Worker{
			domain.CategoryElectricity: {Name: "Ramesh Yadav", Phone: "+91-9876100001"},
			domain.CategoryPlumbing:    {Name: "Suresh Pal", Phone: "+91-9876100002"},
			domain.CategoryCleaning:    {Name: "Mahesh Kumar", Phone: "+91-9876100003"},
			domain.CategoryInternet:    {Name: "Vikram Singh", Phone: "+91-9876100004"},
			domain.CategoryFurniture:   {Name: "Dinesh Sharma", Phone: "+91-9876100005"},
			domain.CategoryMess:        {Name: "Rajesh Gupta", Phone: "+91-9876100006"},
			domain.CategorySecurity:    {Name: "Mohan Verma", Phone: "+91-9876100007"},
		},
		map[domain.EscalationLevel]Worker{
			domain.LevelOne:   {Name: "Sunil Joshi", Phone: "+91-9876200001"},
			domain.LevelTwo:   {Name: "Anil Mehta", Phone: "+91-9876200002"},
			domain.LevelThree: {Name: "Prakash Rao", Phone: "+91-9876200003"},
			domain.LevelFour:  {Name: "Kavita Nair", Phone: "+91-9876200004"},
		},
		Worker{Name: "Sunil Joshi", Phone: "+91-9876200001"},
	)
}

// WithFallback returns a copy of the roster with a different default worker.
// The routing tables carry over unchanged.
func (r *Roster) WithFallback(fallback Worker) *Roster {
	return NewRoster(r.byCategory, r.byLevel, fallback)
}

// WorkerForCategory returns the first responder for an issue category. Unknown
// categories, including free-text OTHER issues, get the fallback worker.
func (r *Roster) WorkerForCategory(category domain.IssueCategory) Worker {
	if worker, ok := r.byCategory[category]; ok {
		return worker
	}
	return r.fallback
}

// WorkerForLevel returns the handler for an escalation level, falling back to
// the default worker when the level has no entry.
func (r *Roster) WorkerForLevel(level domain.EscalationLevel) Worker {
	if worker, ok := r.byLevel[level]; ok {
		return worker
	}
	return r.fallback
}

// Fallback returns the default worker.
func (r *Roster) Fallback() Worker {
	return r.fallback
}
