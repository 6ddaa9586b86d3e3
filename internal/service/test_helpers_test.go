package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/escalation"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
)

var testNow = time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)

func cloneComplaint(c *domain.Complaint) *domain.Complaint {
	cp := *c
	return &cp
}

type mockComplaintRepository struct {
	seq        int
	complaints map[string]*domain.Complaint
	updateErr  error
}

func newMockComplaintRepository() *mockComplaintRepository {
	return &mockComplaintRepository{complaints: make(map[string]*domain.Complaint)}
}

func (m *mockComplaintRepository) seed(c *domain.Complaint) *domain.Complaint {
	m.seq++
	if c.ID == "" {
		c.ID = fmt.Sprintf("c-%03d", m.seq)
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	m.complaints[c.ID] = cloneComplaint(c)
	return c
}

func (m *mockComplaintRepository) Create(_ context.Context, complaint *domain.Complaint) error {
	m.seq++
	complaint.ID = fmt.Sprintf("c-%03d", m.seq)
	complaint.CreatedAt = testNow
	complaint.UpdatedAt = testNow
	m.complaints[complaint.ID] = cloneComplaint(complaint)
	return nil
}

func (m *mockComplaintRepository) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	stored, ok := m.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneComplaint(stored), nil
}

func (m *mockComplaintRepository) GetByExternalKey(_ context.Context, key string) (*domain.Complaint, error) {
	for _, stored := range m.complaints {
		if stored.ExternalKey == key {
			return cloneComplaint(stored), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockComplaintRepository) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]domain.Complaint, error) {
	return m.ListWithFilter(ctx, repository.ComplaintFilter{StudentID: &studentID, Limit: limit, Offset: offset})
}

func (m *mockComplaintRepository) ListWithFilter(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	var out []domain.Complaint
	for _, stored := range m.complaints {
		if filter.StudentID != nil && stored.StudentID != *filter.StudentID {
			continue
		}
		if filter.HostelID != nil && stored.HostelID != *filter.HostelID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(strings.ToLower(stored.Description), strings.ToLower(*filter.SearchTerm)) {
			continue
		}
		out = append(out, *cloneComplaint(stored))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func containsStatus(statuses []domain.ComplaintStatus, status domain.ComplaintStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (m *mockComplaintRepository) UpdateEscalation(_ context.Context, complaint *domain.Complaint, prevLevel domain.EscalationLevel) error {
	if m.updateErr != nil {
		err := m.updateErr
		m.updateErr = nil
		return err
	}
	stored, ok := m.complaints[complaint.ID]
	if !ok || stored.Level != prevLevel || stored.Status == domain.ComplaintStatusResolved {
		return repository.ErrVersionConflict
	}
	stored.Level = complaint.Level
	stored.Status = complaint.Status
	stored.AssignedWorkerName = complaint.AssignedWorkerName
	stored.AssignedWorkerPhone = complaint.AssignedWorkerPhone
	stored.UpdatedAt = testNow
	complaint.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *mockComplaintRepository) MarkResolved(_ context.Context, complaint *domain.Complaint) error {
	stored, ok := m.complaints[complaint.ID]
	if !ok || stored.Status == domain.ComplaintStatusResolved {
		return pgx.ErrNoRows
	}
	stored.Status = domain.ComplaintStatusResolved
	stored.UpdatedAt = testNow
	complaint.Status = stored.Status
	complaint.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *mockComplaintRepository) SetFeedback(_ context.Context, complaint *domain.Complaint, rating int, comment *string) error {
	stored, ok := m.complaints[complaint.ID]
	if !ok || stored.Status != domain.ComplaintStatusResolved || stored.FeedbackRating != nil {
		return pgx.ErrNoRows
	}
	at := testNow
	stored.FeedbackRating = &rating
	stored.FeedbackComment = comment
	stored.FeedbackAt = &at
	stored.UpdatedAt = testNow
	complaint.FeedbackRating = &rating
	complaint.FeedbackComment = comment
	complaint.FeedbackAt = &at
	complaint.UpdatedAt = testNow
	return nil
}

func (m *mockComplaintRepository) DeleteResolved(_ context.Context, id string) error {
	stored, ok := m.complaints[id]
	if !ok || stored.Status != domain.ComplaintStatusResolved {
		return pgx.ErrNoRows
	}
	delete(m.complaints, id)
	return nil
}

func (m *mockComplaintRepository) Stats(_ context.Context, hostelID *string) (*repository.ComplaintStats, error) {
	stats := &repository.ComplaintStats{
		ByStatus:   make(map[domain.ComplaintStatus]int64),
		ByLevel:    make(map[domain.EscalationLevel]int64),
		ByCategory: make(map[domain.IssueCategory]int64),
	}
	for _, stored := range m.complaints {
		if hostelID != nil && stored.HostelID != *hostelID {
			continue
		}
		stats.Total++
		stats.ByStatus[stored.Status]++
		stats.ByLevel[stored.Level]++
		stats.ByCategory[stored.Category]++
	}
	return stats, nil
}

type mockStudentRepository struct {
	students map[string]*domain.Student
}

func newMockStudentRepository() *mockStudentRepository {
	return &mockStudentRepository{students: make(map[string]*domain.Student)}
}

func (m *mockStudentRepository) seed(s *domain.Student) *domain.Student {
	m.students[s.ID] = s
	return s
}

func (m *mockStudentRepository) Create(_ context.Context, student *domain.Student) error {
	if student.ID == "" {
		student.ID = fmt.Sprintf("s-%03d", len(m.students)+1)
	}
	student.CreatedAt = testNow
	student.UpdatedAt = testNow
	m.students[student.ID] = student
	return nil
}

func (m *mockStudentRepository) Update(_ context.Context, student *domain.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return pgx.ErrNoRows
	}
	student.UpdatedAt = testNow
	m.students[student.ID] = student
	return nil
}

func (m *mockStudentRepository) GetByID(_ context.Context, id string) (*domain.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return student, nil
}

func (m *mockStudentRepository) GetByEmail(_ context.Context, email string) (*domain.Student, error) {
	for _, student := range m.students {
		if student.Email == email {
			return student, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockStudentRepository) GetByRollNumber(_ context.Context, rollNumber string) (*domain.Student, error) {
	for _, student := range m.students {
		if student.RollNumber == rollNumber {
			return student, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type mockHostelRepository struct {
	hostels map[string]*domain.Hostel
}

func newMockHostelRepository() *mockHostelRepository {
	return &mockHostelRepository{hostels: make(map[string]*domain.Hostel)}
}

func (m *mockHostelRepository) seed(h *domain.Hostel) *domain.Hostel {
	m.hostels[h.ID] = h
	return h
}

func (m *mockHostelRepository) Create(_ context.Context, hostel *domain.Hostel) error {
	if hostel.ID == "" {
		hostel.ID = fmt.Sprintf("h-%03d", len(m.hostels)+1)
	}
	hostel.CreatedAt = testNow
	hostel.UpdatedAt = testNow
	m.hostels[hostel.ID] = hostel
	return nil
}

func (m *mockHostelRepository) Update(_ context.Context, hostel *domain.Hostel) error {
	if _, ok := m.hostels[hostel.ID]; !ok {
		return pgx.ErrNoRows
	}
	hostel.UpdatedAt = testNow
	m.hostels[hostel.ID] = hostel
	return nil
}

func (m *mockHostelRepository) GetByID(_ context.Context, id string) (*domain.Hostel, error) {
	hostel, ok := m.hostels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return hostel, nil
}

func (m *mockHostelRepository) GetByCode(_ context.Context, code string) (*domain.Hostel, error) {
	for _, hostel := range m.hostels {
		if hostel.Code == code {
			return hostel, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockHostelRepository) List(_ context.Context, includeInactive bool) ([]domain.Hostel, error) {
	var out []domain.Hostel
	for _, hostel := range m.hostels {
		if !includeInactive && !hostel.IsActive {
			continue
		}
		out = append(out, *hostel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type mockStaffRepository struct {
	staff map[string]*domain.StaffMember
}

func newMockStaffRepository() *mockStaffRepository {
	return &mockStaffRepository{staff: make(map[string]*domain.StaffMember)}
}

func (m *mockStaffRepository) seed(s *domain.StaffMember) *domain.StaffMember {
	m.staff[s.ID] = s
	return s
}

func (m *mockStaffRepository) Create(_ context.Context, staff *domain.StaffMember) error {
	if staff.ID == "" {
		staff.ID = fmt.Sprintf("st-%03d", len(m.staff)+1)
	}
	staff.CreatedAt = testNow
	staff.UpdatedAt = testNow
	m.staff[staff.ID] = staff
	return nil
}

func (m *mockStaffRepository) Update(_ context.Context, staff *domain.StaffMember) error {
	if _, ok := m.staff[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	staff.UpdatedAt = testNow
	m.staff[staff.ID] = staff
	return nil
}

func (m *mockStaffRepository) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	staff, ok := m.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return staff, nil
}

func (m *mockStaffRepository) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	for _, staff := range m.staff {
		if staff.Email == email {
			return staff, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockStaffRepository) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	var out []domain.StaffMember
	for _, staff := range m.staff {
		if filter.Role != nil && staff.Role != *filter.Role {
			continue
		}
		if filter.HostelID != nil && (staff.HostelID == nil || *staff.HostelID != *filter.HostelID) {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		out = append(out, *staff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockPasswordResetRepository struct {
	tokens map[string]*repository.PasswordResetToken
}

func newMockPasswordResetRepository() *mockPasswordResetRepository {
	return &mockPasswordResetRepository{tokens: make(map[string]*repository.PasswordResetToken)}
}

func (m *mockPasswordResetRepository) Create(_ context.Context, token *repository.PasswordResetToken) error {
	token.ID = fmt.Sprintf("prt-%03d", len(m.tokens)+1)
	token.CreatedAt = testNow
	m.tokens[token.Token] = token
	return nil
}

func (m *mockPasswordResetRepository) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	token, ok := m.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return token, nil
}

func (m *mockPasswordResetRepository) MarkUsed(_ context.Context, id string) error {
	for _, token := range m.tokens {
		if token.ID == id {
			at := testNow
			token.UsedAt = &at
			return nil
		}
	}
	return pgx.ErrNoRows
}

type mockHistoryRepository struct {
	entries []domain.ComplaintHistory
}

func newMockHistoryRepository() *mockHistoryRepository {
	return &mockHistoryRepository{}
}

func (m *mockHistoryRepository) Create(_ context.Context, history *domain.ComplaintHistory) error {
	history.ID = fmt.Sprintf("hist-%03d", len(m.entries)+1)
	history.CreatedAt = testNow
	m.entries = append(m.entries, *history)
	return nil
}

func (m *mockHistoryRepository) ListByComplaint(_ context.Context, complaintID string) ([]domain.ComplaintHistory, error) {
	var out []domain.ComplaintHistory
	for _, entry := range m.entries {
		if entry.ComplaintID == complaintID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *mockHistoryRepository) byType(changeType domain.ComplaintChangeType) []domain.ComplaintHistory {
	var out []domain.ComplaintHistory
	for _, entry := range m.entries {
		if entry.ChangeType == changeType {
			out = append(out, entry)
		}
	}
	return out
}

type captureDispatcher struct {
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type complaintFixture struct {
	complaints *mockComplaintRepository
	students   *mockStudentRepository
	hostels    *mockHostelRepository
	history    *mockHistoryRepository
	dispatcher *captureDispatcher
	metrics    *observability.Metrics
}

func newTestComplaintService() (*service.ComplaintService, *complaintFixture) {
	fixture := &complaintFixture{
		complaints: newMockComplaintRepository(),
		students:   newMockStudentRepository(),
		hostels:    newMockHostelRepository(),
		history:    newMockHistoryRepository(),
		dispatcher: &captureDispatcher{},
		metrics:    observability.NewMetrics(),
	}
	svc := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: fixture.complaints,
		StudentRepo:   fixture.students,
		HostelRepo:    fixture.hostels,
		HistoryRepo:   fixture.history,
		Engine:        escalation.NewEngine(nil, 0),
		Dispatcher:    fixture.dispatcher,
		Metrics:       fixture.metrics,
		Logger:        zap.NewNop(),
		Now:           func() time.Time { return testNow },
	})
	return svc, fixture
}

func seedStudent(fixture *complaintFixture) *domain.Student {
	fixture.hostels.seed(&domain.Hostel{ID: "h-1", Name: "Aravali", Code: "ARV", WardenName: "Dr. Meena Iyer", IsActive: true})
	return fixture.students.seed(&domain.Student{
		ID:         "s-1",
		Name:       "Arjun Patel",
		Email:      "arjun.patel@example.edu",
		RollNumber: "2023BCS042",
		HostelID:   "h-1",
		RoomNumber: "B-214",
		Status:     domain.StudentStatusActive,
	})
}

func seedComplaint(fixture *complaintFixture, level domain.EscalationLevel, status domain.ComplaintStatus, createdAt time.Time) *domain.Complaint {
	return fixture.complaints.seed(&domain.Complaint{
		ExternalKey:         "CMP-AB12CD34",
		StudentID:           "s-1",
		HostelID:            "h-1",
		RoomNumber:          "B-214",
		Category:            domain.CategoryElectricity,
		Description:         "ceiling fan sparks when switched on",
		Severity:            domain.SeverityNormal,
		Level:               level,
		Status:              status,
		AssignedWorkerName:  "Ramesh Yadav",
		AssignedWorkerPhone: "+91-9876100001",
		CreatedAt:           createdAt,
	})
}

func adminStaff() *domain.StaffMember {
	return &domain.StaffMember{ID: "st-admin", Name: "Priya Nair", Role: domain.StaffRoleAdmin, Active: true}
}

func wardenStaff(hostelID *string) *domain.StaffMember {
	return &domain.StaffMember{ID: "st-warden", Name: "Rakesh Menon", Role: domain.StaffRoleWarden, HostelID: hostelID, Active: true}
}

type authFixture struct {
	students *mockStudentRepository
	staff    *mockStaffRepository
	hostels  *mockHostelRepository
	resets   *mockPasswordResetRepository
}

func newTestAuthService() (*service.AuthService, *authFixture) {
	fixture := &authFixture{
		students: newMockStudentRepository(),
		staff:    newMockStaffRepository(),
		hostels:  newMockHostelRepository(),
		resets:   newMockPasswordResetRepository(),
	}
	cfg := config.Config{}
	cfg.Auth = config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTLMinutes:   60,
		PasswordResetTTLMinutes: 30,
		BcryptCost:              bcrypt.MinCost,
	}
	svc := service.NewAuthService(cfg, service.AuthDependencies{
		StudentRepo:       fixture.students,
		StaffRepo:         fixture.staff,
		HostelRepo:        fixture.hostels,
		PasswordResetRepo: fixture.resets,
		Denylist:          auth.NewTokenDenylist(nil),
	})
	return svc, fixture
}

func mustHash(password string) string {
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hash
}
