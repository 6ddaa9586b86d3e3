package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/escalation"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ComplaintService coordinates the complaint lifecycle.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	students   repository.StudentRepository
	hostels    repository.HostelRepository
	history    repository.ComplaintHistoryRepository
	engine     *escalation.Engine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	StudentRepo   repository.StudentRepository
	HostelRepo    repository.HostelRepository
	HistoryRepo   repository.ComplaintHistoryRepository
	Engine        *escalation.Engine
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Now           func() time.Time
}

// ComplaintCreateInput describes complaint creation payload. Hostel and room
// default to the reporting student's residence.
type ComplaintCreateInput struct {
	HostelID       *string
	RoomNumber     *string
	Category       domain.IssueCategory
	CategoryDetail *string
	Description    string
	Severity       domain.Severity
}

// ComplaintUserFilter describes student listing filters.
type ComplaintUserFilter struct {
	Statuses    []domain.ComplaintStatus
	Levels      []domain.EscalationLevel
	Categories  []domain.IssueCategory
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ComplaintStaffFilter describes staff listing filters.
type ComplaintStaffFilter struct {
	HostelID    *string
	Statuses    []domain.ComplaintStatus
	Levels      []domain.EscalationLevel
	Categories  []domain.IssueCategory
	Severities  []domain.Severity
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		students:   deps.StudentRepo,
		hostels:    deps.HostelRepo,
		history:    deps.HistoryRepo,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        now,
	}
}

// CreateComplaint files a complaint for a student. The engine picks the first
// responder from the category roster, so new complaints always start at
// LEVEL_1 in ASSIGNED.
func (s *ComplaintService) CreateComplaint(ctx context.Context, student *domain.Student, input ComplaintCreateInput) (*domain.Complaint, error) {
	if student == nil {
		return nil, errors.New("student required")
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown issue category", map[string]any{"category": input.Category})
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	severity := input.Severity
	if severity == "" {
		severity = domain.SeverityNormal
	}
	if !severity.Valid() {
		return nil, apperrors.NewValidationError("unknown severity", map[string]any{"severity": input.Severity})
	}

	var detail *string
	if input.Category == domain.CategoryOther {
		if input.CategoryDetail == nil || strings.TrimSpace(*input.CategoryDetail) == "" {
			return nil, apperrors.NewValidationError("category detail required for OTHER", nil)
		}
		trimmed := strings.TrimSpace(*input.CategoryDetail)
		detail = &trimmed
	}

	hostelID := student.HostelID
	if input.HostelID != nil {
		hostelID = *input.HostelID
	}
	hostel, err := s.hostels.GetByID(ctx, hostelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("hostel", map[string]any{"hostel_id": hostelID})
		}
		return nil, err
	}
	if !hostel.IsActive {
		return nil, apperrors.NewConflict("hostel inactive", map[string]any{"hostel_id": hostelID})
	}

	roomNumber := student.RoomNumber
	if input.RoomNumber != nil && strings.TrimSpace(*input.RoomNumber) != "" {
		roomNumber = strings.TrimSpace(*input.RoomNumber)
	}

	worker := s.engine.AssignInitial(input.Category)
	complaint := &domain.Complaint{
		ExternalKey:         generateComplaintKey(),
		StudentID:           student.ID,
		HostelID:            hostel.ID,
		RoomNumber:          roomNumber,
		Category:            input.Category,
		CategoryDetail:      detail,
		Description:         description,
		Severity:            severity,
		Level:               domain.LevelOne,
		Status:              domain.ComplaintStatusAssigned,
		AssignedWorkerName:  worker.Name,
		AssignedWorkerPhone: worker.Phone,
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, err
	}
	if err := s.recordCreated(ctx, complaint); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       studentActor(student.ID),
		Payload: events.ComplaintCreatedPayload{
			ExternalKey: complaint.ExternalKey,
			HostelID:    complaint.HostelID,
			Category:    complaint.Category,
			Severity:    complaint.Severity,
			WorkerName:  complaint.AssignedWorkerName,
		},
	})
	return complaint, nil
}

// ListStudentComplaints returns the student's complaints, freshly swept.
func (s *ComplaintService) ListStudentComplaints(ctx context.Context, studentID string, filter ComplaintUserFilter) ([]domain.Complaint, error) {
	repoFilter := repository.ComplaintFilter{
		StudentID:   &studentID,
		Statuses:    filter.Statuses,
		Levels:      filter.Levels,
		Categories:  filter.Categories,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	complaints, err := s.complaints.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	s.sweep(ctx, complaints)
	return complaints, nil
}

// GetComplaintForStudent fetches a complaint ensuring ownership.
func (s *ComplaintService) GetComplaintForStudent(ctx context.Context, studentID, ref string) (*domain.Complaint, []domain.ComplaintHistory, error) {
	complaint, err := s.getByRef(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if complaint.StudentID != studentID {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	s.sweepOne(ctx, complaint)
	entries, err := s.history.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, nil, err
	}
	return complaint, entries, nil
}

// ListStaffComplaints returns complaints within the staff member's hostel
// scope, freshly swept.
func (s *ComplaintService) ListStaffComplaints(ctx context.Context, staff *domain.StaffMember, filter ComplaintStaffFilter) ([]domain.Complaint, error) {
	if staff == nil {
		return nil, errors.New("staff required")
	}
	repoFilter := repository.ComplaintFilter{
		HostelID:    filter.HostelID,
		Statuses:    filter.Statuses,
		Levels:      filter.Levels,
		Categories:  filter.Categories,
		Severities:  filter.Severities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	s.applyStaffScope(&repoFilter, staff)
	complaints, err := s.complaints.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	s.sweep(ctx, complaints)
	return complaints, nil
}

// GetComplaintForStaff fetches a complaint ensuring hostel scope.
func (s *ComplaintService) GetComplaintForStaff(ctx context.Context, staff *domain.StaffMember, ref string) (*domain.Complaint, []domain.ComplaintHistory, error) {
	complaint, err := s.getByRef(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if !s.staffCanAccessComplaint(staff, complaint) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	s.sweepOne(ctx, complaint)
	entries, err := s.history.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, nil, err
	}
	return complaint, entries, nil
}

// EscalateComplaint moves a complaint one level up on behalf of staff. At
// LEVEL_4 it returns the unchanged complaint with the max-level outcome.
func (s *ComplaintService) EscalateComplaint(ctx context.Context, staff *domain.StaffMember, ref string) (*domain.Complaint, escalation.Result, error) {
	if staff == nil {
		return nil, escalation.Result{}, errors.New("staff required")
	}
	complaint, err := s.getByRef(ctx, ref)
	if err != nil {
		return nil, escalation.Result{}, err
	}
	if !s.staffCanAccessComplaint(staff, complaint) {
		return nil, escalation.Result{}, apperrors.NewForbidden("access denied")
	}

	result, err := s.engine.Escalate(complaint)
	if err != nil {
		if errors.Is(err, escalation.ErrResolved) {
			return nil, escalation.Result{}, apperrors.NewConflict("complaint already resolved", map[string]any{"complaint_id": complaint.ID})
		}
		return nil, escalation.Result{}, err
	}
	if !result.Changed() {
		return complaint, result, nil
	}

	oldLevel := complaint.Level
	if err := s.persistEscalation(ctx, complaint, result, domain.ActorTypeStaff, &staff.ID); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, escalation.Result{}, apperrors.NewConflict("complaint was escalated concurrently", map[string]any{"complaint_id": complaint.ID})
		}
		return nil, escalation.Result{}, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintEscalated,
		ComplaintID: complaint.ID,
		Actor:       staffActor(staff.ID),
		Payload: events.ComplaintEscalatedPayload{
			OldLevel:    oldLevel,
			NewLevel:    complaint.Level,
			WorkerName:  complaint.AssignedWorkerName,
			WorkerPhone: complaint.AssignedWorkerPhone,
			Automatic:   false,
		},
	})
	return complaint, result, nil
}

// ResolveComplaint marks a complaint resolved. Legal from any state;
// resolving twice is a no-op success.
func (s *ComplaintService) ResolveComplaint(ctx context.Context, staff *domain.StaffMember, ref string) (*domain.Complaint, error) {
	if staff == nil {
		return nil, errors.New("staff required")
	}
	complaint, err := s.getByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !s.staffCanAccessComplaint(staff, complaint) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if complaint.Resolved() {
		return complaint, nil
	}

	oldStatus := complaint.Status
	if err := s.complaints.MarkResolved(ctx, complaint); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost a race against another resolver; still a success
			return s.getByRef(ctx, complaint.ID)
		}
		return nil, err
	}
	if err := s.recordStatusChange(ctx, domain.ActorTypeStaff, &staff.ID, complaint.ID, oldStatus, domain.ComplaintStatusResolved); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintResolved,
		ComplaintID: complaint.ID,
		Actor:       staffActor(staff.ID),
		Payload:     events.ComplaintResolvedPayload{Level: complaint.Level},
	})
	return complaint, nil
}

// SubmitFeedback stores the reporter's one-time rating on a resolved
// complaint.
func (s *ComplaintService) SubmitFeedback(ctx context.Context, student *domain.Student, ref string, rating int, comment *string) (*domain.Complaint, error) {
	if student == nil {
		return nil, errors.New("student required")
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	complaint, err := s.getByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if complaint.StudentID != student.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !complaint.Resolved() {
		return nil, apperrors.NewConflict("feedback requires a resolved complaint", map[string]any{"status": complaint.Status})
	}
	if complaint.FeedbackRating != nil {
		return nil, apperrors.NewConflict("feedback already submitted", nil)
	}

	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if trimmed == "" {
			comment = nil
		} else {
			comment = &trimmed
		}
	}
	if err := s.complaints.SetFeedback(ctx, complaint, rating, comment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("feedback already submitted", nil)
		}
		return nil, err
	}
	if err := s.recordFeedback(ctx, student.ID, complaint.ID, rating, comment); err != nil {
		return nil, err
	}
	payload := events.FeedbackSubmittedPayload{Rating: rating}
	if comment != nil {
		payload.Comment = *comment
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventFeedbackSubmitted,
		ComplaintID: complaint.ID,
		Actor:       studentActor(student.ID),
		Payload:     payload,
	})
	return complaint, nil
}

// DeleteComplaint removes a resolved complaint. Admin only.
func (s *ComplaintService) DeleteComplaint(ctx context.Context, actor *domain.StaffMember, ref string) error {
	if actor == nil || actor.Role != domain.StaffRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	complaint, err := s.getByRef(ctx, ref)
	if err != nil {
		return err
	}
	if !complaint.Resolved() {
		return apperrors.NewConflict("only resolved complaints can be deleted", map[string]any{"status": complaint.Status})
	}
	if err := s.complaints.DeleteResolved(ctx, complaint.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaint.ID})
		}
		return err
	}
	return nil
}

// sweep applies due auto-escalations to every fetched row. Reads are the only
// trigger; there is no background scheduler, so a complaint past the deadline
// moves the first time anyone looks at it.
func (s *ComplaintService) sweep(ctx context.Context, complaints []domain.Complaint) {
	for i := range complaints {
		s.sweepOne(ctx, &complaints[i])
	}
}

func (s *ComplaintService) sweepOne(ctx context.Context, complaint *domain.Complaint) {
	result, err := s.engine.CheckAuto(complaint, s.now())
	if err != nil || !result.Changed() {
		return
	}
	oldLevel := complaint.Level
	if err := s.persistEscalation(ctx, complaint, result, domain.ActorTypeSystem, nil); err != nil {
		// a concurrent writer or a storage hiccup; the next read re-checks
		if !errors.Is(err, repository.ErrVersionConflict) && s.logger != nil {
			s.logger.Warn("auto-escalation not persisted", zap.String("complaint_id", complaint.ID), zap.Error(err))
		}
		if fresh, fetchErr := s.complaints.GetByID(ctx, complaint.ID); fetchErr == nil {
			*complaint = *fresh
		}
		return
	}
	s.metrics.RecordAutoEscalation()
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintAutoEscalated,
		ComplaintID: complaint.ID,
		Actor:       systemActor(),
		Payload: events.ComplaintEscalatedPayload{
			OldLevel:    oldLevel,
			NewLevel:    complaint.Level,
			WorkerName:  complaint.AssignedWorkerName,
			WorkerPhone: complaint.AssignedWorkerPhone,
			Automatic:   true,
		},
	})
}

// persistEscalation applies the delta in memory, stores it with the
// optimistic level guard, and records history.
func (s *ComplaintService) persistEscalation(ctx context.Context, complaint *domain.Complaint, result escalation.Result, actorType domain.ActorType, actorID *string) error {
	prev := *complaint
	result.Apply(complaint)

	if err := s.complaints.UpdateEscalation(ctx, complaint, prev.Level); err != nil {
		*complaint = prev
		return err
	}
	if err := s.recordEscalation(ctx, actorType, actorID, complaint, prev.Level, prev.Status, prev.AssignedWorkerName); err != nil {
		if actorType == domain.ActorTypeSystem {
			if s.logger != nil {
				s.logger.Warn("history entry not recorded", zap.String("complaint_id", complaint.ID), zap.Error(err))
			}
			return nil
		}
		return err
	}
	return nil
}

func (s *ComplaintService) applyStaffScope(filter *repository.ComplaintFilter, staff *domain.StaffMember) {
	if staff.Role == domain.StaffRoleAdmin {
		return
	}
	if staff.HostelID != nil {
		filter.HostelID = staff.HostelID
	}
}

func (s *ComplaintService) staffCanAccessComplaint(staff *domain.StaffMember, complaint *domain.Complaint) bool {
	if staff == nil {
		return false
	}
	if staff.Role == domain.StaffRoleAdmin {
		return true
	}
	if staff.HostelID == nil {
		return true
	}
	return *staff.HostelID == complaint.HostelID
}

// getByRef accepts either the internal id or the human-readable CMP- key.
func (s *ComplaintService) getByRef(ctx context.Context, ref string) (*domain.Complaint, error) {
	var (
		complaint *domain.Complaint
		err       error
	)
	if strings.HasPrefix(ref, "CMP-") {
		complaint, err = s.complaints.GetByExternalKey(ctx, ref)
	} else {
		complaint, err = s.complaints.GetByID(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"ref": ref})
		}
		return nil, err
	}
	return complaint, nil
}

func generateComplaintKey() string {
	return "CMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func studentActor(studentID string) events.Actor {
	return events.Actor{
		Type:      domain.ActorTypeStudent,
		StudentID: &studentID,
	}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{
		Type:    domain.ActorTypeStaff,
		StaffID: &staffID,
	}
}

func systemActor() events.Actor {
	return events.Actor{Type: domain.ActorTypeSystem}
}

func (s *ComplaintService) recordCreated(ctx context.Context, complaint *domain.Complaint) error {
	if s.history == nil {
		return nil
	}
	studentID := complaint.StudentID
	entry := &domain.ComplaintHistory{
		ComplaintID:   complaint.ID,
		ChangedByType: domain.ActorTypeStudent,
		ChangedByID:   &studentID,
		ChangeType:    domain.ChangeTypeCreated,
		NewValue: map[string]any{
			"status": complaint.Status,
			"level":  complaint.Level,
			"worker": complaint.AssignedWorkerName,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *ComplaintService) recordEscalation(ctx context.Context, actorType domain.ActorType, actorID *string, complaint *domain.Complaint, oldLevel domain.EscalationLevel, oldStatus domain.ComplaintStatus, oldWorker string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.ComplaintHistory{
		ComplaintID:   complaint.ID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeLevel,
		OldValue: map[string]any{
			"level":  oldLevel,
			"status": oldStatus,
			"worker": oldWorker,
		},
		NewValue: map[string]any{
			"level":  complaint.Level,
			"status": complaint.Status,
			"worker": complaint.AssignedWorkerName,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *ComplaintService) recordStatusChange(ctx context.Context, actorType domain.ActorType, actorID *string, complaintID string, oldStatus, newStatus domain.ComplaintStatus) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.ComplaintHistory{
		ComplaintID:   complaintID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status": newStatus,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *ComplaintService) recordFeedback(ctx context.Context, studentID, complaintID string, rating int, comment *string) error {
	if s.history == nil {
		return nil
	}
	newValue := map[string]any{
		"rating": rating,
	}
	if comment != nil {
		newValue["comment"] = *comment
	}
	entry := &domain.ComplaintHistory{
		ComplaintID:   complaintID,
		ChangedByType: domain.ActorTypeStudent,
		ChangedByID:   &studentID,
		ChangeType:    domain.ChangeTypeFeedback,
		NewValue:      newValue,
	}
	return s.history.Create(ctx, entry)
}
