package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// StaffService manages hostels and staff accounts.
type StaffService struct {
	hostels    repository.HostelRepository
	staff      repository.StaffRepository
	bcryptCost int
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role     *domain.StaffRole
	HostelID *string
	Active   *bool
	Limit    int
	Offset   int
}

// OrgDependencies encapsulates repositories required for hostel and staff
// management.
type OrgDependencies struct {
	HostelRepo repository.HostelRepository
	StaffRepo  repository.StaffRepository
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps OrgDependencies) *StaffService {
	return &StaffService{
		hostels:    deps.HostelRepo,
		staff:      deps.StaffRepo,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.StaffMember) error {
	if actor == nil || actor.Role != domain.StaffRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateHostel registers a new residence block.
func (s *StaffService) CreateHostel(ctx context.Context, actor *domain.StaffMember, name, code, wardenName string) (*domain.Hostel, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if strings.TrimSpace(name) == "" || code == "" {
		return nil, apperrors.NewValidationError("hostel name and code are required", nil)
	}
	if _, err := s.hostels.GetByCode(ctx, code); err == nil {
		return nil, apperrors.NewConflict("hostel code already exists", map[string]any{"code": code})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	hostel := &domain.Hostel{
		Name:       strings.TrimSpace(name),
		Code:       code,
		WardenName: strings.TrimSpace(wardenName),
		IsActive:   true,
	}
	if err := s.hostels.Create(ctx, hostel); err != nil {
		return nil, apperrors.MapError(err)
	}
	return hostel, nil
}

// ListHostels returns hostels. Open to any staff; students see it through
// the public endpoint at registration time.
func (s *StaffService) ListHostels(ctx context.Context, includeInactive bool) ([]domain.Hostel, error) {
	return s.hostels.List(ctx, includeInactive)
}

// GetHostelByID fetches a hostel.
func (s *StaffService) GetHostelByID(ctx context.Context, id string) (*domain.Hostel, error) {
	hostel, err := s.hostels.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return hostel, nil
}

// UpdateHostel modifies hostel metadata.
func (s *StaffService) UpdateHostel(ctx context.Context, actor *domain.StaffMember, hostel *domain.Hostel) (*domain.Hostel, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.hostels.Update(ctx, hostel); err != nil {
		return nil, apperrors.MapError(err)
	}
	return hostel, nil
}

// CreateStaffMember adds a new staff account, optionally scoped to one hostel.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, name, email, phone, password string, role domain.StaffRole, hostelID *string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown staff role", map[string]any{"role": role})
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hostelID, err := s.resolveHostelScope(ctx, hostelID)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		Name:         strings.TrimSpace(name),
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		Role:         role,
		HostelID:     hostelID,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaffMembers lists staff with filters.
func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.StaffFilter{
		Role:     filters.Role,
		HostelID: filters.HostelID,
		Active:   filters.Active,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}
	return s.staff.List(ctx, repoFilter)
}

// GetStaffMemberByID fetches staff.
func (s *StaffService) GetStaffMemberByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// UpdateStaffMember updates staff details.
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID, name, email, phone string, role domain.StaffRole, hostelID *string, active bool) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown staff role", map[string]any{"role": role})
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && email != staff.Email {
		if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing != nil && existing.ID != staff.ID {
			return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		staff.Email = email
	}

	hostelID, err = s.resolveHostelScope(ctx, hostelID)
	if err != nil {
		return nil, err
	}

	staff.Name = strings.TrimSpace(name)
	staff.Phone = strings.TrimSpace(phone)
	staff.Role = role
	staff.HostelID = hostelID
	staff.Active = active

	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// resolveHostelScope validates the target hostel when a scope is given.
// A nil scope means the staff member covers every hostel.
func (s *StaffService) resolveHostelScope(ctx context.Context, hostelID *string) (*string, error) {
	if hostelID == nil || *hostelID == "" {
		return nil, nil
	}
	hostel, err := s.hostels.GetByID(ctx, *hostelID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !hostel.IsActive {
		return nil, apperrors.NewConflict("hostel inactive", map[string]any{"hostel_id": *hostelID})
	}
	return &hostel.ID, nil
}
