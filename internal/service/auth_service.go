package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// AuthSubject identifies the caller when changing password.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// RegisterStudentInput carries the registration payload.
type RegisterStudentInput struct {
	Name       string
	Email      string
	RollNumber string
	HostelID   string
	RoomNumber string
	Password   string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	students   repository.StudentRepository
	staff      repository.StaffRepository
	hostels    repository.HostelRepository
	resets     repository.PasswordResetRepository
	denylist   *auth.TokenDenylist
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	StudentRepo       repository.StudentRepository
	StaffRepo         repository.StaffRepository
	HostelRepo        repository.HostelRepository
	PasswordResetRepo repository.PasswordResetRepository
	Denylist          *auth.TokenDenylist
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		students:   deps.StudentRepo,
		staff:      deps.StaffRepo,
		hostels:    deps.HostelRepo,
		resets:     deps.PasswordResetRepo,
		denylist:   deps.Denylist,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterStudent creates a new resident account bound to a hostel room.
func (s *AuthService) RegisterStudent(ctx context.Context, input RegisterStudentInput) (*domain.Student, string, time.Time, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	rollNumber := strings.ToUpper(strings.TrimSpace(input.RollNumber))
	if email == "" || rollNumber == "" || strings.TrimSpace(input.Password) == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email, roll number and password are required", nil)
	}

	if _, err := s.students.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}
	if _, err := s.students.GetByRollNumber(ctx, rollNumber); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("roll number already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hostel, err := s.hostels.GetByID(ctx, input.HostelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewNotFound("hostel", map[string]any{"hostel_id": input.HostelID})
		}
		return nil, "", time.Time{}, err
	}
	if !hostel.IsActive {
		return nil, "", time.Time{}, apperrors.NewConflict("hostel inactive", map[string]any{"hostel_id": input.HostelID})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	student := &domain.Student{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		RollNumber:   rollNumber,
		HostelID:     hostel.ID,
		RoomNumber:   strings.TrimSpace(input.RoomNumber),
		PasswordHash: hash,
		Status:       domain.StudentStatusActive,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(student.ID, domain.SubjectTypeStudent, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return student, token, exp, nil
}

// LoginStudent authenticates a resident by email or roll number.
func (s *AuthService) LoginStudent(ctx context.Context, identifier, password string) (*domain.Student, string, time.Time, error) {
	identifier = strings.TrimSpace(identifier)
	var (
		student *domain.Student
		err     error
	)
	if strings.Contains(identifier, "@") {
		student, err = s.students.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		student, err = s.students.GetByRollNumber(ctx, strings.ToUpper(identifier))
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if student.Status != domain.StudentStatusActive {
		return nil, "", time.Time{}, apperrors.NewForbidden("account suspended")
	}
	if err := auth.ComparePassword(student.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(student.ID, domain.SubjectTypeStudent, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return student, token, exp, nil
}

// LoginStaff authenticates staff and returns role-bearing token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffMember, string, time.Time, error) {
	staff, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !staff.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("staff inactive")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(staff.ID, domain.SubjectTypeStaff, &staff.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return staff, token, exp, nil
}

// Logout revokes the presented token for the rest of its lifetime. Tokens that
// no longer parse have nothing left to revoke.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil
	}
	expiresAt := time.Now().Add(s.tokenMgr.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.denylist.Add(ctx, token, expiresAt)
}

// RequestPasswordReset persists a reset token for either student or staff email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	subjectType := domain.SubjectTypeStudent
	subjectID := ""

	if student, err := s.students.GetByEmail(ctx, email); err == nil {
		subjectID = student.ID
	} else if errors.Is(err, pgx.ErrNoRows) {
		staff, staffErr := s.staff.GetByEmail(ctx, email)
		if staffErr != nil {
			if errors.Is(staffErr, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("account", nil)
			}
			return nil, staffErr
		}
		subjectType = domain.SubjectTypeStaff
		subjectID = staff.ID
	} else {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid reset token")
		}
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch domain.SubjectType(token.SubjectType) {
	case domain.SubjectTypeStudent:
		student, err := s.students.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		student.PasswordHash = hash
		if err := s.students.Update(ctx, student); err != nil {
			return err
		}
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		staff.PasswordHash = hash
		if err := s.staff.Update(ctx, staff); err != nil {
			return err
		}
	default:
		return errors.New("unknown subject type")
	}

	return s.resets.MarkUsed(ctx, token.ID)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch subject.Type {
	case domain.SubjectTypeStudent:
		student, err := s.students.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(student.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		student.PasswordHash = hash
		return s.students.Update(ctx, student)
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(staff.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		staff.PasswordHash = hash
		return s.staff.Update(ctx, staff)
	default:
		return errors.New("unknown subject")
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
