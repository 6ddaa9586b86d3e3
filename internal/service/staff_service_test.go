package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

type orgFixture struct {
	hostels *mockHostelRepository
	staff   *mockStaffRepository
}

func newTestStaffService() (*service.StaffService, *orgFixture) {
	fixture := &orgFixture{
		hostels: newMockHostelRepository(),
		staff:   newMockStaffRepository(),
	}
	cfg := config.Config{}
	cfg.Auth.BcryptCost = bcrypt.MinCost
	svc := service.NewStaffService(cfg, service.OrgDependencies{
		HostelRepo: fixture.hostels,
		StaffRepo:  fixture.staff,
	})
	return svc, fixture
}

func TestCreateHostelAdminOnly(t *testing.T) {
	svc, _ := newTestStaffService()

	hostelID := "h-1"
	_, err := svc.CreateHostel(context.Background(), wardenStaff(&hostelID), "Aravali", "arv", "Dr. Meena Iyer")
	assertDomainErrorCode(t, err, "FORBIDDEN")

	hostel, err := svc.CreateHostel(context.Background(), adminStaff(), "Aravali", "arv", "Dr. Meena Iyer")
	require.NoError(t, err)
	assert.Equal(t, "ARV", hostel.Code)
	assert.True(t, hostel.IsActive)

	_, err = svc.CreateHostel(context.Background(), adminStaff(), "Aravali Annexe", "ARV", "")
	assertDomainErrorCode(t, err, "CONFLICT")

	_, err = svc.CreateHostel(context.Background(), adminStaff(), "  ", "NEW", "")
	assertDomainErrorCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateHostelDeactivates(t *testing.T) {
	svc, fixture := newTestStaffService()
	hostel := fixture.hostels.seed(&domain.Hostel{ID: "h-1", Name: "Aravali", Code: "ARV", IsActive: true})

	hostel.IsActive = false
	updated, err := svc.UpdateHostel(context.Background(), adminStaff(), hostel)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = svc.UpdateHostel(context.Background(), nil, hostel)
	assertDomainErrorCode(t, err, "FORBIDDEN")
}

func TestCreateStaffMemberResolvesHostelScope(t *testing.T) {
	svc, fixture := newTestStaffService()
	fixture.hostels.seed(&domain.Hostel{ID: "h-1", Name: "Aravali", Code: "ARV", IsActive: true})
	fixture.hostels.seed(&domain.Hostel{ID: "h-closed", Name: "Shivalik", Code: "SHV", IsActive: false})

	scope := "h-1"
	caretaker, err := svc.CreateStaffMember(context.Background(), adminStaff(),
		"Sanjay Kumar", "Sanjay.K@Example.edu", "+91-9000000001", "pw", domain.StaffRoleCaretaker, &scope)
	require.NoError(t, err)
	assert.Equal(t, "sanjay.k@example.edu", caretaker.Email)
	require.NotNil(t, caretaker.HostelID)
	assert.Equal(t, "h-1", *caretaker.HostelID)
	assert.True(t, caretaker.Active)

	// empty scope means the member covers every hostel
	empty := ""
	admin, err := svc.CreateStaffMember(context.Background(), adminStaff(),
		"Priya Nair", "priya.n@example.edu", "", "pw", domain.StaffRoleAdmin, &empty)
	require.NoError(t, err)
	assert.Nil(t, admin.HostelID)

	closed := "h-closed"
	_, err = svc.CreateStaffMember(context.Background(), adminStaff(),
		"X", "x@example.edu", "", "pw", domain.StaffRoleCaretaker, &closed)
	assertDomainErrorCode(t, err, "CONFLICT")

	missing := "h-missing"
	_, err = svc.CreateStaffMember(context.Background(), adminStaff(),
		"X", "y@example.edu", "", "pw", domain.StaffRoleCaretaker, &missing)
	assertDomainErrorCode(t, err, "NOT_FOUND")

	_, err = svc.CreateStaffMember(context.Background(), adminStaff(),
		"X", "sanjay.k@example.edu", "", "pw", domain.StaffRoleCaretaker, nil)
	assertDomainErrorCode(t, err, "CONFLICT")

	_, err = svc.CreateStaffMember(context.Background(), adminStaff(),
		"X", "z@example.edu", "", "pw", "JANITOR", nil)
	assertDomainErrorCode(t, err, "VALIDATION_FAILED")

	_, err = svc.CreateStaffMember(context.Background(), wardenStaff(nil),
		"X", "w@example.edu", "", "pw", domain.StaffRoleCaretaker, nil)
	assertDomainErrorCode(t, err, "FORBIDDEN")
}

func TestUpdateStaffMember(t *testing.T) {
	svc, fixture := newTestStaffService()
	fixture.hostels.seed(&domain.Hostel{ID: "h-1", Name: "Aravali", Code: "ARV", IsActive: true})
	fixture.staff.seed(&domain.StaffMember{
		ID: "st-1", Name: "Sanjay Kumar", Email: "sanjay.k@example.edu",
		Role: domain.StaffRoleCaretaker, Active: true,
	})
	fixture.staff.seed(&domain.StaffMember{
		ID: "st-2", Name: "Other", Email: "other@example.edu",
		Role: domain.StaffRoleSupervisor, Active: true,
	})

	scope := "h-1"
	updated, err := svc.UpdateStaffMember(context.Background(), adminStaff(),
		"st-1", "Sanjay Kumar", "", "+91-9000000002", domain.StaffRoleSupervisor, &scope, false)
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleSupervisor, updated.Role)
	assert.False(t, updated.Active)
	require.NotNil(t, updated.HostelID)
	assert.Equal(t, "h-1", *updated.HostelID)

	_, err = svc.UpdateStaffMember(context.Background(), adminStaff(),
		"st-1", "Sanjay Kumar", "other@example.edu", "", domain.StaffRoleCaretaker, nil, true)
	assertDomainErrorCode(t, err, "CONFLICT")

	_, err = svc.UpdateStaffMember(context.Background(), adminStaff(),
		"st-missing", "X", "", "", domain.StaffRoleCaretaker, nil, true)
	assertDomainErrorCode(t, err, "NOT_FOUND")
}

func TestListStaffMembersFilters(t *testing.T) {
	svc, fixture := newTestStaffService()
	hostelID := "h-1"
	fixture.staff.seed(&domain.StaffMember{ID: "st-1", Email: "a@example.edu", Role: domain.StaffRoleCaretaker, HostelID: &hostelID, Active: true})
	fixture.staff.seed(&domain.StaffMember{ID: "st-2", Email: "b@example.edu", Role: domain.StaffRoleWarden, Active: true})
	fixture.staff.seed(&domain.StaffMember{ID: "st-3", Email: "c@example.edu", Role: domain.StaffRoleCaretaker, Active: false})

	role := domain.StaffRoleCaretaker
	listed, err := svc.ListStaffMembers(context.Background(), adminStaff(), service.StaffListFilters{Role: &role})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	active := true
	listed, err = svc.ListStaffMembers(context.Background(), adminStaff(), service.StaffListFilters{Role: &role, Active: &active})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "st-1", listed[0].ID)

	_, err = svc.ListStaffMembers(context.Background(), wardenStaff(nil), service.StaffListFilters{})
	assertDomainErrorCode(t, err, "FORBIDDEN")
}
