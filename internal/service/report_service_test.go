package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

func newTestReportService() (*service.ReportService, *mockComplaintRepository, *mockHostelRepository) {
	complaints := newMockComplaintRepository()
	hostels := newMockHostelRepository()
	svc := service.NewReportService(complaints, hostels, nil, zap.NewNop())
	return svc, complaints, hostels
}

func seedStatsComplaints(complaints *mockComplaintRepository) {
	complaints.seed(&domain.Complaint{
		ID: "c-1", HostelID: "h-1", Category: domain.CategoryElectricity,
		Level: domain.LevelOne, Status: domain.ComplaintStatusAssigned, CreatedAt: testNow,
	})
	complaints.seed(&domain.Complaint{
		ID: "c-2", HostelID: "h-1", Category: domain.CategoryPlumbing,
		Level: domain.LevelTwo, Status: domain.ComplaintStatusEscalated, CreatedAt: testNow,
	})
	complaints.seed(&domain.Complaint{
		ID: "c-3", HostelID: "h-2", Category: domain.CategoryElectricity,
		Level: domain.LevelOne, Status: domain.ComplaintStatusResolved, CreatedAt: testNow,
	})
}

func TestStatsAggregatesByScope(t *testing.T) {
	svc, complaints, _ := newTestReportService()
	seedStatsComplaints(complaints)

	stats, err := svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByCategory[domain.CategoryElectricity])
	assert.Equal(t, int64(1), stats.ByStatus[domain.ComplaintStatusResolved])

	hostel := "h-1"
	stats, err = svc.Stats(context.Background(), &hostel)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(0), stats.ByStatus[domain.ComplaintStatusResolved])
}

func TestSummaryPDFRenders(t *testing.T) {
	svc, complaints, hostels := newTestReportService()
	seedStatsComplaints(complaints)
	hostels.seed(&domain.Hostel{ID: "h-1", Name: "Aravali", Code: "ARV", IsActive: true})

	pdf, err := svc.SummaryPDF(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	hostel := "h-1"
	scoped, err := svc.SummaryPDF(context.Background(), &hostel)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(scoped[:4]))
}

func TestStatsWithoutCacheSkipsRedis(t *testing.T) {
	svc, complaints, _ := newTestReportService()
	complaints.seed(&domain.Complaint{
		ID: "c-1", HostelID: "h-1", Category: domain.CategoryMess,
		Level: domain.LevelOne, Status: domain.ComplaintStatusPending,
		CreatedAt: testNow.Add(-time.Hour),
	})

	first, err := svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	complaints.seed(&domain.Complaint{
		ID: "c-2", HostelID: "h-1", Category: domain.CategoryMess,
		Level: domain.LevelOne, Status: domain.ComplaintStatusPending,
		CreatedAt: testNow,
	})
	second, err := svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Total)
	assert.Equal(t, int64(2), second.Total)
}
