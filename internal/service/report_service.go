package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

const (
	statsCachePrefix = "stats:complaints:"
	statsCacheTTL    = 60 * time.Second
)

// ReportService aggregates complaint statistics and renders the warden's
// summary report. Stats are cached briefly in Redis since dashboards poll
// them far more often than they change.
type ReportService struct {
	complaints repository.ComplaintRepository
	hostels    repository.HostelRepository
	cache      *redis.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService constructs the service.
func NewReportService(complaints repository.ComplaintRepository, hostels repository.HostelRepository, cache *redis.Client, logger *zap.Logger) *ReportService {
	return &ReportService{
		complaints: complaints,
		hostels:    hostels,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// Stats returns aggregate counts, hitting the cache first.
func (s *ReportService) Stats(ctx context.Context, hostelID *string) (*repository.ComplaintStats, error) {
	key := statsCachePrefix + "all"
	if hostelID != nil {
		key = statsCachePrefix + *hostelID
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var stats repository.ComplaintStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.complaints.Stats(ctx, hostelID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, encoded, statsCacheTTL).Err(); err != nil {
				s.logger.Debug("stats cache not updated", zap.Error(err))
			}
		}
	}
	return stats, nil
}

// SummaryPDF renders the aggregates as a one-page PDF.
func (s *ReportService) SummaryPDF(ctx context.Context, hostelID *string) ([]byte, error) {
	stats, err := s.Stats(ctx, hostelID)
	if err != nil {
		return nil, err
	}

	scope := "All hostels"
	if hostelID != nil {
		if hostel, err := s.hostels.GetByID(ctx, *hostelID); err == nil {
			scope = fmt.Sprintf("%s (%s)", hostel.Name, hostel.Code)
		} else {
			scope = *hostelID
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Complaint Summary", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Hostel Complaint Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Scope: %s", scope))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", s.now().UTC().Format(time.RFC1123)))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Total complaints: %d", stats.Total))
	pdf.Ln(10)

	writeSection(pdf, "By status", statusRows(stats.ByStatus))
	writeSection(pdf, "By escalation level", levelRows(stats.ByLevel))
	writeSection(pdf, "By category", categoryRows(stats.ByCategory))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type reportRow struct {
	label string
	count int64
}

func writeSection(pdf *fpdf.Fpdf, title string, rows []reportRow) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	if len(rows) == 0 {
		pdf.Cell(0, 6, "none")
		pdf.Ln(8)
		return
	}
	for _, row := range rows {
		pdf.CellFormat(90, 6, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", row.count), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func statusRows(byStatus map[domain.ComplaintStatus]int64) []reportRow {
	order := []domain.ComplaintStatus{
		domain.ComplaintStatusPending,
		domain.ComplaintStatusAssigned,
		domain.ComplaintStatusEscalated,
		domain.ComplaintStatusResolved,
	}
	rows := make([]reportRow, 0, len(order))
	for _, status := range order {
		if count, ok := byStatus[status]; ok {
			rows = append(rows, reportRow{label: string(status), count: count})
		}
	}
	return rows
}

func levelRows(byLevel map[domain.EscalationLevel]int64) []reportRow {
	order := []domain.EscalationLevel{
		domain.LevelOne,
		domain.LevelTwo,
		domain.LevelThree,
		domain.LevelFour,
	}
	rows := make([]reportRow, 0, len(order))
	for _, level := range order {
		if count, ok := byLevel[level]; ok {
			rows = append(rows, reportRow{label: string(level), count: count})
		}
	}
	return rows
}

func categoryRows(byCategory map[domain.IssueCategory]int64) []reportRow {
	rows := make([]reportRow, 0, len(byCategory))
	for category, count := range byCategory {
		rows = append(rows, reportRow{label: string(category), count: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].label < rows[j].label })
	return rows
}
