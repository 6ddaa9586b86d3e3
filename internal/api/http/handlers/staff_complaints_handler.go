package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// StaffComplaintsHandler handles staff complaint lifecycle and reporting
// endpoints.
type StaffComplaintsHandler struct {
	complaints  *service.ComplaintService
	attachments *service.AttachmentService
	reports     *service.ReportService
}

// NewStaffComplaintsHandler constructs handler.
func NewStaffComplaintsHandler(complaintService *service.ComplaintService, attachmentService *service.AttachmentService, reportService *service.ReportService) *StaffComplaintsHandler {
	return &StaffComplaintsHandler{
		complaints:  complaintService,
		attachments: attachmentService,
		reports:     reportService,
	}
}

// ListComplaints GET /staff/complaints.
func (h *StaffComplaintsHandler) ListComplaints(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filter := parseStaffComplaintFilter(c)
	complaints, err := h.complaints.ListStaffComplaints(c.Context(), staff, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetComplaint GET /staff/complaints/:id.
func (h *StaffComplaintsHandler) GetComplaint(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	complaint, history, err := h.complaints.GetComplaintForStaff(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	attachments, err := h.attachments.List(c.Context(), complaint.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint, history, attachments)})
}

// EscalateComplaint POST /staff/complaints/:id/escalate. At the top level
// the outcome says MAX_LEVEL and nothing changes.
func (h *StaffComplaintsHandler) EscalateComplaint(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	complaint, result, err := h.complaints.EscalateComplaint(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EscalationResponse{
		Outcome:   result.Outcome,
		Complaint: complaintSummary(complaint),
	}})
}

// ResolveComplaint POST /staff/complaints/:id/resolve.
func (h *StaffComplaintsHandler) ResolveComplaint(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.ResolveComplaint(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintSummary(complaint)})
}

// DeleteComplaint DELETE /staff/complaints/:id. Admin only, resolved only.
// Stored attachment objects go with the row.
func (h *StaffComplaintsHandler) DeleteComplaint(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	complaint, _, err := h.complaints.GetComplaintForStaff(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	attachments, err := h.attachments.List(c.Context(), complaint.ID)
	if err != nil {
		return err
	}
	if err := h.complaints.DeleteComplaint(c.Context(), staff, complaint.ID); err != nil {
		return err
	}
	h.attachments.RemoveObjects(c.Context(), attachments)
	return c.SendStatus(http.StatusNoContent)
}

// DownloadAttachment GET /staff/complaints/:id/attachments/:attachmentID.
func (h *StaffComplaintsHandler) DownloadAttachment(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	complaint, _, err := h.complaints.GetComplaintForStaff(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	url, attachment, err := h.attachments.PresignDownload(c.Context(), complaint.ID, c.Params("attachmentID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attachmentResponse(attachment, url)})
}

// Stats GET /staff/reports/stats.
func (h *StaffComplaintsHandler) Stats(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.reports.Stats(c.Context(), effectiveHostelScope(c, staff))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statsResponse(stats)})
}

// SummaryPDF GET /staff/reports/summary.pdf.
func (h *StaffComplaintsHandler) SummaryPDF(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	pdf, err := h.reports.SummaryPDF(c.Context(), effectiveHostelScope(c, staff))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="complaint-summary.pdf"`)
	return c.Send(pdf)
}

func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	return principal.Staff, nil
}

// effectiveHostelScope picks the hostel filter, letting hostel-bound staff
// see only their own building regardless of the query string.
func effectiveHostelScope(c *fiber.Ctx, staff *domain.StaffMember) *string {
	if staff.Role != domain.StaffRoleAdmin && staff.HostelID != nil {
		return staff.HostelID
	}
	if hostelID := c.Query("hostel_id"); hostelID != "" {
		return &hostelID
	}
	return nil
}

func parseStaffComplaintFilter(c *fiber.Ctx) service.ComplaintStaffFilter {
	filter := service.ComplaintStaffFilter{}
	if hostelID := c.Query("hostel_id"); hostelID != "" {
		filter.HostelID = &hostelID
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(strings.TrimSpace(part)))
		}
	}
	if levels := c.Query("level"); levels != "" {
		for _, part := range strings.Split(levels, ",") {
			filter.Levels = append(filter.Levels, domain.EscalationLevel(strings.TrimSpace(part)))
		}
	}
	if categories := c.Query("category"); categories != "" {
		for _, part := range strings.Split(categories, ",") {
			filter.Categories = append(filter.Categories, domain.IssueCategory(strings.TrimSpace(part)))
		}
	}
	if severities := c.Query("severity"); severities != "" {
		for _, part := range strings.Split(severities, ",") {
			filter.Severities = append(filter.Severities, domain.Severity(strings.TrimSpace(part)))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if createdFrom := parseTime(c.Query("created_from")); createdFrom != nil {
		filter.CreatedFrom = createdFrom
	}
	if createdTo := parseTime(c.Query("created_to")); createdTo != nil {
		filter.CreatedTo = createdTo
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func statsResponse(stats *repository.ComplaintStats) dto.StatsResponse {
	resp := dto.StatsResponse{
		Total:      stats.Total,
		ByStatus:   make(map[string]int64, len(stats.ByStatus)),
		ByLevel:    make(map[string]int64, len(stats.ByLevel)),
		ByCategory: make(map[string]int64, len(stats.ByCategory)),
	}
	for status, count := range stats.ByStatus {
		resp.ByStatus[string(status)] = count
	}
	for level, count := range stats.ByLevel {
		resp.ByLevel[string(level)] = count
	}
	for category, count := range stats.ByCategory {
		resp.ByCategory[string(category)] = count
	}
	return resp
}
