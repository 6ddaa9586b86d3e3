package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ComplaintsHandler manages resident complaint endpoints.
type ComplaintsHandler struct {
	complaints  *service.ComplaintService
	attachments *service.AttachmentService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService, attachmentService *service.AttachmentService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaintService, attachments: attachmentService}
}

// CreateComplaint POST /complaints.
func (h *ComplaintsHandler) CreateComplaint(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Category == "" || req.Description == "" {
		return apperrors.NewValidationError("category and description required", nil)
	}

	input := service.ComplaintCreateInput{
		HostelID:       req.HostelID,
		RoomNumber:     req.RoomNumber,
		Category:       req.Category,
		CategoryDetail: req.CategoryDetail,
		Description:    req.Description,
		Severity:       req.Severity,
	}
	complaint, err := h.complaints.CreateComplaint(c.Context(), student, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintSummary(complaint)})
}

// ListComplaints GET /complaints.
func (h *ComplaintsHandler) ListComplaints(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	filter := parseUserComplaintQuery(c)
	complaints, err := h.complaints.ListStudentComplaints(c.Context(), student.ID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetComplaint GET /complaints/:id.
func (h *ComplaintsHandler) GetComplaint(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	complaint, history, err := h.complaints.GetComplaintForStudent(c.Context(), student.ID, c.Params("id"))
	if err != nil {
		return err
	}
	attachments, err := h.attachments.List(c.Context(), complaint.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint, history, attachments)})
}

// SubmitFeedback POST /complaints/:id/feedback.
func (h *ComplaintsHandler) SubmitFeedback(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.complaints.SubmitFeedback(c.Context(), student, c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintSummary(complaint)})
}

// UploadAttachment POST /complaints/:id/attachments.
func (h *ComplaintsHandler) UploadAttachment(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	complaint, _, err := h.complaints.GetComplaintForStudent(c.Context(), student.ID, c.Params("id"))
	if err != nil {
		return err
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field 'file' required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable upload", nil)
	}
	defer file.Close()

	attachment, err := h.attachments.Upload(c.Context(), complaint, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment, "")})
}

// DownloadAttachment GET /complaints/:id/attachments/:attachmentID.
func (h *ComplaintsHandler) DownloadAttachment(c *fiber.Ctx) error {
	student, err := studentPrincipal(c)
	if err != nil {
		return err
	}
	complaint, _, err := h.complaints.GetComplaintForStudent(c.Context(), student.ID, c.Params("id"))
	if err != nil {
		return err
	}
	url, attachment, err := h.attachments.PresignDownload(c.Context(), complaint.ID, c.Params("attachmentID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attachmentResponse(attachment, url)})
}

func studentPrincipal(c *fiber.Ctx) (*domain.Student, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Student == nil {
		return nil, apperrors.NewUnauthorized("student required")
	}
	return principal.Student, nil
}

func parseUserComplaintQuery(c *fiber.Ctx) service.ComplaintUserFilter {
	filter := service.ComplaintUserFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(strings.TrimSpace(part)))
		}
	}
	if levelStr := c.Query("level"); levelStr != "" {
		for _, part := range strings.Split(levelStr, ",") {
			filter.Levels = append(filter.Levels, domain.EscalationLevel(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.IssueCategory(strings.TrimSpace(part)))
		}
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func complaintSummary(complaint *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:             complaint.ID,
		ExternalKey:    complaint.ExternalKey,
		HostelID:       complaint.HostelID,
		RoomNumber:     complaint.RoomNumber,
		Category:       complaint.Category,
		CategoryDetail: complaint.CategoryDetail,
		Severity:       complaint.Severity,
		Level:          complaint.Level,
		Status:         complaint.Status,
		Worker: dto.WorkerResponse{
			Name:  complaint.AssignedWorkerName,
			Phone: complaint.AssignedWorkerPhone,
		},
		CreatedAt: complaint.CreatedAt,
		UpdatedAt: complaint.UpdatedAt,
	}
}

func complaintDetail(complaint *domain.Complaint, history []domain.ComplaintHistory, attachments []domain.AttachmentReference) dto.ComplaintDetailResponse {
	detail := dto.ComplaintDetailResponse{
		ComplaintSummary: complaintSummary(complaint),
		StudentID:        complaint.StudentID,
		Description:      complaint.Description,
		History:          historyResponses(history),
	}
	if complaint.FeedbackRating != nil {
		detail.Feedback = &dto.FeedbackResponse{
			Rating:      *complaint.FeedbackRating,
			Comment:     complaint.FeedbackComment,
			SubmittedAt: complaint.FeedbackAt,
		}
	}
	for i := range attachments {
		detail.Attachments = append(detail.Attachments, attachmentResponse(&attachments[i], ""))
	}
	return detail
}

func historyResponses(entries []domain.ComplaintHistory) []dto.ComplaintHistoryResponse {
	resp := make([]dto.ComplaintHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.ComplaintHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}

func attachmentResponse(attachment *domain.AttachmentReference, url string) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:        attachment.ID,
		FileName:  attachment.FileName,
		MimeType:  attachment.MimeType,
		SizeBytes: attachment.SizeBytes,
		URL:       url,
		CreatedAt: attachment.CreatedAt,
	}
}
