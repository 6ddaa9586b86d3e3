package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

// StudentsHandler exposes auth and directory endpoints for residents.
type StudentsHandler struct {
	auth *service.AuthService
	org  *service.StaffService
}

// NewStudentsHandler constructs handler.
func NewStudentsHandler(authService *service.AuthService, orgService *service.StaffService) *StudentsHandler {
	return &StudentsHandler{auth: authService, org: orgService}
}

// Register handles POST /auth/students/register.
func (h *StudentsHandler) Register(c *fiber.Ctx) error {
	var req dto.StudentRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" || req.RollNumber == "" || req.HostelID == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, roll_number, hostel_id, password required")
	}

	student, token, exp, err := h.auth.RegisterStudent(c.Context(), service.RegisterStudentInput{
		Name:       req.Name,
		Email:      req.Email,
		RollNumber: req.RollNumber,
		HostelID:   req.HostelID,
		RoomNumber: req.RoomNumber,
		Password:   req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"student": studentResponse(student),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/students/login.
func (h *StudentsHandler) Login(c *fiber.Ctx) error {
	var req dto.StudentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Identifier == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "identifier and password required")
	}

	student, token, exp, err := h.auth.LoginStudent(c.Context(), req.Identifier, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"student": studentResponse(student),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ListHostels handles GET /hostels, the public directory used at
// registration.
func (h *StudentsHandler) ListHostels(c *fiber.Ctx) error {
	hostels, err := h.org.ListHostels(c.Context(), false)
	if err != nil {
		return err
	}
	resp := make([]dto.HostelResponse, 0, len(hostels))
	for i := range hostels {
		resp = append(resp, hostelResponse(&hostels[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

func studentResponse(student *domain.Student) dto.StudentResponse {
	return dto.StudentResponse{
		ID:         student.ID,
		Name:       student.Name,
		Email:      student.Email,
		RollNumber: student.RollNumber,
		HostelID:   student.HostelID,
		RoomNumber: student.RoomNumber,
	}
}
