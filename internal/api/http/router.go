package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Students        *handlers.StudentsHandler
	Complaints      *handlers.ComplaintsHandler
	StaffComplaints *handlers.StaffComplaintsHandler
	Staff           *handlers.StaffHandler
	AuthMiddleware  *auth.AuthMiddleware
	CreateLimiter   fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/hostels", cfg.Students.ListHostels)

	authGroup := app.Group("/auth")
	authGroup.Post("/students/register", cfg.Students.Register)
	authGroup.Post("/students/login", cfg.Students.Login)
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/logout", cfg.Staff.Logout)
	protectedAuth.Post("/password/change", cfg.Staff.ChangePassword)

	student := app.Group("/complaints", cfg.AuthMiddleware.Handle, auth.RequireStudent())
	if cfg.CreateLimiter != nil {
		student.Post("", cfg.CreateLimiter, cfg.Complaints.CreateComplaint)
	} else {
		student.Post("", cfg.Complaints.CreateComplaint)
	}
	student.Get("", cfg.Complaints.ListComplaints)
	student.Get("/:id", cfg.Complaints.GetComplaint)
	student.Post("/:id/feedback", cfg.Complaints.SubmitFeedback)
	student.Post("/:id/attachments", cfg.Complaints.UploadAttachment)
	student.Get("/:id/attachments/:attachmentID", cfg.Complaints.DownloadAttachment)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Get("/complaints", cfg.StaffComplaints.ListComplaints)
	staff.Get("/complaints/:id", cfg.StaffComplaints.GetComplaint)
	staff.Post("/complaints/:id/escalate", cfg.StaffComplaints.EscalateComplaint)
	staff.Post("/complaints/:id/resolve", cfg.StaffComplaints.ResolveComplaint)
	staff.Get("/complaints/:id/attachments/:attachmentID", cfg.StaffComplaints.DownloadAttachment)
	staff.Delete("/complaints/:id", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.StaffComplaints.DeleteComplaint)

	staff.Get("/reports/stats", cfg.StaffComplaints.Stats)
	staff.Get("/reports/summary.pdf", cfg.StaffComplaints.SummaryPDF)

	staff.Get("/hostels", cfg.Staff.ListHostels)
	staff.Get("/hostels/:id", cfg.Staff.GetHostel)
	staff.Post("/hostels", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Staff.CreateHostel)
	staff.Put("/hostels/:id", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Staff.UpdateHostel)

	admin := staff.Group("/members", auth.RequireStaffRole(domain.StaffRoleAdmin))
	admin.Post("", cfg.Staff.CreateStaff)
	admin.Get("", cfg.Staff.ListStaff)
	admin.Get("/:id", cfg.Staff.GetStaff)
	admin.Put("/:id", cfg.Staff.UpdateStaff)
}
