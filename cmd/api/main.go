package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/escalation"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	objectStore, err := persistence.NewObjectStore(ctx, cfg.Minio, logger)
	if err != nil {
		logger.Fatal("failed to init object storage", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	studentRepo := repository.NewStudentRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	hostelRepo := repository.NewHostelRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	historyRepo := repository.NewComplaintHistoryRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	denylist := auth.NewTokenDenylist(redis.Client)

	roster := escalation.DefaultRoster()
	if cfg.Escalation.DefaultWorkerName != "" {
		roster = roster.WithFallback(escalation.Worker{
			Name:  cfg.Escalation.DefaultWorkerName,
			Phone: cfg.Escalation.DefaultWorkerPhone,
		})
	}
	engine := escalation.NewEngine(roster, cfg.Escalation.AutoEscalateAfterDays)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		StudentRepo:       studentRepo,
		StaffRepo:         staffRepo,
		HostelRepo:        hostelRepo,
		PasswordResetRepo: resetRepo,
		Denylist:          denylist,
	})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: complaintRepo,
		StudentRepo:   studentRepo,
		HostelRepo:    hostelRepo,
		HistoryRepo:   historyRepo,
		Engine:        engine,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	orgService := service.NewStaffService(*cfg, service.OrgDependencies{
		HostelRepo: hostelRepo,
		StaffRepo:  staffRepo,
	})
	attachmentService := service.NewAttachmentService(objectStore, attachmentRepo, cfg.Minio, logger)
	reportService := service.NewReportService(complaintRepo, hostelRepo, redis.Client, logger)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), studentRepo, staffRepo, denylist)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Minio.MaxUploadBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, objectStore)
	studentsHandler := handlers.NewStudentsHandler(authService, orgService)
	complaintsHandler := handlers.NewComplaintsHandler(complaintService, attachmentService)
	staffComplaintsHandler := handlers.NewStaffComplaintsHandler(complaintService, attachmentService, reportService)
	staffHandler := handlers.NewStaffHandler(authService, orgService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          healthHandler,
		Students:        studentsHandler,
		Complaints:      complaintsHandler,
		StaffComplaints: staffComplaintsHandler,
		Staff:           staffHandler,
		AuthMiddleware:  authMiddleware,
		CreateLimiter:   httptransport.RateLimiter(redis.Client, cfg.RateLimit.CreatePerHour, time.Hour, "complaint_create"),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
