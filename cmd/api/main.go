package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/estate-service/internal/api/http"
	"github.com/spec-kit/estate-service/internal/api/http/handlers"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/config"
	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/mailer"
	"github.com/spec-kit/estate-service/internal/observability"
	"github.com/spec-kit/estate-service/internal/persistence"
	"github.com/spec-kit/estate-service/internal/repository"
	"github.com/spec-kit/estate-service/internal/service"
	"github.com/spec-kit/estate-service/internal/syncloop"
	"github.com/spec-kit/estate-service/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	listingRepo := repository.NewListingRepository(pool)
	applicationRepo := repository.NewApplicationRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	contactRepo := repository.NewContactMessageRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	smtpMailer := mailer.New(cfg.Mail, logger)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	applicationService := service.NewApplicationService(service.ApplicationDependencies{
		ApplicationRepo: applicationRepo,
		ListingRepo:     listingRepo,
		Dispatcher:      dispatcher,
	})
	reviewService := service.NewReviewService(applicationService, listingRepo, dispatcher, logger)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		Dispatcher:       dispatcher,
		Mailer:           smtpMailer,
		Logger:           logger,
	})
	contactService := service.NewContactService(contactRepo, dispatcher)

	worker.StartNotificationWorker(notificationService)

	editRegistry := syncloop.NewEditRegistry(redis.Client, cfg.Sync.EditSessionTTL())

	// in-process admin dashboard view: polls pending applications and the
	// shared admin feed, leaving records held by an edit session untouched
	dashboardLoop := syncloop.NewLoop(syncloop.Options{
		Fetcher: syncloop.NewServiceFetcher(applicationService, notificationService,
			domain.RoleAudience(domain.RoleAdmin),
			service.ApplicationListFilter{Statuses: []domain.ApplicationStatus{domain.ApplicationStatusPending}}),
		RemoteEdits: editRegistry,
		Interval:    cfg.Sync.Interval(),
		Logger:      logger,
	})
	go dashboardLoop.Run(ctx)
	defer dashboardLoop.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:             handlers.NewUsersHandler(authService),
		Listings:          handlers.NewListingsHandler(listingRepo),
		Applications:      handlers.NewApplicationsHandler(applicationService),
		AdminApplications: handlers.NewAdminApplicationsHandler(applicationService, reviewService, editRegistry),
		Notifications:     handlers.NewNotificationsHandler(notificationService),
		Contact:           handlers.NewContactHandler(contactService),
		AuthMiddleware:    authMiddleware,
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
