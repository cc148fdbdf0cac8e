package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/helpdesk-kit/helpdesk-service/internal/api/http"
	"github.com/helpdesk-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/config"
	"github.com/helpdesk-kit/helpdesk-service/internal/events"
	"github.com/helpdesk-kit/helpdesk-service/internal/observability"
	"github.com/helpdesk-kit/helpdesk-service/internal/persistence"
	"github.com/helpdesk-kit/helpdesk-service/internal/realtime"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
	"github.com/helpdesk-kit/helpdesk-service/internal/service"
	"github.com/helpdesk-kit/helpdesk-service/internal/worker"
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

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	tenantRepo := repository.NewTenantRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	broadcaster := realtime.NewBroadcaster(redisConn.Client, logger)

	auditService := service.NewAuditService(auditRepo, logger)
	scopeService := service.NewScopeService(service.ScopeDependencies{
		UserRepo:       userRepo,
		TenantRepo:     tenantRepo,
		AssignmentRepo: assignmentRepo,
	})
	routingService := service.NewRoutingService(service.RoutingDependencies{
		TicketRepo:     ticketRepo,
		UserRepo:       userRepo,
		AssignmentRepo: assignmentRepo,
		Dispatcher:     dispatcher,
		Audit:          auditService,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		TenantRepo: tenantRepo,
		Scope:      scopeService,
		Routing:    routingService,
		Audit:      auditService,
		Dispatcher: dispatcher,
		Logger:     logger,
		AutoRoute:  cfg.Routing.AutoRouteOnCreate,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		TicketRepo: ticketRepo,
		Audit:      auditService,
		Logger:     logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		UserRepo:       userRepo,
		TenantRepo:     tenantRepo,
		AssignmentRepo: assignmentRepo,
		Scope:          scopeService,
		Audit:          auditService,
		BcryptCost:     cfg.Auth.BcryptCost,
	})
	notificationService := service.NewNotificationService(notificationRepo, ticketRepo, broadcaster, dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	retention := worker.NewRetentionWorker(orgRepo, auditRepo, cfg.Audit.DefaultRetentionDays, cfg.Audit.SweepInterval(), logger)
	retention.Start(ctx)

	resolver := auth.NewContextResolver(authService.TokenManager(), userRepo)
	authMiddleware := auth.NewMiddleware(resolver)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, authService.TokenManager()),
		AgentTickets:   handlers.NewAgentTicketsHandler(ticketService, routingService),
		Admin:          handlers.NewAdminHandler(adminService, auditService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
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
