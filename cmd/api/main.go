package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ticketdesk/ticket-core/internal/api/http"
	"github.com/ticketdesk/ticket-core/internal/api/http/handlers"
	"github.com/ticketdesk/ticket-core/internal/assist"
	"github.com/ticketdesk/ticket-core/internal/auth"
	"github.com/ticketdesk/ticket-core/internal/config"
	"github.com/ticketdesk/ticket-core/internal/events"
	"github.com/ticketdesk/ticket-core/internal/notify"
	"github.com/ticketdesk/ticket-core/internal/observability"
	"github.com/ticketdesk/ticket-core/internal/persistence"
	"github.com/ticketdesk/ticket-core/internal/repository"
	"github.com/ticketdesk/ticket-core/internal/service"
	"github.com/ticketdesk/ticket-core/internal/triage"
	"github.com/ticketdesk/ticket-core/internal/worker"
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

	metrics := observability.NewMetrics()

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
	var ticketRepo repository.TicketRepository
	var agentRepo repository.AgentRepository
	if pool != nil {
		ticketRepo = repository.NewTicketRepository(pool)
		ticketRepo = repository.NewCachedTicketRepository(ticketRepo, redis.Client, cfg.Redis.CacheTTL(), logger)
		agentRepo = repository.NewAgentRepository(pool)
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
	}

	dispatcher := events.NewQueuedDispatcher(cfg.Notification.QueueSize, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	sinks := []notify.Sink{
		notify.NewEmailSink(cfg.Notification.EmailFrom, logger),
		notify.NewWebhookSink(cfg.Notification.WebhookURL, cfg.Notification.WebhookTimeout()),
		notify.NewKafkaSink(cfg.Notification.KafkaBrokers, cfg.Notification.KafkaTopic),
	}
	notificationService := service.NewNotificationService(dispatcher, sinks, logger, metrics, service.NotificationOptions{
		MaxAttempts: cfg.Notification.MaxAttempts,
		Backoff:     cfg.Notification.Backoff(),
	})
	worker.StartNotificationWorker(notificationService)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Engine:     triage.NewEngine(cfg.Triage.SevereKeywords, cfg.Triage.ElevatedKeywords),
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})
	assistClient, err := assist.NewClient(cfg.Assist)
	if err != nil {
		logger.Fatal("failed to init assist llm", zap.Error(err))
	}
	if assistClient == nil {
		logger.Info("assist llm not configured; ai replies disabled")
	}
	assistService := service.NewAssistService(ticketService, assistClient)

	authService := service.NewAuthService(cfg.Auth, agentRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, assistService),
		Agents:         handlers.NewAgentsHandler(authService),
		AuthMiddleware: authMiddleware,
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
