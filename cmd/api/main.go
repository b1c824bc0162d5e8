package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	httptransport "github.com/deskops/ticket-desk/internal/api/http"
	"github.com/deskops/ticket-desk/internal/api/http/handlers"
	"github.com/deskops/ticket-desk/internal/client"
	"github.com/deskops/ticket-desk/internal/config"
	"github.com/deskops/ticket-desk/internal/events"
	"github.com/deskops/ticket-desk/internal/observability"
	"github.com/deskops/ticket-desk/internal/persistence"
	"github.com/deskops/ticket-desk/internal/repository"
	"github.com/deskops/ticket-desk/internal/service"
	"github.com/deskops/ticket-desk/internal/worker"
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

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.Pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	ticketAPI, err := client.NewFromConfig(cfg.Backend, logger.Named("ticket_api"))
	if err != nil {
		logger.Fatal("invalid ticket api config", zap.Error(err))
	}

	var snapshots repository.ViewSnapshotRepository
	if redis.Enabled() {
		snapshots = repository.NewRedisViewSnapshotRepository(redis.Client, cfg.Views.KeyPrefix, cfg.Views.SnapshotTTL())
	} else {
		snapshots = repository.NewMemoryViewSnapshotRepository(cfg.Views.SnapshotTTL())
	}
	var activityRepo repository.ActivityRepository
	if pg.Enabled() {
		activityRepo = repository.NewActivityRepository(pg.Pool)
	}

	tag, err := language.Parse(cfg.App.Language)
	if err != nil {
		logger.Warn("unknown APP_LANGUAGE; using root collation", zap.String("language", cfg.App.Language))
		tag = language.Und
	}

	dispatcher := events.NewInMemoryDispatcher(logger.Named("events"))
	activityService := service.NewActivityService(dispatcher, activityRepo, logger.Named("activity"))
	notificationService := service.NewNotificationService(dispatcher, logger.Named("notify"), cfg.Notification)
	worker.StartEventWorkers(activityService, notificationService)

	ticketService := service.NewTicketService(ticketAPI, dispatcher, logger.Named("tickets"))
	viewService := service.NewViewService(service.ViewDependencies{
		API:        ticketAPI,
		Dispatcher: dispatcher,
		Snapshots:  snapshots,
		Language:   tag,
		Logger:     logger.Named("views"),
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	dependencies := []handlers.Dependency{{Name: "ticket_api", Ping: ticketAPI.Health}}
	if pg.Enabled() {
		dependencies = append(dependencies, handlers.Dependency{Name: "postgres", Ping: pg.Ping})
	}
	if redis.Enabled() {
		dependencies = append(dependencies, handlers.Dependency{Name: "redis", Ping: redis.Ping})
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, dependencies...),
		Tickets:     handlers.NewTicketsHandler(ticketService),
		ListViews:   handlers.NewListViewsHandler(viewService),
		TicketViews: handlers.NewTicketViewsHandler(viewService),
		Activity:    handlers.NewActivityHandler(activityService),
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
