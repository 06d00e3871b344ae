package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open ticket store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)

	deps := []handlers.Dependency{{Name: cfg.Store.Driver, Pinger: store.pinger}}
	var numbers service.NumberAllocator
	if redis != nil {
		deps = append(deps, handlers.Dependency{Name: "redis", Pinger: redis})
	}
	if cfg.Tickets.NumberStrategy == config.NumberingRedis {
		numbers = service.NewRedisAllocator(redis.Client, store.tickets)
	} else {
		numbers = service.NewStoreAllocator(store.tickets)
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, metrics))

	specialistService := service.NewSpecialistService(store.specialists, logger)
	if _, err := specialistService.Seed(ctx, domain.DefaultSpecialists); err != nil {
		logger.Fatal("failed to seed specialists", zap.Error(err))
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     store.tickets,
		SpecialistRepo: store.specialists,
		Numbers:        numbers,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		Location:       cfg.App.Location,
		MaxAttempts:    cfg.Tickets.MaxNumberAttempts,
		DefaultLimit:   cfg.Tickets.DefaultListLimit,
		MaxLimit:       cfg.Tickets.MaxListLimit,
	})
	dashboardService := service.NewDashboardService(store.tickets, nil, cfg.App.Location)

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		RequestTimeout: cfg.App.RequestTimeout(),
		Logger:         logger,
		Metrics:        metrics,
		Routes: httptransport.RouteConfig{
			Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps...),
			Tickets:     handlers.NewTicketsHandler(ticketService),
			Specialists: handlers.NewSpecialistsHandler(specialistService),
			Dashboard:   handlers.NewDashboardHandler(dashboardService),
			CORSOrigins: cfg.CORS.AllowedOrigins,
		},
	})

	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("store", cfg.Store.Driver),
			zap.String("numbering", cfg.Tickets.NumberStrategy))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	store.close(closeCtx)
	if err := redis.Close(); err != nil {
		logger.Warn("redis close", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
