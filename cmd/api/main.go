package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/cover-rota/internal/api/http"
	"github.com/spec-kit/cover-rota/internal/api/http/handlers"
	"github.com/spec-kit/cover-rota/internal/availability"
	"github.com/spec-kit/cover-rota/internal/calendar"
	"github.com/spec-kit/cover-rota/internal/config"
	"github.com/spec-kit/cover-rota/internal/events"
	"github.com/spec-kit/cover-rota/internal/generator"
	"github.com/spec-kit/cover-rota/internal/observability"
	"github.com/spec-kit/cover-rota/internal/persistence"
	"github.com/spec-kit/cover-rota/internal/repository"
	"github.com/spec-kit/cover-rota/internal/service"
	"github.com/spec-kit/cover-rota/internal/worker"
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
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	loc := cfg.App.Location()
	readiness := map[string]handlers.Pinger{"postgres": pg}

	var cache calendar.Cache
	switch cfg.Calendar.CacheBackend {
	case "memory":
		cache = calendar.NewMemoryCache(nil)
	default:
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		cache = calendar.NewRedisCache(redis.Client, logger)
		readiness["redis"] = redis
	}

	adapter := calendar.NewAdapter(calendar.AdapterDependencies{
		Fetcher:  calendar.NewFetcher(cfg.Calendar.FetchTimeout()),
		Cache:    cache,
		CacheTTL: cfg.Calendar.CacheTTL(),
		Location: loc,
		Logger:   logger.Named("calendar"),
	})

	staffRepo := repository.NewStaffRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	absenceRepo := repository.NewAbsenceRepository(pool)
	coverRepo := repository.NewCoverRepository(pool)

	resolver := availability.NewResolver(availability.ResolverDependencies{
		Timetable: scheduleRepo,
		Calendar:  adapter,
		Logger:    logger.Named("availability"),
	})

	var textGen generator.TextGenerator
	gemini, err := generator.NewGeminiClient(ctx, cfg.Generator.APIKey, cfg.Generator.Model)
	switch {
	case errors.Is(err, generator.ErrNotConfigured):
		logger.Warn("text generation disabled; suggestions and reports will carry an error message")
	case err != nil:
		logger.Warn("text generation unavailable", zap.Error(err))
	default:
		textGen = gemini
	}
	assistant := generator.NewAssistant(textGen, logger.Named("generator"))

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg.Notification)

	absenceService := service.NewAbsenceService(service.AbsenceDependencies{
		StaffRepo:   staffRepo,
		AbsenceRepo: absenceRepo,
		Dispatcher:  dispatcher,
		Location:    loc,
		Logger:      logger,
	})
	coverService := service.NewCoverService(service.CoverDependencies{
		StaffRepo:    staffRepo,
		ScheduleRepo: scheduleRepo,
		AbsenceRepo:  absenceRepo,
		CoverRepo:    coverRepo,
		Resolver:     resolver,
		Advisor:      assistant,
		Dispatcher:   dispatcher,
		Location:     loc,
		Logger:       logger,
	})
	availabilityService := service.NewAvailabilityService(service.AvailabilityDependencies{
		StaffRepo: staffRepo,
		CoverRepo: coverRepo,
		Resolver:  resolver,
		Location:  loc,
	})
	staffService := service.NewStaffService(service.StaffDependencies{
		StaffRepo:    staffRepo,
		ScheduleRepo: scheduleRepo,
		AbsenceRepo:  absenceRepo,
		CoverRepo:    coverRepo,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		AbsenceRepo: absenceRepo,
		CoverRepo:   coverRepo,
		Advisor:     assistant,
		Location:    loc,
	})

	warmer := worker.NewCalendarWarmer(staffRepo, adapter, loc, logger.Named("warmer"))
	stopWorkers, err := worker.Start(notificationService, warmer, cfg.Calendar.WarmCron)
	if err != nil {
		logger.Fatal("failed to start workers", zap.Error(err))
	}
	defer stopWorkers()

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.App.RequestTimeout() + 5*time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, readiness),
		Staff:        handlers.NewStaffHandler(staffService),
		Absences:     handlers.NewAbsencesHandler(absenceService),
		Covers:       handlers.NewCoversHandler(coverService),
		Availability: handlers.NewAvailabilityHandler(availabilityService),
		Reports:      handlers.NewReportsHandler(reportService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("timezone", loc.String()))

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
