package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/medinsight/staff-admin/internal/api/http"
	"github.com/medinsight/staff-admin/internal/api/http/handlers"
	"github.com/medinsight/staff-admin/internal/auth"
	"github.com/medinsight/staff-admin/internal/config"
	"github.com/medinsight/staff-admin/internal/events"
	"github.com/medinsight/staff-admin/internal/identity"
	"github.com/medinsight/staff-admin/internal/observability"
	"github.com/medinsight/staff-admin/internal/persistence"
	"github.com/medinsight/staff-admin/internal/repository"
	"github.com/medinsight/staff-admin/internal/service"
	"github.com/medinsight/staff-admin/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	staffRepo := buildStaffRepository(cfg, pg, redis, metrics, logger)

	dispatcher := events.NewInMemoryDispatcher()
	jobs := worker.NewQueue(worker.QueueConfig{}, logger.Named("worker"))
	worker.StartNotificationWorker(context.WithoutCancel(ctx),
		service.NewNotificationService(dispatcher, logger, cfg.Notification), jobs)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	staffService := service.NewStaffService(service.StaffDependencies{
		StaffRepo:   staffRepo,
		Provisioner: buildProvisioner(ctx, cfg, logger),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		RequestTimeout: cfg.App.RequestTimeout(),
		AllowOrigins:   cfg.App.CORSAllowOrigins,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
			handlers.NamedDependency{Name: "postgres", Dep: pg},
			handlers.NamedDependency{Name: "redis", Dep: redis},
		),
		Staff:          handlers.NewStaffHandler(staffService),
		Auth:           handlers.NewAuthHandler(service.NewAuthService(*cfg, staffRepo, tokens)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, cfg.Auth.TrustGatewayHeaders, logger),
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", zap.Duration("grace", cfg.App.ShutdownGrace()))
	if err := app.ShutdownWithTimeout(cfg.App.ShutdownGrace()); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	jobs.Stop()
}

// buildStaffRepository prefers postgres, falls back to memory, and puts the
// redis cache in front of either when configured.
func buildStaffRepository(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis,
	metrics *observability.Metrics, logger *zap.Logger) repository.StaffRepository {
	var repo repository.StaffRepository
	if pg.Enabled() {
		repo = repository.NewStaffRepository(pg.PoolHandle())
	} else {
		logger.Warn("POSTGRES_DSN not set, staff records live in memory only")
		repo = repository.NewMemoryStaffRepository()
	}
	if redis.Enabled() {
		repo = repository.NewCachedStaffRepository(repo, redis.Client, cfg.Redis.CacheTTL(), logger, metrics)
	}
	return repo
}

func buildProvisioner(ctx context.Context, cfg *config.Config, logger *zap.Logger) identity.Provisioner {
	if cfg.Keycloak.Enabled() {
		logger.Info("provisioning staff accounts in keycloak", zap.String("realm", cfg.Keycloak.Realm))
		return identity.NewKeycloakProvisioner(ctx, cfg.Keycloak, logger)
	}
	return identity.NewLocalProvisioner(cfg.Auth.BcryptCost)
}
