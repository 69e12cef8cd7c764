package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/kesarsunil/problemstatment/internal/handlers"
	"github.com/kesarsunil/problemstatment/internal/live"
	"github.com/kesarsunil/problemstatment/internal/repository"
	"github.com/kesarsunil/problemstatment/internal/roster"
	"github.com/kesarsunil/problemstatment/internal/service"
	"github.com/kesarsunil/problemstatment/internal/service/catalog"
	"github.com/kesarsunil/problemstatment/internal/service/export"
	"github.com/kesarsunil/problemstatment/internal/service/registration"
	rostersvc "github.com/kesarsunil/problemstatment/internal/service/roster"
	"github.com/kesarsunil/problemstatment/pkg/config"
	"github.com/kesarsunil/problemstatment/pkg/database"
	"github.com/kesarsunil/problemstatment/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(database.Config{
		Host:     cfg.PGHost,
		Port:     cfg.PGPort,
		Username: cfg.PGUser,
		Password: cfg.PGPassword,
		DBName:   cfg.PGDatabase,
		SSLMode:  cfg.PGSSLMode,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize db", "error", err.Error())
		os.Exit(1)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal("Migration driver error:", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		logger.Error("migrate init error", slog.Any("error", err))
		os.Exit(1)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("migration error", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error occured on closing database connection", slog.Any("error", err))
		} else {
			logger.Info("Database connection closed gracefully")
		}
	}()

	dbInstance := database.NewDB(db)
	txManager, err := database.NewTransactionManager(db)
	if err != nil {
		logger.Error("error creating transaction manager", slog.Any("error", err))
		os.Exit(1)
	}

	teamRepo := repository.NewTeamRepository(dbInstance)
	challengeRepo := repository.NewChallengeRepository(dbInstance)
	regRepo := repository.NewRegistrationRepository(dbInstance)

	var snapshot live.SnapshotStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Error("failed to ping redis", slog.Any("error", err))
			os.Exit(1)
		}
		snapshot = live.NewRedisSnapshotStore(rdb)
		logger.Info("occupancy snapshot backed by redis", slog.String("addr", cfg.RedisAddr))
	} else {
		snapshot = live.NewMemorySnapshotStore()
	}
	projector := live.NewProjector(snapshot, live.NewHub(), logger)

	services := &service.Services{
		RegistrationService: registration.NewRegistrationService(teamRepo, challengeRepo, regRepo, txManager, projector, logger),
		CatalogService:      catalog.NewCatalogService(challengeRepo, txManager, projector, logger),
		ExportService:       export.NewExportService(regRepo, txManager, logger),
		RosterService:       rostersvc.NewRosterService(teamRepo, txManager, logger),
	}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := seedRoster(bootCtx, cfg.RosterPath, services.RosterService, logger); err != nil {
		bootCancel()
		logger.Error("roster seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := warmProjector(bootCtx, services.CatalogService, projector); err != nil {
		bootCancel()
		logger.Error("projector warm-up failed", slog.Any("error", err))
		os.Exit(1)
	}
	bootCancel()

	handlers := handlers.NewHandler(services, projector, handlers.Config{
		AdminKey:           cfg.AdminKey,
		RegisterRatePerSec: cfg.RegisterRatePerSec,
		RegisterBurst:      cfg.RegisterBurst,
	}, logger)

	srv := new(server.Server)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.Run(cfg.ServerPort, handlers.InitRoutes()); err != nil {
			serverErrors <- err
		}
	}()
	logger.Info("server started", slog.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
		logger.Info("Gracefully Shutting Down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error occured on server shutting down", slog.Any("error", err))
		}

		logger.Info("Server stopped gracefully")
	case err := <-serverErrors:
		logger.Error("Error occured while running server", slog.Any("error", err))
		os.Exit(1)
	}
}

func seedRoster(ctx context.Context, path string, svc *rostersvc.RosterService, logger *slog.Logger) error {
	if path == "" {
		logger.Warn("no roster file configured, skipping seed")
		return nil
	}
	teams, err := roster.LoadFile(path)
	if err != nil {
		return err
	}
	return svc.Seed(ctx, teams)
}

func warmProjector(ctx context.Context, svc *catalog.CatalogService, projector *live.Projector) error {
	challenges, err := svc.ListChallenges(ctx)
	if err != nil {
		return err
	}
	return projector.Warm(ctx, challenges)
}
