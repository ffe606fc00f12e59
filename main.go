package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/config"
	"github.com/dishlens/dishlens-engine/pkg/database"
	"github.com/dishlens/dishlens-engine/pkg/extract"
	"github.com/dishlens/dishlens-engine/pkg/handlers"
	"github.com/dishlens/dishlens-engine/pkg/llm"
	"github.com/dishlens/dishlens-engine/pkg/logging"
	"github.com/dishlens/dishlens-engine/pkg/middleware"
	"github.com/dishlens/dishlens-engine/pkg/repositories"
	"github.com/dishlens/dishlens-engine/pkg/retry"
	"github.com/dishlens/dishlens-engine/pkg/scrape"
	"github.com/dishlens/dishlens-engine/pkg/services"
	"github.com/dishlens/dishlens-engine/pkg/storage"
	"github.com/dishlens/dishlens-engine/pkg/tasks"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
		zap.String("ai_vision_model", cfg.AI.EffectiveVisionModel()))

	ctx := context.Background()

	db, err := retry.DoWithResult(ctx, nil, func() (*database.DB, error) {
		return database.NewConnection(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxConnections)
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	restaurantRepo := repositories.NewRestaurantRepository(db)
	sourceRepo := repositories.NewMenuSourceRepository(db)
	itemRepo := repositories.NewMenuItemRepository(db)
	photoRepo := repositories.NewPhotoRepository(db)

	llmClient, err := llm.NewClient(&llm.Config{
		Provider:    cfg.AI.Provider,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		VisionModel: cfg.AI.VisionModel,
		APIKey:      cfg.AI.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	scraper := scrape.New(scrape.Config{
		UserAgent:      cfg.Scraper.UserAgent,
		Timeout:        cfg.Scraper.Timeout,
		MinRegionChars: cfg.Scraper.MinRegionChars,
		MinTotalChars:  cfg.Scraper.MinTotalChars,
		MaxTotalChars:  cfg.Scraper.MaxTotalChars,
	}, logger)

	extractor := extract.New(llmClient, logger)

	signer, err := storage.NewHMACSigner(cfg.Storage.BaseURL, cfg.Storage.SigningKey, cfg.Storage.URLTTL)
	if err != nil {
		logger.Fatal("Failed to create storage signer", zap.Error(err))
	}

	runner := tasks.NewRunner(cfg.Tasks.MaxConcurrent, logger)

	ingestionService := services.NewMenuIngestionService(
		restaurantRepo, sourceRepo, itemRepo,
		scraper, extractor, signer, runner, logger)
	classifierService := services.NewPhotoClassifierService(
		photoRepo, itemRepo, llmClient, signer, runner, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewMenuSourceHandler(ingestionService, logger).RegisterRoutes(mux)
	handlers.NewMenuItemHandler(ingestionService, logger).RegisterRoutes(mux)
	handlers.NewPhotoHandler(classifierService, logger).RegisterRoutes(mux)
	handlers.NewTaskHandler(runner, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting dishlens-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Error("Task runner shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// runMigrations applies pending migrations through database/sql, which is
// what golang-migrate requires.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}
