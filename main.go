package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/eventlens-ai/insights-engine/pkg/config"
	"github.com/eventlens-ai/insights-engine/pkg/database"
	"github.com/eventlens-ai/insights-engine/pkg/handlers"
	"github.com/eventlens-ai/insights-engine/pkg/llm"
	"github.com/eventlens-ai/insights-engine/pkg/logging"
	"github.com/eventlens-ai/insights-engine/pkg/middleware"
	"github.com/eventlens-ai/insights-engine/pkg/retry"
	"github.com/eventlens-ai/insights-engine/pkg/schema"
	"github.com/eventlens-ai/insights-engine/pkg/services"
	"github.com/eventlens-ai/insights-engine/pkg/synth"
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
		zap.String("ai_model", cfg.AI.Model))

	ctx := context.Background()

	// Run migrations through database/sql before opening the pool
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	// Retry pool creation so the service survives a database that is
	// still starting up alongside it
	db, err := retry.DoWithResult(ctx, nil, func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:             cfg.Database.ConnectionString(),
			MaxConnections:  cfg.Database.MaxConnections,
			MaxConnLifetime: cfg.Database.ConnLifetime(),
			MaxConnIdleTime: cfg.Database.ConnIdleTime(),
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	llmCfg := &llm.Config{
		Provider: cfg.AI.Provider,
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
	}
	primary, err := llm.NewClient(llmCfg, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	var fallback llm.Client
	if cfg.AI.FallbackModel != "" {
		fallback, err = llm.NewClient(llmCfg.WithModel(cfg.AI.FallbackModel), logger)
		if err != nil {
			logger.Fatal("Failed to create fallback LLM client", zap.Error(err))
		}
	}

	describer := schema.NewDescriber(db.Pool, logger)
	sqlSynth := synth.NewSQLSynthesizer(primary, fallback, logger)
	answers := synth.NewAnswerSynthesizer(primary, logger)
	executor := database.NewExecutor(&database.PoolAcquirer{Pool: db.Pool}, logger)

	var history *services.HistoryService
	if cfg.Insights.HistoryEnabled {
		history = services.NewHistoryService(db.Pool, logger)
	}

	insights := services.NewInsightsService(
		describer,
		sqlSynth,
		answers,
		executor,
		historyOrNil(history),
		services.Options{
			MaxRows:          cfg.Insights.MaxRows,
			StatementTimeout: cfg.Insights.StatementTimeout(),
		},
		logger,
	)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	chatHandler := handlers.NewChatHandler(insights, historyReaderOrNil(history), logger)
	chatHandler.RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting insights-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// historyOrNil avoids handing the service a non-nil interface that wraps
// a nil pointer.
func historyOrNil(h *services.HistoryService) services.HistoryRecorder {
	if h == nil {
		return nil
	}
	return h
}

func historyReaderOrNil(h *services.HistoryService) handlers.HistoryReader {
	if h == nil {
		return nil
	}
	return h
}
