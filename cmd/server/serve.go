package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitsymphony/internal/api"
	"fitsymphony/internal/audit"
	"fitsymphony/internal/coach"
	"fitsymphony/internal/config"
	"fitsymphony/internal/db"
	"fitsymphony/internal/eventbus"
	"fitsymphony/internal/llm"
	"fitsymphony/internal/logging"
	redisdb "fitsymphony/internal/redis"
	"fitsymphony/internal/state"
	"fitsymphony/internal/tools"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	nutritionBreaker := tools.NewCircuitBreaker("nutrition", 3, 30*time.Second, logger)
	var nutrition tools.NutritionLookup = tools.NewNutritionClient(cfg.Nutrition.URL, cfg.Nutrition.APIKey, cfg.NutritionTimeout(), nutritionBreaker)
	rdb, err := redisdb.Connect(ctx, cfg)
	if err != nil {
		logger.Warn("nutrition cache disabled", zap.Error(err))
	} else if rdb != nil {
		defer rdb.Close()
		nutrition = tools.NewCachedNutrition(nutrition, rdb, cfg.NutritionCacheTTL(), logger)
	}

	var sink audit.Sink
	if cfg.EventBus.NATSURL != "" {
		bus, err := eventbus.NewNATSBus(eventbus.NATSConfig{URL: cfg.EventBus.NATSURL, Subject: cfg.EventBus.Subject})
		if err != nil {
			logger.Warn("audit bus disabled", zap.String("url", cfg.EventBus.NATSURL), zap.Error(err))
		} else {
			defer bus.Close()
			sink = bus
			logger.Info("publishing audit entries", zap.String("subject", bus.Subject()))
		}
	}

	breakers := []api.BreakerStats{nutritionBreaker}
	deps := coach.Deps{
		Store:     store,
		Audit:     audit.New(store, cfg.LogRetention(), sink, logger),
		Nutrition: nutrition,
		Chat:      llm.Unavailable{},
		Logger:    logger,
	}
	var queue api.QueueMetrics
	if cfg.LLM.URL != "" {
		llmBreaker := tools.NewCircuitBreaker("llm", 3, 30*time.Second, logger)
		qcfg := llm.DefaultConfig()
		qcfg.MaxConcurrent = cfg.LLM.MaxConcurrent
		qcfg.CriticalTimeout = cfg.LLMTimeout()
		// rule generation runs in the background and may wait longer
		qcfg.BackgroundTimeout = max(qcfg.BackgroundTimeout, cfg.LLMTimeout())
		manager := llm.NewManager(qcfg, llmBreaker, logger)
		defer manager.Stop()

		deps.Chat = llm.NewAdapter(manager.ClientFor(llm.PriorityCritical), cfg.LLM.URL, cfg.LLM.Model, cfg.LLM.Temperature)
		deps.Background = llm.NewAdapter(manager.ClientFor(llm.PriorityBackground), cfg.LLM.URL, cfg.LLM.Model, cfg.LLM.Temperature)
		queue = manager
		breakers = append(breakers, llmBreaker)
	} else {
		logger.Warn("llm.url not set, agents will use their fallbacks")
	}

	router := api.SetupRouter(cfg, api.Deps{
		Coach:    coach.New(deps),
		Queue:    queue,
		Breakers: breakers,
		Logger:   logger,
	})
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
		}).Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("subpath", cfg.Server.Subpath), zap.String("store", cfg.Store.Backend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, logger *zap.Logger) (state.Store, error) {
	if cfg.Store.Backend != "gorm" {
		logger.Info("using in-memory store")
		return state.NewMemoryStore(), nil
	}
	if err := db.Init(cfg, logger); err != nil {
		return nil, fmt.Errorf("db init: %w", err)
	}
	store := state.NewGormStore(db.DB)
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return store, nil
}
