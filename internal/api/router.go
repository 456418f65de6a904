package api

import (
	"fitsymphony/internal/auth"
	"fitsymphony/internal/coach"
	"fitsymphony/internal/config"
	"fitsymphony/internal/llm"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QueueMetrics is the part of the LLM manager the status route reads.
type QueueMetrics interface {
	GetMetrics() llm.Metrics
}

// BreakerStats is implemented by tools.CircuitBreaker.
type BreakerStats interface {
	Stats() map[string]interface{}
}

type Deps struct {
	Coach    *coach.Orchestrator
	Queue    QueueMetrics // nil when no LLM is configured
	Breakers []BreakerStats
	Logger   *zap.Logger
}

func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	subpath := cfg.Server.Subpath // "" or e.g. "/fitsymphony", always starts with '/'
	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/status", statusHandler(d.Queue, d.Breakers))

		users := group.Group("", auth.AuthMiddleware(cfg.Server.JWTSecret))
		users.POST("/create_profile", CreateProfileHandler(d.Coach, logger))
		users.POST("/generate_plan", GeneratePlanHandler(d.Coach, logger))
		users.POST("/submit_feedback", SubmitFeedbackHandler(d.Coach, logger))
		users.POST("/log_progress", LogProgressHandler(d.Coach, logger))
		users.POST("/ask_ai", AskAIHandler(d.Coach, logger))
		users.POST("/get_progress", GetProgressHandler(d.Coach, logger))
		users.POST("/ingest_wearable", IngestWearableHandler(d.Coach, logger))
		users.POST("/get_badges", GetBadgesHandler(d.Coach, logger))
		users.POST("/get_metrics", GetMetricsHandler(d.Coach, logger))
		users.POST("/nutrition_lookup", NutritionLookupHandler(d.Coach, logger))

		// --- Generic event endpoint ---
		users.POST("/events/:name", EventHandler(d.Coach, logger))
	}
	return r
}
