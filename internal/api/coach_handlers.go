package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"fitsymphony/internal/auth"
	"fitsymphony/internal/coach"
	"fitsymphony/internal/state"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserRequest struct {
	UserID string `json:"user_id"`
}

func (r UserRequest) GetUserID() string { return strings.TrimSpace(r.UserID) }

type userScoped interface {
	GetUserID() string
}

type CreateProfileRequest struct {
	UserRequest
	Profile state.Profile `json:"profile"`
}

type GeneratePlanRequest struct {
	UserRequest
	Days    *int           `json:"days"`
	Profile *state.Profile `json:"profile"`
}

type SubmitFeedbackRequest struct {
	UserRequest
	FeedbackText string `json:"feedback_text"`
}

type LogProgressRequest struct {
	UserRequest
	state.ProgressEntry
}

type AskRequest struct {
	UserRequest
	Question string `json:"question"`
}

type IngestWearableRequest struct {
	UserRequest
	Metrics state.Metrics `json:"metrics"`
}

type NutritionLookupRequest struct {
	UserRequest
	Query string `json:"query"`
}

type EventRequest struct {
	UserRequest
	Payload json.RawMessage `json:"payload"`
}

// bindUserRequest decodes the body and checks the caller may act for the
// user it names. It writes the error response itself.
func bindUserRequest(c *gin.Context, req userScoped) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("Invalid request"))
		return false
	}
	userID := req.GetUserID()
	if userID == "" {
		c.JSON(http.StatusBadRequest, errorJSON("user_id is required"))
		return false
	}
	if !auth.CanAct(c, userID) {
		c.JSON(http.StatusForbidden, errorJSON("Forbidden"))
		return false
	}
	return true
}

// respondError maps coach errors to a status. Validation errors use
// validationStatus; anything else is logged and reported as a 500.
func respondError(c *gin.Context, logger *zap.Logger, err error, validationStatus int) {
	if coach.IsValidation(err) {
		c.JSON(validationStatus, errorJSON(err.Error()))
		return
	}
	_ = c.Error(err)
	logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorJSON("Internal server error"))
}

// The named routes keep the dashboard contract: every failure is a 500.

// POST /create_profile
func CreateProfileHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProfileRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.CreateProfile(c.Request.Context(), req.GetUserID(), req.Profile)
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /generate_plan
func GeneratePlanHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GeneratePlanRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.Handle(c.Request.Context(), req.GetUserID(), coach.GeneratePlan{Days: req.Days, Profile: req.Profile})
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /submit_feedback
func SubmitFeedbackHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitFeedbackRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.SubmitFeedback(c.Request.Context(), req.GetUserID(), req.FeedbackText)
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /log_progress
func LogProgressHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LogProgressRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.LogProgress(c.Request.Context(), req.GetUserID(), req.ProgressEntry)
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /ask_ai
func AskAIHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AskRequest
		if !bindUserRequest(c, &req) {
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			c.JSON(http.StatusBadRequest, errorJSON("Question text is required"))
			return
		}
		res, err := orch.AskAI(c.Request.Context(), req.GetUserID(), req.Question)
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /get_progress
func GetProgressHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.GetProgress(c.Request.Context(), req.GetUserID())
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /ingest_wearable
func IngestWearableHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IngestWearableRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.IngestWearable(c.Request.Context(), req.GetUserID(), req.Metrics)
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /get_badges
func GetBadgesHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.GetBadges(c.Request.Context(), req.GetUserID())
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /get_metrics
func GetMetricsHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.GetMetrics(c.Request.Context(), req.GetUserID())
		if err != nil {
			respondError(c, logger, err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /nutrition_lookup
func NutritionLookupHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NutritionLookupRequest
		if !bindUserRequest(c, &req) {
			return
		}
		res, err := orch.LookupNutrition(c.Request.Context(), req.GetUserID(), req.Query)
		if err != nil {
			respondError(c, logger, err, http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /events/:name
func EventHandler(orch *coach.Orchestrator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventRequest
		if !bindUserRequest(c, &req) {
			return
		}
		ev, err := coach.ParseEvent(c.Param("name"), req.Payload)
		if err != nil {
			respondError(c, logger, err, http.StatusBadRequest)
			return
		}
		res, err := orch.Handle(c.Request.Context(), req.GetUserID(), ev)
		if err != nil {
			respondError(c, logger, err, http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
