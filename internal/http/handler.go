package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"factory-assistant/internal/http/middleware"
	"factory-assistant/internal/service"
)

type Assistant interface {
	Ask(ctx context.Context, question string) (string, error)
	Health() service.Health
}

type Handler struct {
	assistant Assistant
	log       zerolog.Logger
}

func NewHandler(assistant Assistant, log zerolog.Logger) *Handler {
	return &Handler{assistant: assistant, log: log}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/health", h.health)

	chat := r.Group("/")
	chat.Use(authMiddleware)
	chat.POST("/chatbot", h.chat)
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id,omitempty"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	userID := req.UserID
	if principal, ok := middleware.Principal(c); ok && !principal.IsAnonymous() {
		userID = principal.UserID
	}

	ctx := c.Request.Context()
	zerolog.Ctx(ctx).Info().Str("user_id", userID).Str("message", req.Message).Msg("question received")

	answer, err := h.assistant.Ask(ctx, req.Message)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(chatResponse{
		Response:  answer,
		RequestID: middleware.RequestID(c),
		UserID:    userID,
	}))
}

func (h *Handler) health(c *gin.Context) {
	health := h.assistant.Health()
	status, code := "ok", http.StatusOK
	if !health.StoreAvailable {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": health})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, errorResponse("message is required"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
