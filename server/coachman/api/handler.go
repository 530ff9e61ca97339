package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coach_server/server/coachman/domain"
	"coach_server/server/coachman/service"
	commonauth "coach_server/server/common/auth"
	"coach_server/server/common/middleware"
	"coach_server/server/common/transport/httpresp"
)

type Handler struct {
	coach *service.CoachService
	auth  *commonauth.Service
}

func NewHandler(coach *service.CoachService, auth *commonauth.Service) *Handler {
	return &Handler{coach: coach, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/analyze", h.analyze)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthRequired(h.auth))
	{
		api.GET("/sessions", h.listSessions)
	}
}

func (h *Handler) analyze(c *gin.Context) {
	var req struct {
		UserID    string `json:"userId"`
		VideoPath string `json:"videoPath"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewAnalyzeError(domain.ErrInvalidRequest.Error()))
		return
	}
	if req.UserID == "" || req.VideoPath == "" {
		c.JSON(http.StatusBadRequest, httpresp.NewAnalyzeError(domain.ErrInvalidRequest.Error()))
		return
	}

	item, err := h.coach.Analyze(c.Request.Context(), req.UserID, req.VideoPath)
	if err != nil {
		c.JSON(statusForAnalyzeError(err), httpresp.NewAnalyzeError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, httpresp.NewAnalyzeSuccess(item.FeedbackText))
}

func statusForAnalyzeError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAIUnreachable), errors.Is(err, domain.ErrAIService):
		return http.StatusServiceUnavailable
	default:
		// configuration, signing, malformed AI response, persistence
		return http.StatusInternalServerError
	}
}

func (h *Handler) listSessions(c *gin.Context) {
	userID, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrUnauthorized))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	items, err := h.coach.ListSessions(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, items)
}
