package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	commonauth "coach_server/server/common/auth"
	commonlog "coach_server/server/common/log"
	"coach_server/server/common/middleware"
	"coach_server/server/common/transport/httpresp"
	"coach_server/server/sessionman/service"
)

var sessionUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Handler struct {
	hub  *service.Hub
	auth *commonauth.Service
}

func NewHandler(hub *service.Hub, auth *commonauth.Service) *Handler {
	return &Handler{hub: hub, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws/session", h.handleSessionWS)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthRequired(h.auth))
	{
		api.GET("/session/state", h.sessionState)
	}
}

func (h *Handler) handleSessionWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	userID, err := h.auth.ParseUserID(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrInvalidToken))
		return
	}

	conn, err := sessionUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		commonlog.Warnf("websocket upgrade user_id=%s: %v", userID, err)
		return
	}

	cl := &service.Client{UserID: userID, ConnID: uuid.NewString(), Conn: conn}
	h.hub.Register(cl)
	defer h.hub.Unregister(cl)

	// Reads only keep the connection alive; all traffic is server push.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) sessionState(c *gin.Context) {
	userID, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrUnauthorized))
		return
	}
	c.JSON(http.StatusOK, h.hub.StateFor(userID))
}
