package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	commonauth "coach_server/server/common/auth"
	"coach_server/server/common/infra/cache"
	"coach_server/server/common/middleware"
	sessionapi "coach_server/server/sessionman/api"
	"coach_server/server/sessionman/service"
)

type Config struct {
	Port          string
	JWTSecret     string
	JWTTTLMinutes int

	RedisAddr   string
	CORSOrigins []string
}

type Server struct {
	HTTPServer *http.Server
	Hub        *service.Hub
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub := service.NewHub()
	if cfg.RedisAddr != "" {
		redisClient := cache.NewClient(cfg.RedisAddr)
		if err := cache.Ping(ctx, redisClient); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		hub.UseRedis(redisClient)
		if err := hub.StartSubscriber(context.Background()); err != nil {
			return nil, fmt.Errorf("start session subscriber: %w", err)
		}
	}

	authSvc := commonauth.NewService(cfg.JWTSecret, cfg.JWTTTLMinutes)
	h := sessionapi.NewHandler(hub, authSvc)
	r := gin.Default()
	r.Use(middleware.CORS(cfg.CORSOrigins))
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		IdleTimeout: 60 * time.Second,
	}
	return &Server{HTTPServer: httpServer, Hub: hub}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.Hub.StopSubscriber()
	return s.HTTPServer.Shutdown(ctx)
}
