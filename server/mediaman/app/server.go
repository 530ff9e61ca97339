package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	commonauth "coach_server/server/common/auth"
	"coach_server/server/common/infra/cache"
	"coach_server/server/common/infra/object"
	"coach_server/server/common/middleware"
	"coach_server/server/common/session"
	mediaapi "coach_server/server/mediaman/api"
	"coach_server/server/mediaman/service"
)

type Config struct {
	Port          string
	JWTSecret     string
	JWTTTLMinutes int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisAddr string

	MaxUploadMB    int64
	SignTTLSeconds int
	CORSOrigins    []string
}

type Server struct {
	HTTPServer *http.Server
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	minioClient, err := object.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		return nil, fmt.Errorf("initialize minio: %w", err)
	}
	if err := object.EnsureBucket(ctx, minioClient, cfg.MinioBucket); err != nil {
		return nil, fmt.Errorf("ensure minio bucket: %w", err)
	}
	store := object.NewStore(minioClient, cfg.MinioBucket)

	signTTL := time.Duration(cfg.SignTTLSeconds) * time.Second

	var guard service.UploadGuard = cache.NewMemoryGuard()
	var notifier session.Notifier
	if cfg.RedisAddr != "" {
		redisClient := cache.NewClient(cfg.RedisAddr)
		if err := cache.Ping(ctx, redisClient); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		guard = cache.NewUploadGuard(redisClient, 2*signTTL)
		notifier = cache.NewSessionNotifier(redisClient)
	}

	uploadSvc := service.NewUploadService(store, guard, notifier, cfg.MaxUploadMB*1024*1024, signTTL)
	authSvc := commonauth.NewService(cfg.JWTSecret, cfg.JWTTTLMinutes)

	h := mediaapi.NewHandler(uploadSvc, authSvc)
	r := gin.Default()
	r.Use(middleware.CORS(cfg.CORSOrigins))
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return &Server{HTTPServer: httpServer}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTPServer.Shutdown(ctx)
}
