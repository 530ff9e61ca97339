package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	coachapi "coach_server/server/coachman/api"
	"coach_server/server/coachman/repository"
	"coach_server/server/coachman/service"
	commonauth "coach_server/server/common/auth"
	"coach_server/server/common/infra/cache"
	"coach_server/server/common/infra/db"
	"coach_server/server/common/infra/mq"
	"coach_server/server/common/infra/object"
	commonlog "coach_server/server/common/log"
	"coach_server/server/common/middleware"
	"coach_server/server/common/session"
)

type Config struct {
	Port          string
	JWTSecret     string
	JWTTTLMinutes int

	PostgresDSN string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AIEndpoint  string
	AITimeout   time.Duration
	SignTTLSecs int

	RedisAddr   string
	AMQPURL     string
	CORSOrigins []string
}

type Server struct {
	HTTPServer *http.Server
	DB         *pgxpool.Pool
	Events     *mq.Publisher
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres: %w", err)
	}

	minioClient, err := object.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		return nil, fmt.Errorf("initialize minio: %w", err)
	}
	store := object.NewStore(minioClient, cfg.MinioBucket)

	var events *mq.Publisher
	if cfg.AMQPURL != "" {
		conn, err := mq.NewConnection(cfg.AMQPURL)
		if err != nil {
			commonlog.Warnf("amqp unavailable, feedback events disabled: %v", err)
		} else if events, err = mq.NewPublisher(conn); err != nil {
			commonlog.Warnf("amqp publisher setup failed, feedback events disabled: %v", err)
			events = nil
		}
	}

	var notifier session.Notifier
	if cfg.RedisAddr != "" {
		redisClient := cache.NewClient(cfg.RedisAddr)
		if err := cache.Ping(ctx, redisClient); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		notifier = cache.NewSessionNotifier(redisClient)
	}

	aiClient := service.NewAIClient(cfg.AIEndpoint, cfg.AITimeout)
	feedbackRepo := repository.NewFeedbackRepository(dbPool)
	signTTL := time.Duration(cfg.SignTTLSecs) * time.Second

	var eventPublisher service.EventPublisher
	if events != nil {
		eventPublisher = events
	}
	coachSvc := service.NewCoachService(store, aiClient, feedbackRepo, eventPublisher, notifier, signTTL)
	authSvc := commonauth.NewService(cfg.JWTSecret, cfg.JWTTTLMinutes)

	h := coachapi.NewHandler(coachSvc, authSvc)
	r := gin.Default()
	r.Use(middleware.CORS(cfg.CORSOrigins))
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return &Server{HTTPServer: httpServer, DB: dbPool, Events: events}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.Events != nil {
		s.Events.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return s.HTTPServer.Shutdown(ctx)
}
