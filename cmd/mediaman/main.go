package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmnenv "coach_server/server/common/env"
	commonlog "coach_server/server/common/log"
	mediaapp "coach_server/server/mediaman/app"
)

func main() {
	port := os.Getenv("MEDIAMAN_PORT")
	if port == "" {
		port = "8081"
	}

	server, err := mediaapp.NewServer(mediaapp.Config{
		Port:           port,
		JWTSecret:      cmnenv.String("JWT_SECRET", "change-me-in-production"),
		JWTTTLMinutes:  cmnenv.Int("JWT_TTL_MINUTES", 1440),
		MinioEndpoint:  cmnenv.String("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: cmnenv.String("MINIO_ACCESS_KEY", "minio"),
		MinioSecretKey: cmnenv.String("MINIO_SECRET_KEY", "minio123"),
		MinioBucket:    cmnenv.String("MINIO_BUCKET", "coach-videos"),
		MinioUseSSL:    cmnenv.Bool("MINIO_USE_SSL", false),
		RedisAddr:      cmnenv.String("REDIS_ADDR", ""),
		MaxUploadMB:    cmnenv.Int64("MAX_UPLOAD_MB", 150),
		SignTTLSeconds: cmnenv.Int("SIGN_TTL_SECONDS", 600),
		CORSOrigins:    cmnenv.CSV("CORS_ORIGINS", []string{"*"}),
	})
	if err != nil {
		log.Fatalf("initialize mediaman server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		commonlog.Infof("start mediaman http server on :%s", port)
		if err := server.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("run mediaman http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		commonlog.Errorf("shutdown mediaman server gracefully: %v", err)
	}
}
