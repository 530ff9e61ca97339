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
	sessionapp "coach_server/server/sessionman/app"
)

func main() {
	port := os.Getenv("SESSIONMAN_PORT")
	if port == "" {
		port = "8083"
	}

	server, err := sessionapp.NewServer(sessionapp.Config{
		Port:          port,
		JWTSecret:     cmnenv.String("JWT_SECRET", "change-me-in-production"),
		JWTTTLMinutes: cmnenv.Int("JWT_TTL_MINUTES", 1440),
		RedisAddr:     cmnenv.String("REDIS_ADDR", ""),
		CORSOrigins:   cmnenv.CSV("CORS_ORIGINS", []string{"*"}),
	})
	if err != nil {
		log.Fatalf("initialize sessionman server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		commonlog.Infof("start sessionman http server on :%s", port)
		if err := server.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("run sessionman http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		commonlog.Errorf("shutdown sessionman server gracefully: %v", err)
	}
}
