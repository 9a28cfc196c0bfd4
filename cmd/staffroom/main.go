package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buttoners/staffroom/internal/database"
	"github.com/buttoners/staffroom/internal/logging"
	"github.com/buttoners/staffroom/internal/server"
)

func main() {
	port := os.Getenv("STAFFROOM_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("STAFFROOM_DB_PATH")
	if dbPath == "" {
		dbPath = "staffroom.db"
	}

	logger := logging.Setup(os.Getenv("STAFFROOM_LOG_LEVEL"), os.Getenv("STAFFROOM_LOG_FORMAT"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		DBPath:          dbPath,
		SecureCookie:    os.Getenv("STAFFROOM_SECURE_COOKIE") == "true",
		VAPIDPublicKey:  os.Getenv("STAFFROOM_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("STAFFROOM_VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, cfg, logger)

	// Background cleanup of expired sessions and stale rate-limit entries.
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Warn("session cleanup", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("staffroom listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
