package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vet-clinic-api/internal/adapters/oauth/google"
	"vet-clinic-api/internal/adapters/storage/postgres"
	"vet-clinic-api/internal/adapters/token/jwtauth"
	"vet-clinic-api/internal/platform/httpclient"
	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/router"
)

func main() {
	// .env es opcional; en producción las variables vienen del entorno.
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		log.Warn("JWT_SECRET not set, using insecure development secret", nil)
		secret = "dev-secret-do-not-use"
	}
	tokens := jwtauth.New(secret)

	provider := google.New(google.ConfigFromEnv(), httpclient.New(httpclient.DefaultTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		Log:      log,
		Verifier: tokens,
		Issuer:   tokens,
		Provider: provider,
	}

	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		db, err := postgres.Open(ctx, dsn)
		if err != nil {
			log.Error("could not connect to postgres", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		opts.DB = db
		log.Info("storage: postgres", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router.New(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", map[string]any{"port": port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", map[string]any{"error": err.Error()})
	}
	log.Info("server stopped cleanly", nil)
}
