package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/early-access-api/internal/config"
	"github.com/early-access-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/early-access-api/internal/infrastructure/jwt"
	"github.com/early-access-api/internal/infrastructure/mailer"
	s3infra "github.com/early-access-api/internal/infrastructure/s3"
	"github.com/early-access-api/internal/infrastructure/sns"
	transporthttp "github.com/early-access-api/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg.AppEnv)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	deps := &transporthttp.Deps{
		DomainRepo: dynamo.NewDomainRepo(dynamoClient, cfg.DynamoTables.CompanyDomains),
		OTPRepo:    dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.EmailOTPs),
		InviteRepo: dynamo.NewInviteRepo(dynamoClient, cfg.DynamoTables.InviteCodes),
		LeadRepo:   dynamo.NewLeadRepo(dynamoClient, cfg.DynamoTables.LeadSubmissions),
		SignupRepo: dynamo.NewSignupRepo(dynamoClient, cfg.DynamoTables.SignupSessions),
		Mailer:     mailer.New(cfg),
		Events:     sns.NopPublisher{},
	}

	if cfg.S3BucketName != "" {
		deps.ObjectStore = s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)
	} else {
		slog.Warn("S3_BUCKET_NAME not set, lead export disabled")
	}

	if pub, err := sns.NewPublisher(cfg); err == nil {
		deps.Events = pub
	} else {
		slog.Info("lead events disabled", "reason", err)
	}

	// Admin routes are only mounted when the key pair loads.
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.Tokens = p
	} else {
		slog.Warn("JWT provider not available", "err", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func setupLogger(env string) {
	var h slog.Handler
	if env == "production" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}
