package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/todo-api-nosql/internal/application/maintenance"
	"github.com/todo-api-nosql/internal/config"
	"github.com/todo-api-nosql/internal/infrastructure/awscfg"
	"github.com/todo-api-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/todo-api-nosql/internal/infrastructure/jwt"
	"github.com/todo-api-nosql/internal/infrastructure/memory"
	s3infra "github.com/todo-api-nosql/internal/infrastructure/s3"
	"github.com/todo-api-nosql/internal/infrastructure/smtp"
	"github.com/todo-api-nosql/internal/infrastructure/sns"
	transporthttp "github.com/todo-api-nosql/internal/transport/http"
	appmiddleware "github.com/todo-api-nosql/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	tokens, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	counters := appmiddleware.NewMemoryCounterStore(nil)
	deps := &transporthttp.Deps{
		Mailer:      smtp.NewMailer(cfg),
		Tokens:      tokens,
		Counters:    counters,
		AdminEmails: cfg.AdminEmails,
	}
	if err := wireStorage(ctx, cfg, deps); err != nil {
		return err
	}

	// 5 requests/second, burst of 10, applied to the public auth endpoints.
	deps.AuthLimiter = appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	defer deps.AuthLimiter.Close()

	services := transporthttp.NewServices(deps)
	for _, email := range cfg.AdminEmails {
		if err := services.User.GrantAdmin(ctx, email); err != nil {
			slog.Warn("admin not granted, account will be promoted when it registers", "email", email, "err", err)
		}
	}

	cleaner := maintenance.NewCleaner(services.Registration,
		maintenance.WithSchedule(cfg.CleanupSchedule),
		maintenance.WithJob("@every 1m", counters.Sweep),
	)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start cleaner: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           transporthttp.NewRouter(cfg, deps, services),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		<-cleaner.Stop().Done()
		return err
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	select {
	case <-cleaner.Stop().Done():
	case <-shutdownCtx.Done():
	}
	slog.Info("server stopped")
	return nil
}

// wireStorage fills the store, archive and event dependencies for the configured driver.
func wireStorage(ctx context.Context, cfg *config.Config, deps *transporthttp.Deps) error {
	if cfg.StorageDriver == "memory" {
		slog.Warn("using in-memory storage, data is lost on restart")
		deps.Users = memory.NewUserStore()
		deps.Registrations = memory.NewRegistrationStore()
		deps.Todos = memory.NewTodoStore()
		return nil
	}

	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		return err
	}
	endpoint := awscfg.Endpoint(cfg)

	client := dynamo.NewClient(awsCfg, endpoint)
	dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
	deps.Users = dynamo.NewUserRepo(client, cfg.DynamoTables.Users, cfg.DynamoTables.UserEmails)
	deps.Registrations = dynamo.NewRegistrationRepo(client, cfg.DynamoTables.PendingRegistrations)
	deps.Todos = dynamo.NewTodoRepo(client, cfg.DynamoTables.Todos)
	deps.HealthCheck = func(ctx context.Context) error {
		return dynamo.Ping(ctx, client, cfg.DynamoTables.Users)
	}

	if cfg.S3ArchiveBucket != "" {
		deps.Archiver = s3infra.NewStore(s3infra.NewClient(awsCfg, endpoint), cfg.S3ArchiveBucket)
	}
	if cfg.SNSTopicARN != "" {
		deps.Publisher = sns.NewPublisher(sns.NewClient(awsCfg, endpoint), cfg.SNSTopicARN)
	} else {
		deps.Publisher = sns.Nop{}
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
