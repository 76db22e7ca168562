package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/infrastructure/http/server"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/time/rate"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, serves until a signal or a fatal error, then drains.
// Deferred cleanups run before the exit code reaches the OS.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env file is fine: the environment may already be set.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Store (in-memory BadgerDB)
	store, err := repositories.OpenInMemory(logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing store...")
		_ = store.Close()
	}()

	// 4. Moderation
	var moderator contract.IModerator
	if config.ModerationEnabled {
		data, err := moderation.NewEmbeddedLoader().LoadAll("censored")
		if err != nil {
			return exitConfig, fmt.Errorf("censored dictionaries: %w", err)
		}
		m, err := moderation.NewModerator(data.Words, charReplacement, logger)
		if err != nil {
			return exitConfig, fmt.Errorf("moderator: %w", err)
		}
		moderator = m
		logger.Info("Moderation enabled", "languages", data.Languages, "words", len(data.Words))
	}

	// 5. Runtime & Services
	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry()
	router := runtime.NewRouter(store, moderator, config.MaxContentLength, logger)
	fanout := workers.NewEventFanout(logger, registry, metrics)
	chatService := services.NewChatService(router, router, fanout, logger)
	authService := services.NewAuthService(
		store,
		auth.NewTokenizer(config.JWTSecret, config.AuthTokenDuration),
		config.PasswordPolicy(),
		argon2Params(config),
		logger,
	)

	// 6. Background workers
	sup := workers.NewSupervisor(logger)
	sup.Add(workers.NewProcessStatsWorker(logger, registry, metrics, config.MetricInterval))
	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	// 7. HTTP Server
	srv := server.NewServer(logger, authService, authService, chatService, registry, metrics, server.Options{
		SendBufferSize: config.SendBufferSize,
		MaxMessageSize: config.MaxMessageSize,
		RateLimit:      rate.Limit(config.RateLimitPerSecond),
		RateBurst:      config.RateLimitBurst,
		PingPeriod:     config.PingPeriod,
		PongWait:       config.PongWait,
		WriteWait:      config.WriteWait,
	})
	if config.DebugInspect {
		srv.WithInspector(internal.NewInspector(store, func() map[string]any {
			return map[string]any{"sessions": registry.Count()}
		}, logger))
		logger.Warn("Store inspector exposed", "path", "/debug/inspect")
	}

	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              address,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Sessions inherit ctx so a shutdown signal closes them
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
		stop()
	}

	// 9. Graceful Shutdown
	logger.Info("Shutting down gracefully...", "timeout", config.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", "error", err)
	}
	// Shutdown does not track hijacked websockets: they close through ctx and
	// must be gone before the store is released.
	if err := registry.WaitEmpty(shutdownCtx, 10*time.Millisecond); err != nil {
		logger.Warn("Sessions still open at shutdown", "sessions", registry.Count(), "error", err)
	}
	sup.Stop()
	<-supDone
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func argon2Params(config internal.Config) auth.Argon2Params {
	params := auth.DefaultArgon2Params()
	params.Memory = config.ArgonMemoryKiB
	params.Iterations = config.ArgonIterations
	params.Parallelism = config.ArgonParallelism
	return params
}
