package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	oracleapi "github.com/cohortlabs/oracle/api"
	"github.com/cohortlabs/oracle/internal/api"
	"github.com/cohortlabs/oracle/internal/auth"
	"github.com/cohortlabs/oracle/internal/bridge"
	"github.com/cohortlabs/oracle/internal/command"
	"github.com/cohortlabs/oracle/internal/config"
	"github.com/cohortlabs/oracle/internal/database"
	"github.com/cohortlabs/oracle/internal/intent"
	"github.com/cohortlabs/oracle/internal/llm"
	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/message"
	"github.com/cohortlabs/oracle/internal/oracle"
	"github.com/cohortlabs/oracle/internal/oraclelog"
	"github.com/cohortlabs/oracle/internal/people"
	"github.com/cohortlabs/oracle/internal/resource"
	"github.com/cohortlabs/oracle/internal/stage"
	"github.com/cohortlabs/oracle/internal/team"
	"github.com/cohortlabs/oracle/internal/update"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	pool := db.Pool()
	teamRepo := team.NewRepository(pool)
	memberRepo := member.NewRepository(pool)
	updateRepo := update.NewRepository(pool)
	messageRepo := message.NewRepository(pool)

	llmClient := llm.NewClient(llm.Config{
		APIKey:    cfg.AnthropicAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}, llm.WithLimiter(llm.NewLimiter(cfg.LLMRequestsPerMinute, cfg.LLMTokensPerMinute)))
	if !llmClient.Configured() {
		slog.Warn("ANTHROPIC_API_KEY not set; answers will use canned fallbacks")
	}

	taxonomy := stage.Default()
	executor := command.NewExecutor(memberRepo, teamRepo, updateRepo, messageRepo)

	service := oracle.NewService(oracle.Deps{
		Teams:      teamRepo,
		Updates:    updateRepo,
		Members:    memberRepo,
		Classifier: stage.NewClassifier(taxonomy),
		Ranker:     resource.NewRanker(taxonomy, resource.DefaultCatalog()),
		Matcher:    people.NewMatcher(memberRepo),
		Parser:     intent.NewParser(llmClient, cfg.LLMModel),
		Executor:   executor,
		Responder: oracle.NewResponder(llmClient, oracle.ResponderConfig{
			Model:         cfg.LLMModel,
			FallbackModel: cfg.LLMFallbackModel,
			MaxTokens:     cfg.LLMMaxTokens,
			Temperature:   0.7,
			Deadline:      cfg.LLMTimeout,
		}),
		Log:      oraclelog.NewRepository(pool),
		Taxonomy: taxonomy,
	})

	deps := api.RouterDeps{
		DBPinger:    db,
		LLM:         llmClient,
		Version:     cfg.Version,
		Oracle:      service,
		OpenAPISpec: oracleapi.OpenAPISpec,
	}

	if cfg.RequireAPIKey {
		authService := auth.NewService(auth.NewRepository(pool), cfg.BcryptCost)
		if _, err := authService.BootstrapClient(ctx, "bootstrap"); err != nil {
			slog.Error("failed to bootstrap API client", "error", err)
			os.Exit(1)
		}
		deps.Authenticator = authService
	}

	if cfg.BridgePublicKey != "" {
		verifier, err := bridge.NewVerifier(cfg.BridgePublicKey)
		if err != nil {
			slog.Error("invalid bridge public key", "error", err)
			os.Exit(1)
		}
		deps.BridgeVerifier = verifier
		deps.BridgeMembers = memberRepo
		deps.Commands = executor
	} else {
		slog.Info("BRIDGE_PUBLIC_KEY not set; chat bridge disabled")
	}

	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting oracle server", "port", cfg.Port, "version", cfg.Version, "model", cfg.LLMModel)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
