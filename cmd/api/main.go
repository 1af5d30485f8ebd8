// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/promptly-ai/chat-gateway/internal/config"
	"github.com/promptly-ai/chat-gateway/internal/events"
	"github.com/promptly-ai/chat-gateway/internal/handler"
	"github.com/promptly-ai/chat-gateway/internal/llm"
	"github.com/promptly-ai/chat-gateway/internal/middleware"
	"github.com/promptly-ai/chat-gateway/internal/quota"
	"github.com/promptly-ai/chat-gateway/internal/service"
	"github.com/promptly-ai/chat-gateway/internal/store"
	"github.com/promptly-ai/chat-gateway/pkg/logger"
	"github.com/promptly-ai/chat-gateway/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-gateway", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to Postgres
	db, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}

	// Optional event publishing
	var pub events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPub, err := events.Connect(ctx, events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			pub = natsPub
			defer natsPub.Close()
		}
	}

	// Initialize LLM client
	provider := llm.Provider(cfg.LLMProvider)
	apiKey, model := cfg.GeminiAPIKey, cfg.GeminiModel
	if provider == llm.ProviderOpenAI {
		apiKey, model = cfg.OpenAIAPIKey, cfg.OpenAIModel
	}
	llmClient, err := llm.NewClient(provider, apiKey, model)
	if err != nil {
		log.Warn("LLM client unavailable, chat requests will fail", zap.Error(err))
		llmClient = nil
	}

	// Initialize services
	ledger := quota.NewLedger(db, log)
	gate := quota.NewGate(cfg.FreeDailyPromptLimit)
	chatSvc := service.NewChatService(db, llmClient, ledger, gate, pub, log, service.ChatOptions{
		HistoryWindow:         cfg.HistoryWindow,
		LLMTimeout:            cfg.LLMRequestTimeout,
		MaxOutputTokens:       cfg.MaxOutputTokens,
		PersistPartialStreams: cfg.PersistPartialStreams,
	})
	conversationSvc := service.NewConversationService(db, log)
	profileSvc := service.NewProfileService(db, ledger)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	chatHandler := handler.NewChatHandler(chatSvc, log, cfg.FreeDailyPromptLimit)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	profileHandler := handler.NewProfileHandler(profileSvc, log, cfg.FreeDailyPromptLimit, cfg.GuestPromptLimit)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/config", profileHandler.ClientConfig)

	// Chat pipeline: authentication is optional so guests can chat;
	// the quota gate applies per-identity rules downstream.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Post("/chat", chatHandler.Chat)
	})

	// Conversation management requires a session
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/me", profileHandler.Me)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Put("/", conversationHandler.Rename)
				r.Delete("/", conversationHandler.Delete)
				r.Get("/messages", conversationHandler.Messages)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
