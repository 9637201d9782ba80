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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/studybuddy/internal/handler"
	appI18n "github.com/pavelanni/studybuddy/internal/i18n"
	"github.com/pavelanni/studybuddy/internal/llm"
	"github.com/pavelanni/studybuddy/internal/model"
	"github.com/pavelanni/studybuddy/internal/session"
	"github.com/pavelanni/studybuddy/internal/store"
)

const cleanupInterval = 10 * time.Minute

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "studybuddy",
		Short: "AI study companion: explanations, summaries, quizzes and flashcards",
	}

	serve := serveCmd()
	root.AddCommand(serve, pingCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `studybuddy --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	addLLMFlags(cmd)
	f.String("session-backend", "sqlite", "Session store (sqlite, redis, memory)")
	f.String("db", "studybuddy.db", "SQLite database path")
	f.String("redis-addr", "localhost:6379", "Redis address")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.Duration("session-ttl", store.DefaultTTL, "Lifetime of an idle session")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /study)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.Int64("max-upload", handler.DefaultMaxUpload, "Largest accepted upload in bytes")
	addLogFlags(cmd)
	return cmd
}

func pingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the model endpoint and credentials",
		RunE:  runPing,
	}
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("provider", llm.ProviderGemini, "Model provider (gemini, openai)")
	f.String("api-key", "", "API key (falls back to GOOGLE_API_KEY)")
	f.String("api-url", "", "API base URL (provider default when empty)")
	f.String("model", llm.DefaultGeminiModel, "Model name")
	f.Int("max-attempts", llm.DefaultMaxAttempts, "Attempts per generation")
	f.Duration("base-delay", llm.DefaultBaseDelay, "Backoff delay before the second attempt")
	f.Duration("request-timeout", 60*time.Second, "Timeout of a single attempt")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("STUDYBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("studybuddy")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/studybuddy")
	v.AddConfigPath("/etc/studybuddy")
	v.AddConfigPath("/run/secrets")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func newLLMClient(v *viper.Viper) (*llm.Client, error) {
	apiKey := v.GetString("api-key")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	return llm.New(llm.Config{
		Provider:       strings.ToLower(v.GetString("provider")),
		APIKey:         apiKey,
		BaseURL:        v.GetString("api-url"),
		Model:          v.GetString("model"),
		MaxAttempts:    v.GetInt("max-attempts"),
		BaseDelay:      v.GetDuration("base-delay"),
		RequestTimeout: v.GetDuration("request-timeout"),
	})
}

// sessionStore is a session.Store the server must close on shutdown.
type sessionStore interface {
	session.Store
	Close() error
}

func openSessionStore(ctx context.Context, v *viper.Viper) (sessionStore, error) {
	ttl := v.GetDuration("session-ttl")
	switch backend := strings.ToLower(v.GetString("session-backend")); backend {
	case "sqlite":
		s, err := store.New(v.GetString("db"), ttl)
		if err != nil {
			return nil, err
		}
		go store.RunCleanup(ctx, s, cleanupInterval)
		return s, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     v.GetString("redis-addr"),
			Password: v.GetString("redis-password"),
			DB:       v.GetInt("redis-db"),
		})
		s := store.NewRedisStore(client, ttl)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		return s, nil
	case "memory":
		s := store.NewMemoryStore(ttl)
		go store.RunCleanup(ctx, s, cleanupInterval)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient, err := newLLMClient(v)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	sessions, err := openSessionStore(ctx, v)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessions.Close()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	appCfg := model.AppConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		MaxUpload:     v.GetInt64("max-upload"),
		SessionTTL:    v.GetDuration("session-ttl"),
	}

	h, err := handler.New(sessions, llmClient, appCfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	cookiePath := "/"
	if basePath != "" {
		cookiePath = basePath + "/"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(cookiePath, appCfg.SecureCookies))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	// No WriteTimeout: a generation may legitimately run through every retry.
	server := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", server.Addr,
			"provider", v.GetString("provider"),
			"model", llmClient.Model(),
			"session_backend", v.GetString("session-backend"),
			"lang", lang,
			"base_path", basePath,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runPing(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	llmClient, err := newLLMClient(v)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	if err := llmClient.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "provider", v.GetString("provider"), "model", llmClient.Model())
	return nil
}
