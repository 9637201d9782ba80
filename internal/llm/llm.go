package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Second
)

// Transport performs a single generation attempt and returns the text of
// the first candidate. Failures worth repeating are *TransientError; unusable
// successful responses are *MalformedResponseError.
type Transport interface {
	Do(ctx context.Context, req GenerationRequest) (string, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Config holds the connection and retry settings of a Client.
type Config struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	MaxAttempts    int
	BaseDelay      time.Duration
	RequestTimeout time.Duration // per attempt; 0 disables
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the provider transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithSleeper replaces the backoff sleeper.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithLogger sets the logger used for attempt logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient sets the HTTP client used by the built-in transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client executes generation requests with exponential backoff.
type Client struct {
	cfg        Config
	transport  Transport
	sleep      Sleeper
	logger     *slog.Logger
	httpClient *http.Client
}

// New creates a new LLM client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrConfiguration
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.Provider == ProviderGemini {
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultGeminiURL
		}
		if cfg.Model == "" {
			cfg.Model = DefaultGeminiModel
		}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}

	c := &Client{
		cfg:        cfg,
		sleep:      sleepContext,
		logger:     slog.Default(),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		switch cfg.Provider {
		case ProviderGemini:
			c.transport = newGeminiTransport(c.httpClient, cfg)
		case ProviderOpenAI:
			c.transport = newOpenAITransport(c.httpClient, cfg)
		default:
			return nil, fmt.Errorf("%w: unknown provider %q", ErrConfiguration, cfg.Provider)
		}
	}
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Call sends req and returns the generated text. Transient failures are
// retried up to MaxAttempts times with a delay of BaseDelay*2^attempt
// between attempts.
func (c *Client) Call(ctx context.Context, req GenerationRequest) (string, error) {
	if c.cfg.APIKey == "" || c.transport == nil {
		return "", ErrConfiguration
	}

	var lastErr error
	for attempt := range c.cfg.MaxAttempts {
		text, err := c.attempt(ctx, req)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("llm call succeeded after retry", "attempt", attempt+1)
			}
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			c.logger.Error("llm response unusable", "attempt", attempt+1, "error", err)
			return "", &GenerationFailure{Attempts: attempt + 1, Err: err}
		}
		var transient *TransientError
		if !errors.As(err, &transient) {
			transient = &TransientError{Err: err}
		}
		lastErr = transient

		// No sleep after the final attempt.
		if attempt == c.cfg.MaxAttempts-1 {
			break
		}

		delay := c.cfg.BaseDelay * time.Duration(1<<attempt)
		c.logger.Warn("llm attempt failed, backing off",
			"attempt", attempt+1,
			"max_attempts", c.cfg.MaxAttempts,
			"delay", delay,
			"error", err,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	c.logger.Error("llm retries exhausted", "max_attempts", c.cfg.MaxAttempts, "error", lastErr)
	return "", &GenerationFailure{
		Attempts: c.cfg.MaxAttempts,
		Err:      fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr),
	}
}

// CallJSON runs req in schema mode and decodes the payload into v.
// The payload is checked against req.Schema unless the schema is lenient.
func (c *Client) CallJSON(ctx context.Context, req GenerationRequest, v any) error {
	if req.Schema == nil {
		return fmt.Errorf("CallJSON: request has no schema")
	}
	text, err := c.Call(ctx, req)
	if err != nil {
		return err
	}

	raw := json.RawMessage(text)
	if err := validateResponse(req.Schema, raw); err != nil {
		c.logger.Error("llm payload rejected", "schema", req.Schema.Name, "error", err)
		return &GenerationFailure{Attempts: 1, Err: err}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &GenerationFailure{Attempts: 1, Err: &MalformedResponseError{
			Body: raw,
			Err:  fmt.Errorf("decode %s payload: %w", req.Schema.Name, err),
		}}
	}
	return nil
}

// Ping sends a minimal free-text request with a single attempt to check the
// endpoint and credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c.cfg.APIKey == "" || c.transport == nil {
		return ErrConfiguration
	}
	_, err := c.attempt(ctx, GenerationRequest{UserInstruction: "Reply with the single word: pong"})
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.cfg.Provider, err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, req GenerationRequest) (string, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}
	start := time.Now()
	text, err := c.transport.Do(ctx, req)
	c.logger.Debug("llm attempt",
		"provider", c.cfg.Provider,
		"model", c.cfg.Model,
		"schema", schemaName(req.Schema),
		"duration", time.Since(start),
		"ok", err == nil,
	)
	return text, err
}

func schemaName(s *Schema) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
