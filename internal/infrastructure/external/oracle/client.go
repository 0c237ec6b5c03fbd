// Package oracle is the content-drafting and guidance collaborator backed by
// the Anthropic Messages API. Every answer is advisory: callers substitute a
// fallback whenever a method returns an error.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"

	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/pkg/circuitbreaker"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// Config contains configuration for the oracle client.
type Config struct {
	APIKey string
	Model  string

	// MaxTokens caps each answer.
	MaxTokens int64

	// Timeout bounds one call including retries.
	Timeout time.Duration

	// MaxRetries and InitialBackoff drive the retry loop for 429 and 5xx answers.
	MaxRetries     int
	InitialBackoff time.Duration

	RateLimiter RateLimiterConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		Model:          DefaultModel,
		MaxTokens:      1024,
		Timeout:        45 * time.Second,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		RateLimiter:    DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the model.
type Client struct {
	api     anthropic.Client
	config  Config
	breaker *circuitbreaker.CircuitBreaker
	limiter *RateLimiter
	logger  *logger.Logger
}

// NewClient creates a client. A nil breaker gets the oracle preset. opts are
// passed to the Anthropic SDK and are mostly useful in tests.
func NewClient(config Config, breaker *circuitbreaker.CircuitBreaker, log *logger.Logger, opts ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, shared.ErrOracleNotConfigured
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("oracle"))

	def := DefaultConfig(config.APIKey)
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = def.MaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = def.InitialBackoff
	}

	if breaker == nil {
		breaker = circuitbreaker.OracleBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		})
	}

	// complete owns retries; the SDK loop would multiply them.
	opts = append([]option.RequestOption{option.WithAPIKey(config.APIKey), option.WithMaxRetries(0)}, opts...)
	return &Client{
		api:     anthropic.NewClient(opts...),
		config:  config,
		breaker: breaker,
		limiter: NewRateLimiter(config.RateLimiter),
		logger:  log,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.config.Model }

// complete sends one prompt and returns the first text block of the answer.
func (c *Client) complete(ctx context.Context, op, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: c.config.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	start := time.Now()
	var text string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = c.config.InitialBackoff
		policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.config.MaxRetries)), ctx)

		return backoff.RetryNotify(func() error {
			if err := c.limiter.Allow(ctx); err != nil {
				return backoff.Permanent(err)
			}
			msg, err := c.api.Messages.New(ctx, params)
			if err != nil {
				if isRateLimited(err) {
					c.limiter.RecordRateLimitHit()
				}
				if isRetryable(err) {
					return err
				}
				return backoff.Permanent(err)
			}
			if len(msg.Content) == 0 {
				return backoff.Permanent(errors.New("unexpected response format: no content blocks"))
			}
			block := msg.Content[0]
			if block.Type != "text" {
				return backoff.Permanent(fmt.Errorf("unexpected response format: not a text block (type=%s)", block.Type))
			}
			text = block.Text
			return nil
		}, policy, func(err error, wait time.Duration) {
			c.logger.Warn("oracle call failed, retrying",
				logger.Operation(op),
				logger.Duration("wait", wait),
				logger.Err(err),
			)
		})
	})
	if err != nil {
		c.logger.Error("oracle call failed",
			logger.Operation(op),
			logger.Latency(time.Since(start)),
			logger.Err(err),
		)
		return "", shared.WrapError("oracle", op, shared.ErrExternalService, "model call failed", err)
	}

	c.logger.Debug("oracle answered", logger.Operation(op), logger.Latency(time.Since(start)))
	return text, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}

func isRateLimited(err error) bool {
	var apiErr *anthropic.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
