// Package resilience protects outgoing Telegram calls with retries and a
// circuit breaker, so a flapping API does not stall scheduled tasks.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = gobreaker.ErrOpenState
	// ErrExhaustedRetries indicates retry attempts were exhausted.
	ErrExhaustedRetries = errors.New("retry attempts exhausted")
)

// MessageSender sends one Telegram message. *bot.Bot satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Config tunes a Notifier. Zero fields take the defaults below.
type Config struct {
	Name            string
	MaxFailures     int           // consecutive failures that open the circuit
	OpenFor         time.Duration // how long the circuit stays open
	Timeout         time.Duration // per attempt
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "telegram"
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.OpenFor <= 0 {
		c.OpenFor = time.Minute
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 200 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	return c
}

// Notifier wraps a MessageSender with retries and a circuit breaker.
type Notifier struct {
	next   MessageSender
	cfg    Config
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewNotifier wraps next.
func NewNotifier(next MessageSender, cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	log := logger.With("component", "notifier", "breaker", cfg.Name)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		// A user who blocked the bot or a malformed request says nothing
		// about the health of the API.
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	}

	return &Notifier{
		next:   next,
		cfg:    cfg,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: log,
	}
}

// IsClientError reports whether Telegram rejected the request itself, in
// which case retrying cannot help.
func IsClientError(err error) bool {
	return errors.Is(err, bot.ErrorForbidden) || errors.Is(err, bot.ErrorBadRequest)
}

// SendMessage sends params, retrying transient failures with exponential
// backoff and jitter.
func (n *Notifier) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	interval := n.cfg.InitialInterval
	var lastErr error

	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		result, err := n.cb.Execute(func() (interface{}, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
			defer cancel()
			return n.next.SendMessage(attemptCtx, params)
		})
		if err == nil {
			msg, _ := result.(*models.Message)
			return msg, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("send abandoned: %w", ctx.Err())
		}
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, gobreaker.ErrTooManyRequests) || IsClientError(err) {
			return nil, err
		}
		if attempt == n.cfg.MaxAttempts {
			break
		}

		wait := jitter(interval)
		n.logger.DebugContext(ctx, "Send failed, retrying",
			"attempt", attempt,
			"max_attempts", n.cfg.MaxAttempts,
			"next_interval", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("send abandoned: %w", ctx.Err())
		case <-timer.C:
		}
		interval = min(interval*2, n.cfg.MaxInterval)
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhaustedRetries, n.cfg.MaxAttempts, lastErr)
}

// State reports the breaker state, for logs and tests.
func (n *Notifier) State() string {
	return n.cb.State().String()
}

// jitter spreads d by ±10%.
func jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.9 + 0.2*rand.Float64()))
}
