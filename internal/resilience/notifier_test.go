package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSender fails with the queued errors, then succeeds.
type scriptedSender struct {
	calls  atomic.Int32
	errors []error
}

func (s *scriptedSender) SendMessage(context.Context, *bot.SendMessageParams) (*models.Message, error) {
	n := int(s.calls.Add(1))
	if n <= len(s.errors) {
		return nil, s.errors[n-1]
	}
	return &models.Message{ID: n}, nil
}

func fastConfig() Config {
	return Config{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Timeout:         time.Second,
	}
}

func newTestNotifier(next MessageSender, cfg Config) *Notifier {
	return NewNotifier(next, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var errTransient = errors.New("connection reset by peer")

func TestNotifier_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	next := &scriptedSender{errors: []error{errTransient, errTransient}}
	n := newTestNotifier(next, fastConfig())

	msg, err := n.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: 1, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 3, msg.ID)
	assert.EqualValues(t, 3, next.calls.Load())
}

func TestNotifier_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	next := &scriptedSender{errors: []error{errTransient, errTransient, errTransient, errTransient}}
	n := newTestNotifier(next, fastConfig())

	_, err := n.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: 1})
	assert.ErrorIs(t, err, ErrExhaustedRetries)
	assert.ErrorIs(t, err, errTransient)
	assert.EqualValues(t, 3, next.calls.Load())
}

func TestNotifier_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	blocked := fmt.Errorf("%w, Forbidden: bot was blocked by the user", bot.ErrorForbidden)
	cfg := fastConfig()
	cfg.MaxFailures = 1
	next := &scriptedSender{errors: []error{blocked}}
	n := newTestNotifier(next, cfg)

	_, err := n.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: 1})
	assert.ErrorIs(t, err, bot.ErrorForbidden)
	assert.EqualValues(t, 1, next.calls.Load())
	assert.Equal(t, "closed", n.State())
}

func TestNotifier_OpensCircuit(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.MaxFailures = 2
	cfg.MaxAttempts = 1
	cfg.OpenFor = time.Hour
	next := &scriptedSender{errors: []error{errTransient, errTransient}}
	n := newTestNotifier(next, cfg)

	for range 2 {
		_, err := n.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: 1})
		require.Error(t, err)
	}
	assert.Equal(t, "open", n.State())

	_, err := n.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: 1})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, next.calls.Load())
}

func TestNotifier_StopsOnCancel(t *testing.T) {
	t.Parallel()

	next := &scriptedSender{errors: []error{errTransient, errTransient, errTransient}}
	cfg := fastConfig()
	cfg.InitialInterval = time.Hour
	cfg.MaxInterval = time.Hour
	n := newTestNotifier(next, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := n.SendMessage(ctx, &bot.SendMessageParams{ChatID: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 1, next.calls.Load())
}
