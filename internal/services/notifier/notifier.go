package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/ParcelDesk/internal/broker/messages"
	"github.com/pkg/errors"
)

type Source interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// LogSink "sends" notifications to the structured log.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, n Notification) error {
	slog.Info("notification",
		"recipient", n.Recipient,
		"tracking_number", n.TrackingNumber,
		"title", n.Title,
		"text", n.Text,
	)
	return nil
}

type Notifier struct {
	sink    Sink
	rl      RateLimiter
	backoff *Backoff

	perRecipientPerMinute int64
	restartDelay          time.Duration

	startedAtUnixNano   int64
	lastMessageUnixNano atomic.Int64
	totalConsumed       atomic.Int64
	totalNotified       atomic.Int64
	totalSkipped        atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(sink Sink, rl RateLimiter) *Notifier {
	if sink == nil {
		sink = LogSink{}
	}
	return &Notifier{
		sink:                  sink,
		rl:                    rl,
		backoff:               NewBackoff(DefaultBackoffConfig(), nil),
		perRecipientPerMinute: 30,
		restartDelay:          time.Second,
		startedAtUnixNano:     time.Now().UTC().UnixNano(),
	}
}

func (n *Notifier) WithSettings(perRecipientPerMinute int64, restartDelay time.Duration) *Notifier {
	if perRecipientPerMinute > 0 {
		n.perRecipientPerMinute = perRecipientPerMinute
	}
	if restartDelay > 0 {
		n.restartDelay = restartDelay
	}
	return n
}

func (n *Notifier) WithBackoff(cfg BackoffConfig, r Rand) *Notifier {
	n.backoff = NewBackoff(cfg, r)
	return n
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	TotalConsumed int64      `json:"totalConsumed"`
	TotalNotified int64      `json:"totalNotified"`
	TotalSkipped  int64      `json:"totalSkipped"`
	TotalErrors   int64      `json:"totalErrors"`
	LastError     string     `json:"lastError,omitempty"`
}

func (n *Notifier) Stats() Stats {
	st := Stats{
		StartedAt:     time.Unix(0, n.startedAtUnixNano).UTC(),
		TotalConsumed: n.totalConsumed.Load(),
		TotalNotified: n.totalNotified.Load(),
		TotalSkipped:  n.totalSkipped.Load(),
		TotalErrors:   n.totalErrors.Load(),
	}
	if v := n.lastMessageUnixNano.Load(); v > 0 {
		t := time.Unix(0, v).UTC()
		st.LastMessageAt = &t
	}
	n.lastErrorMu.Lock()
	st.LastError = n.lastError
	n.lastErrorMu.Unlock()
	return st
}

// Run consumes until ctx is done. A failed Consume (broker hiccup, undeliverable
// notification) is logged and the consumer is restarted after restartDelay.
func (n *Notifier) Run(ctx context.Context, src Source) error {
	for {
		err := src.Consume(ctx, func(key, value []byte) error {
			return n.Handle(ctx, key, value)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			n.recordError(err)
			slog.Error("consume parcel changes", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.restartDelay):
		}
	}
}

// Handle processes one ParcelChanged message. Undecodable messages are counted and dropped;
// only a delivery that keeps failing is returned, so the message is not committed.
func (n *Notifier) Handle(ctx context.Context, key, value []byte) error {
	n.totalConsumed.Add(1)
	n.lastMessageUnixNano.Store(time.Now().UTC().UnixNano())

	var msg messages.ParcelChanged
	if err := json.Unmarshal(value, &msg); err != nil {
		n.recordError(errors.Wrap(err, "decode parcel changed"))
		slog.Error("decode parcel changed", "key", string(key), "error", err.Error())
		return nil
	}

	note, ok := Resolve(msg)
	if !ok {
		n.totalSkipped.Add(1)
		return nil
	}

	if n.rl != nil && n.perRecipientPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:notify:%s:%s", note.Recipient, time.Now().UTC().Format("200601021504"))
		allowed, cnt, err := n.rl.Allow(ctx, minuteKey, n.perRecipientPerMinute, 70*time.Second)
		switch {
		case err != nil:
			// лимитер недоступен: лучше уведомить лишний раз, чем потерять уведомление
			slog.Warn("notify rate limiter", "error", err.Error())
		case !allowed:
			n.totalSkipped.Add(1)
			slog.Warn("notify rate limit exceeded", "recipient", note.Recipient, "count", cnt)
			return nil
		}
	}

	if err := n.deliver(ctx, note); err != nil {
		n.recordError(err)
		return err
	}
	n.totalNotified.Add(1)
	return nil
}

func (n *Notifier) deliver(ctx context.Context, note Notification) error {
	var lastErr error
	for attempt := 1; attempt <= n.backoff.Attempts(); attempt++ {
		lastErr = n.sink.Deliver(ctx, note)
		if lastErr == nil {
			return nil
		}
		if attempt == n.backoff.Attempts() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.backoff.Delay(attempt)):
		}
	}
	return errors.Wrapf(lastErr, "deliver notification for %s", note.TrackingNumber)
}

func (n *Notifier) recordError(err error) {
	n.totalErrors.Add(1)
	n.lastErrorMu.Lock()
	n.lastError = err.Error()
	n.lastErrorMu.Unlock()
}
