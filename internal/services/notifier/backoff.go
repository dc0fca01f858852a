package notifier

import (
	"math/rand"
	"time"
)

type Rand interface {
	Intn(n int) int
}

// BackoffConfig is the delivery retry schedule. Zero fields take defaults.
type BackoffConfig struct {
	Attempts int           // default: 4
	Delay1   time.Duration // default: 100ms
	Delay2   time.Duration // default: 300ms
	Delay3   time.Duration // default: 1s
	Jitter   time.Duration // default: 50ms
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Attempts: 4,
		Delay1:   100 * time.Millisecond,
		Delay2:   300 * time.Millisecond,
		Delay3:   time.Second,
		Jitter:   50 * time.Millisecond,
	}
}

type Backoff struct {
	cfg BackoffConfig
	r   Rand
}

func NewBackoff(cfg BackoffConfig, r Rand) *Backoff {
	def := DefaultBackoffConfig()
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Delay1 <= 0 {
		cfg.Delay1 = def.Delay1
	}
	if cfg.Delay2 <= 0 {
		cfg.Delay2 = def.Delay2
	}
	if cfg.Delay3 <= 0 {
		cfg.Delay3 = def.Delay3
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Backoff{cfg: cfg, r: r}
}

func (b *Backoff) Attempts() int {
	return b.cfg.Attempts
}

// Delay is the pause after the given failed attempt (1-based).
func (b *Backoff) Delay(failed int) time.Duration {
	var d time.Duration
	switch {
	case failed <= 1:
		d = b.cfg.Delay1
	case failed == 2:
		d = b.cfg.Delay2
	default:
		d = b.cfg.Delay3
	}
	if j := int(b.cfg.Jitter / time.Millisecond); j > 0 {
		d += time.Duration(b.r.Intn(j+1)) * time.Millisecond
	}
	return d
}
