// Package throttle limits request rates per client key.
package throttle

import (
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"golang.org/x/time/rate"
)

// Config expresses the budget as max requests per window.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// KeyedThrottle keeps one token bucket per client key (normally the
// remote IP). The bucket refills the full budget over one window, so a
// client that spends its budget is unblocked after the window elapses.
type KeyedThrottle struct {
	mu  sync.Mutex
	cfg Config

	limiters   map[string]*keyedLimiter
	lastSweep  time.Time
	sweepEvery time.Duration
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a KeyedThrottle.
func New(cfg Config) (*KeyedThrottle, error) {
	if cfg.Window <= 0 {
		return nil, errors.Errorf("window must be positive, got %s", cfg.Window)
	}
	if cfg.MaxRequests <= 0 {
		return nil, errors.Errorf("max requests must be positive, got %d", cfg.MaxRequests)
	}

	return &KeyedThrottle{
		cfg:        cfg,
		limiters:   make(map[string]*keyedLimiter),
		lastSweep:  time.Now(),
		sweepEvery: 10 * cfg.Window,
	}, nil
}

// Allow reports whether the client identified by key may proceed.
func (t *KeyedThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if now.Sub(t.lastSweep) > t.sweepEvery {
		t.sweep(now)
	}

	kl, ok := t.limiters[key]
	if !ok {
		kl = &keyedLimiter{
			limiter: rate.NewLimiter(
				rate.Limit(float64(t.cfg.MaxRequests)/t.cfg.Window.Seconds()),
				t.cfg.MaxRequests),
		}
		t.limiters[key] = kl
	}
	kl.lastSeen = now

	return kl.limiter.Allow()
}

// RetryAfter estimates how long a rejected client should wait
// before one request is allowed again.
func (t *KeyedThrottle) RetryAfter() time.Duration {
	per := time.Duration(float64(t.cfg.Window) / float64(t.cfg.MaxRequests))
	if per < time.Second {
		per = time.Second
	}

	return per
}

// Len returns the number of tracked client keys.
func (t *KeyedThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.limiters)
}

// sweep drops entries idle for more than two full windows. Caller holds mu.
func (t *KeyedThrottle) sweep(now time.Time) {
	ttl := 2 * t.cfg.Window
	for key, kl := range t.limiters {
		if now.Sub(kl.lastSeen) > ttl {
			delete(t.limiters, key)
		}
	}
	t.lastSweep = now
}
