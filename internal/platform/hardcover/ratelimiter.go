package hardcover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hardcoversync/internal/metrics"
)

// Clock abstracts time for the limiter so tests can run a virtual minute.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterConfig tunes the pacing. Hardcover publishes 60 requests per
// minute; the defaults stay at 75% of that.
type LimiterConfig struct {
	Cap           int
	Window        time.Duration
	MinSpacing    time.Duration
	TargetSpacing time.Duration
	Margin        time.Duration
}

func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Cap:           45,
		Window:        60 * time.Second,
		MinSpacing:    500 * time.Millisecond,
		TargetSpacing: 2 * time.Second,
		Margin:        100 * time.Millisecond,
	}
}

// RateLimiter paces outbound requests against a sliding window. Callers of
// Throttle are admitted one at a time in arrival order.
type RateLimiter struct {
	cfg   LimiterConfig
	clock Clock
	logf  func(msg string)

	mu     sync.Mutex
	busy   bool
	queue  []chan struct{}
	stamps []time.Time
}

func NewRateLimiter(cfg LimiterConfig) *RateLimiter {
	return NewRateLimiterWithClock(cfg, realClock{})
}

func NewRateLimiterWithClock(cfg LimiterConfig, clock Clock) *RateLimiter {
	if cfg.Cap < 1 {
		cfg.Cap = 1
	}
	return &RateLimiter{cfg: cfg, clock: clock}
}

// SetLogFunc installs a callback receiving progress and backoff messages.
func (l *RateLimiter) SetLogFunc(fn func(msg string)) {
	l.mu.Lock()
	l.logf = fn
	l.mu.Unlock()
}

// Throttle blocks until one more request may be sent, then records it.
func (l *RateLimiter) Throttle(ctx context.Context) error {
	start := l.clock.Now()
	if err := l.acquire(ctx); err != nil {
		return err
	}
	defer l.release()

	now := l.clock.Now()
	l.mu.Lock()
	l.pruneLocked(now)
	inWindow := len(l.stamps)
	var oldest, last time.Time
	if inWindow > 0 {
		oldest, last = l.stamps[0], l.stamps[inWindow-1]
	}
	l.mu.Unlock()

	var delay time.Duration
	switch {
	case inWindow >= l.cfg.Cap:
		delay = l.cfg.Window - now.Sub(oldest) + l.cfg.Margin
		l.log(fmt.Sprintf("Rate limit reached (%d/%d), waiting %ds...", inWindow, l.cfg.Cap, int(delay.Round(time.Second)/time.Second)))
	case inWindow > 0:
		spread := 2*l.cfg.TargetSpacing - l.cfg.MinSpacing
		scaled := l.cfg.MinSpacing + time.Duration(float64(spread)*float64(inWindow)/float64(l.cfg.Cap))
		delay = scaled - now.Sub(last)
		if delay > 0 {
			l.log(fmt.Sprintf("Throttling: %d/%d requests in window, waiting %dms...", inWindow, l.cfg.Cap, delay.Milliseconds()))
		}
	}

	if delay > 0 {
		if err := l.clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	sent := l.clock.Now()
	l.mu.Lock()
	l.stamps = append(l.stamps, sent)
	recorded := len(l.stamps)
	l.mu.Unlock()

	l.log(fmt.Sprintf("Request %d/%d in window (%d%% capacity)", recorded, l.cfg.Cap, recorded*100/l.cfg.Cap))
	metrics.RecordThrottleWait(sent.Sub(start))
	return nil
}

// inWindow reports how many recorded requests are still inside the window.
func (l *RateLimiter) inWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.clock.Now().Add(-l.cfg.Window)
	n := 0
	for _, t := range l.stamps {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// acquire waits for this caller's turn. Turns are handed directly from one
// caller to the next so no late arrival can overtake a queued one.
func (l *RateLimiter) acquire(ctx context.Context) error {
	l.mu.Lock()
	if !l.busy {
		l.busy = true
		l.mu.Unlock()
		return nil
	}
	turn := make(chan struct{})
	l.queue = append(l.queue, turn)
	l.mu.Unlock()

	select {
	case <-turn:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		for i, ch := range l.queue {
			if ch == turn {
				l.queue = append(l.queue[:i], l.queue[i+1:]...)
				l.mu.Unlock()
				return ctx.Err()
			}
		}
		l.mu.Unlock()
		// The turn was handed over while we were cancelled; pass it on.
		l.release()
		return ctx.Err()
	}
}

func (l *RateLimiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		l.busy = false
		return
	}
	next := l.queue[0]
	l.queue = l.queue[1:]
	close(next)
}

// pruneLocked drops timestamps that left the window.
func (l *RateLimiter) pruneLocked(now time.Time) {
	keep := l.stamps[:0]
	for _, t := range l.stamps {
		if now.Sub(t) < l.cfg.Window {
			keep = append(keep, t)
		}
	}
	l.stamps = keep
}

func (l *RateLimiter) log(msg string) {
	l.mu.Lock()
	fn := l.logf
	l.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
