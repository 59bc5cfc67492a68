package resilience

import (
	"context"
	"sync"
	"time"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type ThrottleConfig struct {
	Interval time.Duration
	Now      func() time.Time
	Sleep    Sleeper
}

// Throttle serializes calls and keeps at least Interval between the end of
// one call and the start of the next, for every caller sharing it.
type Throttle struct {
	slot     chan struct{}
	interval time.Duration
	now      func() time.Time
	sleep    Sleeper

	mu   sync.Mutex
	last time.Time
}

func NewThrottle(cfg ThrottleConfig) *Throttle {
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}

	return &Throttle{
		slot:     make(chan struct{}, 1),
		interval: cfg.Interval,
		now:      cfg.Now,
		sleep:    cfg.Sleep,
	}
}

// Do runs fn once the interval has elapsed. The last-call timestamp is
// updated after fn returns, whatever its outcome.
func (t *Throttle) Do(ctx context.Context, fn func(context.Context) error) error {
	select {
	case t.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-t.slot }()

	if wait := t.remaining(); wait > 0 {
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
	}
	defer t.mark()

	return fn(ctx)
}

// Last returns when the most recent call finished.
func (t *Throttle) Last() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *Throttle) remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last.IsZero() {
		return 0
	}
	return t.interval - t.now().Sub(t.last)
}

func (t *Throttle) mark() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
