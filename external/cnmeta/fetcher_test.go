package cnmeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/resilience"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func newTestFetcher(t *testing.T, server *httptest.Server, clock *fakeClock, breaker *resilience.CircuitBreaker) *Fetcher {
	t.Helper()
	return NewFetcher(FetcherConfig{
		HTTPClient: server.Client(),
		Throttle: resilience.NewThrottle(resilience.ThrottleConfig{
			Interval: DefaultInterval,
			Now:      clock.Now,
			Sleep:    clock.Sleep,
		}),
		Referer:        DefaultPageURL,
		Sleep:          clock.Sleep,
		CircuitBreaker: breaker,
	})
}

func statusSequence(codes ...int) (http.HandlerFunc, *atomic.Int32) {
	var hits atomic.Int32
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1))
		code := codes[len(codes)-1]
		if n <= len(codes) {
			code = codes[n-1]
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"result":0}`))
	}, &hits
}

func TestFetcher_RetriesThrottledStatuses(t *testing.T) {
	t.Parallel()

	handler, hits := statusSequence(http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusOK)
	server := httptest.NewServer(handler)
	defer server.Close()

	clock := newFakeClock()
	resp, err := newTestFetcher(t, server, clock, nil).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(resp.Body) != `{"result":0}` {
		t.Fatalf("unexpected response: %d %s", resp.StatusCode, resp.Body)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}

	// backoff 2s then throttle tops up to 10s, backoff 4s then 6s.
	want := []time.Duration{2 * time.Second, 8 * time.Second, 4 * time.Second, 6 * time.Second}
	got := clock.Sleeps()
	if len(got) != len(want) {
		t.Fatalf("unexpected sleeps: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected sleeps: %v", got)
		}
	}
}

func TestFetcher_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	handler, hits := statusSequence(http.StatusServiceUnavailable)
	server := httptest.NewServer(handler)
	defer server.Close()

	_, err := newTestFetcher(t, server, newFakeClock(), nil).Fetch(context.Background(), server.URL)
	if !crerr.Is(err, meta.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	var statusErr *StatusError
	if !crerr.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable || statusErr.Attempts != DefaultMaxAttempts {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
	if got := hits.Load(); got != DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxAttempts, got)
	}
}

func TestFetcher_OtherStatusFailsImmediately(t *testing.T) {
	t.Parallel()

	handler, hits := statusSequence(http.StatusNotFound)
	server := httptest.NewServer(handler)
	defer server.Close()

	clock := newFakeClock()
	_, err := newTestFetcher(t, server, clock, nil).Fetch(context.Background(), server.URL)
	var statusErr *StatusError
	if !crerr.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound || statusErr.Attempts != 1 {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
	if len(clock.Sleeps()) != 0 {
		t.Fatalf("expected no backoff, got %v", clock.Sleeps())
	}
}

func TestFetcher_SendsBrowserHeaders(t *testing.T) {
	t.Parallel()

	var ua, referer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		referer = r.Header.Get("Referer")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if _, err := newTestFetcher(t, server, newFakeClock(), nil).Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if ua != DefaultUserAgent || referer != DefaultPageURL {
		t.Fatalf("unexpected headers: ua=%q referer=%q", ua, referer)
	}
}

func TestFetcher_TransportErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestFetcher(t, server, newFakeClock(), nil).Fetch(context.Background(), url)
	if !crerr.Is(err, meta.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetcher_OpenBreakerFailsFast(t *testing.T) {
	t.Parallel()

	handler, hits := statusSequence(http.StatusInternalServerError)
	server := httptest.NewServer(handler)
	defer server.Close()

	breaker := resilience.NewCircuitBreaker(1, time.Hour, 1)
	fetcher := newTestFetcher(t, server, newFakeClock(), breaker)

	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected first fetch to fail")
	}
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !crerr.Is(err, resilience.ErrCircuitOpen) || !crerr.Is(err, meta.ErrUpstreamUnavailable) {
		t.Fatalf("expected open circuit error, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected breaker to block the second call, got %d hits", got)
	}
}

func TestFetcher_CanceledCallLeavesBreakerHalfOpen(t *testing.T) {
	t.Parallel()

	handler, hits := statusSequence(http.StatusInternalServerError, http.StatusOK)
	server := httptest.NewServer(handler)
	defer server.Close()

	breaker := resilience.NewCircuitBreaker(1, 10*time.Millisecond, 1)
	fetcher := newTestFetcher(t, server, newFakeClock(), breaker)

	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected first fetch to fail")
	}
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fetcher.Fetch(ctx, server.URL); err == nil {
		t.Fatalf("expected canceled fetch to fail")
	}
	if state := breaker.State(); state != resilience.CircuitStateHalfOpen {
		t.Fatalf("expected breaker to stay half-open, got %s", state)
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("expected half-open fetch to reach upstream, got %v", err)
	}
	if state := breaker.State(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected breaker closed after upstream success, got %s", state)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", got)
	}
}
