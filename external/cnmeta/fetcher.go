package cnmeta

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/resilience"
)

const (
	DefaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	DefaultTimeout     = 20 * time.Second
	DefaultMaxAttempts = 3
	DefaultInterval    = 10 * time.Second

	maxBodyBytes = 8 << 20
)

// DefaultBackoff is the wait before the 2nd, 3rd and later attempts.
var DefaultBackoff = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

var tracer = otel.Tracer("github.com/bowjoww/wr-cn-meta-draft/external/cnmeta")

type FetcherConfig struct {
	HTTPClient     *http.Client
	Throttle       *resilience.Throttle
	Timeout        time.Duration
	MaxAttempts    int
	Backoff        []time.Duration
	UserAgent      string
	Referer        string
	Logger         *logging.Logger
	CircuitBreaker *resilience.CircuitBreaker
	Sleep          resilience.Sleeper
}

type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// StatusError is returned for a non-2xx response that is not retried
// further.
type StatusError struct {
	URL        string
	StatusCode int
	Attempts   int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d after %d attempt(s): %s", e.URL, e.StatusCode, e.Attempts, e.Body)
}

// Fetcher is the only way this module reaches the network. Every attempt,
// retries included, goes through the shared throttle.
type Fetcher struct {
	httpClient  *http.Client
	throttle    *resilience.Throttle
	maxAttempts int
	backoff     []time.Duration
	userAgent   string
	referer     string
	logger      *logging.Logger
	breaker     *resilience.CircuitBreaker
	sleep       resilience.Sleeper
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	throttle := cfg.Throttle
	if throttle == nil {
		throttle = resilience.NewThrottle(resilience.ThrottleConfig{Interval: DefaultInterval})
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	backoff := cfg.Backoff
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = resilience.SleepContext
	}

	return &Fetcher{
		httpClient:  httpClient,
		throttle:    throttle,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		userAgent:   userAgent,
		referer:     strings.TrimSpace(cfg.Referer),
		logger:      logger,
		breaker:     cfg.CircuitBreaker,
		sleep:       sleep,
	}
}

// Fetch GETs rawURL. 429 and 503 are retried with backoff up to
// maxAttempts; any other non-2xx status and every transport error fail
// immediately. All failures are marked meta.ErrUpstreamUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Response, error) {
	ctx, span := tracer.Start(ctx, "cnmeta.Fetch", trace.WithAttributes(attribute.String("url.full", rawURL)))
	defer span.End()

	if f.breaker != nil {
		if err := f.breaker.Allow(); err != nil {
			return Response{}, crerr.Mark(crerr.Wrapf(err, "fetch %s", rawURL), meta.ErrUpstreamUnavailable)
		}
	}

	resp, err := f.fetchWithRetry(ctx, rawURL)
	if f.breaker != nil {
		switch {
		case err != nil && ctx.Err() != nil:
			f.breaker.RecordCanceled()
		case isBreakerFailure(err):
			f.breaker.RecordFailure()
		default:
			f.breaker.RecordSuccess()
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return Response{}, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode), attribute.Int("http.response.body.size", len(resp.Body)))
	return resp, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL string) (Response, error) {
	var (
		last     Response
		attempts int
	)
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		attempts = attempt
		if attempt > 1 {
			delay := f.backoff[minInt(attempt-2, len(f.backoff)-1)]
			f.logger.WarnContext(ctx, "retrying upstream request",
				"url", rawURL,
				"status", last.StatusCode,
				"attempt", attempt,
				"backoff", delay,
			)
			if err := f.sleep(ctx, delay); err != nil {
				return Response{}, crerr.Wrapf(err, "fetch %s: backoff interrupted", rawURL)
			}
		}

		var resp Response
		err := f.throttle.Do(ctx, func(ctx context.Context) error {
			var reqErr error
			resp, reqErr = f.executeRequest(ctx, rawURL)
			return reqErr
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Response{}, crerr.Wrapf(ctxErr, "fetch %s", rawURL)
			}
			return Response{}, crerr.Mark(crerr.Wrapf(err, "fetch %s", rawURL), meta.ErrUpstreamUnavailable)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			return resp, nil
		}
		last = resp
		if !isRetryableStatus(resp.StatusCode) {
			break
		}
	}

	statusErr := &StatusError{
		URL:        rawURL,
		StatusCode: last.StatusCode,
		Attempts:   attempts,
		Body:       abbreviateBody(last.Body),
	}
	return Response{}, crerr.Mark(statusErr, meta.ErrUpstreamUnavailable)
}

func (f *Fetcher) executeRequest(ctx context.Context, rawURL string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodyBytes+1)); err != nil {
		return Response{}, fmt.Errorf("read response body: %w", err)
	}
	if buf.Len() > maxBodyBytes {
		return Response{}, fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)
	}

	return Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Body:       append([]byte(nil), buf.B...),
	}, nil
}

func isBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, meta.ErrUpstreamUnavailable)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

func abbreviateBody(body []byte) string {
	const max = 256
	text := strings.Join(strings.Fields(string(body)), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func minInt(left, right int) int {
	if left < right {
		return left
	}
	return right
}
