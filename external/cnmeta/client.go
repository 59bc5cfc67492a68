package cnmeta

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/cache"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
)

const (
	DefaultDiscoveryTTL = 24 * time.Hour

	endpointsCacheKey = "endpoints"
)

type ClientConfig struct {
	Getter       Getter
	Discoverer   *Discoverer
	DiscoveryTTL time.Duration
	Logger       *logging.Logger
}

// Client provides the hero map and stats payloads from the CN source.
type Client struct {
	getter     Getter
	discoverer *Discoverer
	endpoints  *cache.Store[meta.Endpoints]
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	ttl := cfg.DiscoveryTTL
	if ttl <= 0 {
		ttl = DefaultDiscoveryTTL
	}

	discoverer := cfg.Discoverer
	if discoverer == nil {
		discoverer = NewDiscoverer(DiscovererConfig{Getter: cfg.Getter, Logger: logger})
	}

	return &Client{
		getter:     cfg.Getter,
		discoverer: discoverer,
		endpoints:  cache.NewStore[meta.Endpoints](ttl),
		logger:     logger,
	}
}

// Discover runs discovery without memoization or fallback.
func (c *Client) Discover(ctx context.Context) (meta.Endpoints, error) {
	return c.discoverer.Discover(ctx)
}

// Endpoints returns memoized discovery results. A failed discovery is
// logged and answered with the configured endpoints; it is not memoized.
func (c *Client) Endpoints(ctx context.Context) meta.Endpoints {
	endpoints, err := c.endpoints.GetOrLoad(ctx, endpointsCacheKey, c.discoverer.Discover)
	if err != nil {
		c.logger.WarnContext(ctx, "endpoint discovery failed, using configured endpoints", "error", err)
		return c.discoverer.Fallback()
	}
	return endpoints
}

// FetchStatsPayload returns the whole decoded stats tree. The upstream
// serves every tier in one document; tier only labels the request.
func (c *Client) FetchStatsPayload(ctx context.Context, tier meta.Tier) (meta.RawPayload, string, error) {
	statsURL := c.Endpoints(ctx).StatsURL

	resp, err := c.getter.Fetch(ctx, statsURL)
	if err != nil {
		return nil, statsURL, err
	}

	payload, err := DecodeStatsPayload(resp.Body)
	if err != nil {
		return nil, statsURL, err
	}

	c.logger.InfoContext(ctx, "stats payload fetched", "tier", tier, "url", statsURL, "bytes", len(resp.Body))
	return payload, statsURL, nil
}

// FetchHeroMap downloads and extracts the hero identity script.
func (c *Client) FetchHeroMap(ctx context.Context) (hero.Map, string, error) {
	heroMapURL := c.Endpoints(ctx).HeroMapURL

	resp, err := c.getter.Fetch(ctx, heroMapURL)
	if err != nil {
		return nil, heroMapURL, err
	}

	items, err := hero.Extract(string(resp.Body))
	if err != nil {
		return nil, heroMapURL, crerr.Mark(crerr.Wrapf(err, "extract hero map from %s", heroMapURL), meta.ErrExtractionFailure)
	}

	c.logger.InfoContext(ctx, "hero map fetched", "url", heroMapURL, "heroes", len(items))
	return items, heroMapURL, nil
}

// DecodeStatsPayload validates the {result, data} envelope. Malformed JSON
// is ErrUpstreamUnavailable and a non-zero result is ErrUpstreamRejected.
func DecodeStatsPayload(body []byte) (meta.RawPayload, error) {
	var payload any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "decode stats payload: %s", abbreviateBody(body)), meta.ErrUpstreamUnavailable)
	}

	root, ok := payload.(map[string]any)
	if !ok {
		return nil, crerr.Wrapf(meta.ErrUpstreamUnavailable, "stats payload is %T, want object", payload)
	}

	code, ok := resultCode(root["result"])
	if !ok || code != 0 {
		return nil, crerr.Wrapf(meta.ErrUpstreamRejected, "stats payload result=%v", root["result"])
	}

	return payload, nil
}

func resultCode(raw any) (int64, bool) {
	switch typed := raw.(type) {
	case float64:
		if typed != float64(int64(typed)) {
			return 0, false
		}
		return int64(typed), true
	case string:
		code, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0, false
		}
		return code, true
	default:
		return 0, false
	}
}
