package cnmeta

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
)

const (
	DefaultPageURL          = "https://lolm.qq.com/act/a20220818raider/index.html"
	DefaultStatsURL         = "https://mlol.qt.qq.com/go/lgame_battle_info/hero_rank_list_v2"
	DefaultHeroMapURL       = "https://game.gtimg.cn/images/lgamem/act/lrlib/js/heroList/hero_list.js"
	DefaultScriptPathMarker = "lolm.qq.com/act/a20220818raider/js/"

	statsEndpointMarker = "hero_rank_list_v2"
)

var (
	getJSONRegex     = regexp.MustCompile(`getJSON\(\s*["']([^"']+)["']`)
	heroListURLRegex = regexp.MustCompile(`(?i)hero_?list`)
)

// Getter is the fetch primitive discovery runs on.
type Getter interface {
	Fetch(ctx context.Context, rawURL string) (Response, error)
}

type DiscovererConfig struct {
	Getter           Getter
	PageURL          string
	ScriptPathMarker string
	StatsURL         string
	HeroMapURL       string
	Logger           *logging.Logger
}

// Discoverer scrapes the landing page and its module scripts for data
// endpoints.
type Discoverer struct {
	getter     Getter
	pageURL    string
	marker     string
	statsURL   string
	heroMapURL string
	logger     *logging.Logger
}

func NewDiscoverer(cfg DiscovererConfig) *Discoverer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Discoverer{
		getter:     cfg.Getter,
		pageURL:    firstNonEmpty(cfg.PageURL, DefaultPageURL),
		marker:     firstNonEmpty(cfg.ScriptPathMarker, DefaultScriptPathMarker),
		statsURL:   firstNonEmpty(cfg.StatsURL, DefaultStatsURL),
		heroMapURL: firstNonEmpty(cfg.HeroMapURL, DefaultHeroMapURL),
		logger:     logger,
	}
}

// Fallback is the endpoint set used when discovery cannot run.
func (d *Discoverer) Fallback() meta.Endpoints {
	return meta.Endpoints{
		PageURL:    d.pageURL,
		HeroMapURL: d.heroMapURL,
		StatsURL:   d.statsURL,
		ScriptURLs: []string{},
		APIURLs:    []string{d.statsURL},
	}
}

// Discover fails only when the landing page cannot be fetched or parsed.
// Individual script failures are logged and skipped.
func (d *Discoverer) Discover(ctx context.Context) (meta.Endpoints, error) {
	page, err := d.getter.Fetch(ctx, d.pageURL)
	if err != nil {
		return meta.Endpoints{}, crerr.Wrap(err, "fetch landing page")
	}

	scriptURLs, err := ExtractScriptURLs(d.pageURL, page.Body)
	if err != nil {
		return meta.Endpoints{}, crerr.Mark(crerr.Wrap(err, "parse landing page"), meta.ErrUpstreamUnavailable)
	}

	apiSet := map[string]struct{}{d.statsURL: {}}
	for _, scriptURL := range scriptURLs {
		if !strings.Contains(scriptURL, d.marker) {
			continue
		}
		script, err := d.getter.Fetch(ctx, scriptURL)
		if err != nil {
			if ctx.Err() != nil {
				return meta.Endpoints{}, crerr.Wrap(ctx.Err(), "discover endpoints")
			}
			d.logger.WarnContext(ctx, "skip script during discovery", "script_url", scriptURL, "error", err)
			continue
		}
		for _, apiURL := range ExtractAPIURLs(d.pageURL, string(script.Body)) {
			apiSet[apiURL] = struct{}{}
		}
	}

	apiURLs := make([]string, 0, len(apiSet))
	for apiURL := range apiSet {
		apiURLs = append(apiURLs, apiURL)
	}
	sort.Strings(apiURLs)

	endpoints := meta.Endpoints{
		PageURL:    d.pageURL,
		HeroMapURL: d.heroMapURL,
		StatsURL:   d.statsURL,
		ScriptURLs: scriptURLs,
		APIURLs:    apiURLs,
	}
	for _, apiURL := range apiURLs {
		if strings.Contains(apiURL, statsEndpointMarker) && apiURL != d.statsURL {
			endpoints.StatsURL = apiURL
			break
		}
	}
	for _, candidate := range append(append([]string{}, scriptURLs...), apiURLs...) {
		if heroListURLRegex.MatchString(candidate) {
			endpoints.HeroMapURL = candidate
			break
		}
	}

	d.logger.InfoContext(ctx, "endpoints discovered",
		"scripts", len(scriptURLs),
		"api_urls", len(apiURLs),
		"stats_url", endpoints.StatsURL,
		"hero_map_url", endpoints.HeroMapURL,
	)
	return endpoints, nil
}

// ExtractScriptURLs returns every <script src> of an HTML page resolved
// against pageURL, de-duplicated in document order.
func ExtractScriptURLs(pageURL string, html []byte) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := map[string]struct{}{}
	out := make([]string, 0)
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		resolved, ok := resolve(base, src)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
	})

	return out, nil
}

// ExtractAPIURLs returns the literal getJSON endpoints of a script.
func ExtractAPIURLs(pageURL, script string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	out := make([]string, 0)
	for _, match := range getJSONRegex.FindAllStringSubmatch(script, -1) {
		if resolved, ok := resolve(base, match[1]); ok {
			out = append(out, resolved)
		}
	}
	return out
}

func resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	parsed, err := base.Parse(ref)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
