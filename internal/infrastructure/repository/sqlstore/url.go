package sqlstore

import (
	"net/url"
	"path/filepath"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseURL maps a cache database URL to its dialect and driver DSN.
// Accepted forms are postgres://, postgresql:// and sqlite://<path>.
func ParseURL(raw string) (Dialect, string, error) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		return DialectPostgres, trimmed, nil
	case strings.HasPrefix(trimmed, "sqlite://"):
		path := strings.TrimPrefix(trimmed, "sqlite://")
		if path == "" {
			return "", "", crerr.Newf("sqlite url %q has no path", raw)
		}
		return DialectSQLite, path, nil
	default:
		return "", "", crerr.Newf("unsupported cache database url %q", raw)
	}
}

// NormalizeDBURL opts postgres out of binary prepared results when asked.
func NormalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

func dbNameFromURL(dialect Dialect, dsn string) string {
	if dialect == DialectSQLite {
		path := dsn
		if idx := strings.IndexByte(path, '?'); idx >= 0 {
			path = path[:idx]
		}
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	parsed, err := url.Parse(strings.TrimSpace(dsn))
	if err == nil && parsed != nil && parsed.Scheme != "" {
		return strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
	}
	return ""
}
