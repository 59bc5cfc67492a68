package meta

import crerr "github.com/cockroachdb/errors"

var (
	ErrInvalidArgument     = crerr.New("invalid argument")
	ErrUpstreamUnavailable = crerr.New("upstream unavailable")
	ErrUpstreamRejected    = crerr.New("upstream rejected request")
	ErrExtractionFailure   = crerr.New("extraction failure")
	ErrEmptyResult         = crerr.New("empty result")
)
