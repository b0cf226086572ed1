package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies why a strategy failed.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindBrowserLaunch
	KindHTTPStatus
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindBrowserLaunch:
		return "browser launch failure"
	case KindHTTPStatus:
		return "http status"
	default:
		return "network error"
	}
}

// ErrUnsupportedStrategy is returned when a strategy name is unknown.
var ErrUnsupportedStrategy = errors.New("unsupported fetch strategy")

// FetchError describes a single strategy's failure. Inspect it with
// errors.As.
type FetchError struct {
	Strategy   string
	URL        string
	Kind       Kind
	StatusCode int // Set when Kind is KindHTTPStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("%s: http status %d fetching %s", e.Strategy, e.StatusCode, e.URL)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s fetching %s", e.Strategy, e.Kind, e.URL)
	}
	return fmt.Sprintf("%s: %s fetching %s: %v", e.Strategy, e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout.
func (e *FetchError) Timeout() bool {
	return e.Kind == KindTimeout
}

// newFetchError wraps err, classifying timeouts from context deadlines and
// net.Error implementations. Everything else is a network error.
func newFetchError(strategy, url string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	kind := KindNetwork
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &FetchError{Strategy: strategy, URL: url, Kind: kind, Err: err}
}

func launchError(strategy, url string, err error) *FetchError {
	if isTimeout(err) {
		return &FetchError{Strategy: strategy, URL: url, Kind: KindTimeout, Err: err}
	}
	return &FetchError{Strategy: strategy, URL: url, Kind: KindBrowserLaunch, Err: err}
}

func statusError(strategy, url string, code int) *FetchError {
	return &FetchError{Strategy: strategy, URL: url, Kind: KindHTTPStatus, StatusCode: code}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// Failure records one strategy that did not produce content.
type Failure struct {
	Strategy string
	Err      error
}

// AllStrategiesFailedError is returned by Resolver.Resolve when no strategy
// produced content. Failures lists each attempted strategy in trial order.
type AllStrategiesFailedError struct {
	URL      string
	Failures []Failure
}

func (e *AllStrategiesFailedError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("all fetch strategies failed for %s: no strategy available", e.URL)
	}
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.Err.Error()
	}
	return fmt.Sprintf("all fetch strategies failed for %s: %s", e.URL, strings.Join(reasons, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AllStrategiesFailedError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
