package mensa

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"

	"github.com/plt-aachen/mensabot/internal/logging"
)

// MenuSource is the interface for pluggable menu sources.
// The production implementation is HTTPSource; tests substitute fakes.
type MenuSource interface {
	// Name returns the unique name of this source (e.g. "http").
	Name() string

	// Fetch returns the parsed week menu for the given canteen.
	// Implementations must respect context cancellation.
	Fetch(ctx context.Context, canteen Canteen) (Week, error)
}

// DefaultFetchTimeout bounds the total time spent on one fetch including
// retries. The menu site is occasionally slow around noon.
const DefaultFetchTimeout = 2 * time.Minute

// HTTPSource fetches canteen week pages from the Studierendenwerk site
// and parses them. Transient failures (network errors, 5xx) are retried
// with exponential backoff until the elapsed-time budget runs out.
type HTTPSource struct {
	baseURL    string
	client     *http.Client
	markers    MeatMarkerConfig
	location   *time.Location
	maxElapsed time.Duration
	log        logr.Logger
}

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithBaseURL overrides the menu site base URL. Used by tests.
func WithBaseURL(url string) HTTPSourceOption {
	return func(s *HTTPSource) { s.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithMarkerConfig overrides the meat marker sets.
func WithMarkerConfig(m MeatMarkerConfig) HTTPSourceOption {
	return func(s *HTTPSource) { s.markers = m }
}

// WithFetchTimeout overrides the total retry budget per fetch.
func WithFetchTimeout(d time.Duration) HTTPSourceOption {
	return func(s *HTTPSource) { s.maxElapsed = d }
}

// NewHTTPSource creates an HTTPSource parsing dates in the given location.
func NewHTTPSource(loc *time.Location, log logr.Logger, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		markers:    DefaultMeatMarkerConfig(),
		location:   loc,
		maxElapsed: DefaultFetchTimeout,
		log:        log.WithName("mensa-http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements MenuSource.
func (s *HTTPSource) Name() string { return "http" }

// Fetch implements MenuSource.
func (s *HTTPSource) Fetch(ctx context.Context, canteen Canteen) (Week, error) {
	path := canteen.MenuPath()
	if path == "" {
		return nil, fmt.Errorf("no menu page known for canteen %q", canteen)
	}
	url := s.baseURL + path

	week, err := backoff.Retry(ctx, func() (Week, error) {
		return s.fetchOnce(ctx, url)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(s.maxElapsed),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching menu for %s: %w", canteen, err)
	}
	return week, nil
}

// fetchOnce performs a single request/parse attempt. Parse failures and
// client errors are permanent; everything else is worth retrying.
func (s *HTTPSource) fetchOnce(ctx context.Context, url string) (Week, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.V(logging.DEBUG).Info("Menu page request failed, will retry", "url", url, "error", err.Error())
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		s.log.V(logging.DEBUG).Info("Menu page returned server error, will retry", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("menu page returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("menu page returned status %d", resp.StatusCode))
	}

	week, err := ParseWeek(resp.Body, s.location, s.markers)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return week, nil
}
