// Package zulip is a minimal client for the Zulip REST API, covering the
// single endpoint the bot needs: sending a message to a stream.
package zulip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"github.com/plt-aachen/mensabot/internal/logging"
)

// DefaultSendTimeout bounds the total time spent on one send including
// retries.
const DefaultSendTimeout = 90 * time.Second

// The Zulip API limits bots to roughly 200 requests per minute; staying
// well below that keeps the bot from ever tripping the server-side limit.
const defaultRequestsPerSecond = 1

var errUnexpectedResponse = errors.New("unexpected response from Zulip server")

// Message is a stream message to be sent.
type Message struct {
	// Stream is the target stream name.
	Stream string
	// Topic is the message topic (Zulip API field "subject").
	Topic string
	// Content is the Markdown message body.
	Content string
}

// MessageSender sends messages to Zulip. The bot depends on this
// interface; tests substitute fakes.
type MessageSender interface {
	// SendMessage sends a stream message and returns its server-side ID.
	SendMessage(ctx context.Context, msg Message) (int64, error)
}

// Client talks to one Zulip server with one bot identity.
type Client struct {
	site       string
	email      string
	apiKey     string
	httpc      *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
	log        logr.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpc = c }
}

// WithSendTimeout overrides the total retry budget per send.
func WithSendTimeout(d time.Duration) ClientOption {
	return func(cl *Client) { cl.maxElapsed = d }
}

// WithRateLimit overrides the client-side request rate limit.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(cl *Client) { cl.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient creates a client for the given site using the bot's email and
// API key (HTTP basic auth, as in a zuliprc).
func NewClient(site, email, apiKey string, log logr.Logger, opts ...ClientOption) *Client {
	c := &Client{
		site:       strings.TrimRight(site, "/"),
		email:      email,
		apiKey:     apiKey,
		httpc:      &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
		maxElapsed: DefaultSendTimeout,
		log:        log.WithName("zulip"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage implements MessageSender. Transient failures (network
// errors, 5xx, 429) are retried with exponential backoff; other client
// errors are permanent.
func (c *Client) SendMessage(ctx context.Context, msg Message) (int64, error) {
	form := url.Values{
		"type":    {"stream"},
		"to":      {msg.Stream},
		"subject": {msg.Topic},
		"content": {msg.Content},
	}

	id, err := backoff.Retry(ctx, func() (int64, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, backoff.Permanent(err)
		}
		return c.postMessage(ctx, form)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.maxElapsed),
	)
	if err != nil {
		return 0, fmt.Errorf("sending message to stream %q: %w", msg.Stream, err)
	}

	c.log.V(logging.DEBUG).Info("Message sent", "stream", msg.Stream, "topic", msg.Topic, "id", id)
	return id, nil
}

// messageResponse is the relevant subset of the Zulip API response.
type messageResponse struct {
	Result string `json:"result"`
	Msg    string `json:"msg"`
	ID     int64  `json:"id"`
}

// postMessage performs a single POST /api/v1/messages attempt.
func (c *Client) postMessage(ctx context.Context, form url.Values) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.site+"/api/v1/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.email, c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.V(logging.DEBUG).Info("Zulip request failed, will retry", "error", err.Error())
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}

	var parsed messageResponse
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		parsed = messageResponse{}
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		c.log.V(logging.DEBUG).Info("Zulip server not ready, will retry",
			"status", resp.StatusCode, "msg", parsed.Msg)
		return 0, fmt.Errorf("zulip returned status %d: %s", resp.StatusCode, parsed.Msg)
	case resp.StatusCode != http.StatusOK:
		return 0, backoff.Permanent(fmt.Errorf("zulip returned status %d: %s", resp.StatusCode, parsed.Msg))
	case parsed.Result != "success":
		return 0, backoff.Permanent(fmt.Errorf("%w: result %q: %s", errUnexpectedResponse, parsed.Result, parsed.Msg))
	}

	return parsed.ID, nil
}
