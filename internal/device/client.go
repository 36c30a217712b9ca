package device

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gingus/katfod/internal/logging"
	"github.com/gingus/katfod/internal/version"
)

const (
	// DefaultTimeout bounds one request from dial to the last body byte.
	DefaultTimeout = 2000 * time.Millisecond

	// maxDrainBytes caps how much of an unread body is consumed before close.
	maxDrainBytes = 64 << 10
)

// Sender issues one GET request and reports its outcome.
type Sender interface {
	Send(ctx context.Context, rawURL string, timeout time.Duration) Outcome
}

// Client talks to the feeder appliance over plain HTTP.
type Client struct {
	// HTTPClient is the underlying HTTP client. Its Timeout is left unset;
	// Send bounds every request with a context deadline instead.
	HTTPClient *http.Client

	// UserAgent is sent with every request.
	UserAgent string
}

// NewClient creates a client with a pooled transport.
func NewClient() *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	return &Client{
		HTTPClient: &http.Client{Transport: transport},
		UserAgent:  version.UserAgent(),
	}
}

// Send performs a GET on rawURL and classifies the result. A non-positive
// timeout means DefaultTimeout. Send never returns an error: every failure
// is folded into the outcome.
func (c *Client) Send(ctx context.Context, rawURL string, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()

	outcome := c.send(ctx, rawURL, timeout)
	outcome.Elapsed = time.Since(start)

	logging.LogDeviceRequest(rawURL, outcome.Code, outcome.Elapsed, outcome.Err)
	return outcome
}

func (c *Client) send(ctx context.Context, rawURL string, timeout time.Duration) Outcome {
	target, err := parseTarget(rawURL)
	if err != nil {
		return NewUnreachable(ReasonMalformedURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return NewUnreachable(ReasonMalformedURL, fmt.Errorf("%w: %v", errMalformedURL, err))
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return NewUnreachable(Classify(err), err)
	}
	defer release(resp.Body)

	if resp.StatusCode == http.StatusOK {
		return NewSuccess()
	}
	return NewDeviceError(resp.StatusCode)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	if c.HTTPClient != nil {
		c.HTTPClient.CloseIdleConnections()
	}
}

// parseTarget rejects URLs that would never reach a host.
func parseTarget(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errMalformedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", errMalformedURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host in %q", errMalformedURL, rawURL)
	}
	return u.String(), nil
}

// release drains a bounded amount of the body so the connection can be
// reused, then closes it.
func release(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	_ = body.Close()
}
