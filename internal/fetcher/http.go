package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/parcel-risk/internal/resilience"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Options configures the HTTP client.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// RateLimit is the per-host request rate in requests per second.
	RateLimit float64
	// Transport overrides the default transport (tests).
	Transport http.RoundTripper
}

// Client issues single-shot GET requests against public data APIs. It never
// retries: a failed call is returned to the caller as-is, marked transient
// when it looked temporary.
type Client struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a Client with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "parcel-risk/1.0"
	}
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     20,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[host]
	if !ok {
		burst := int(c.opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(c.opts.RateLimit), burst)
		c.limiters[host] = lim
	}
	return lim
}

// Get fetches rawURL with the given query parameters and returns the body.
// Errors never include the query string, which carries the service key.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	endpoint := u.Host + u.Path

	if err := c.limiterFor(u.Host).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/xml")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error embeds the full URL; report the endpoint only.
		var cause error = err
		var ue *url.Error
		if errors.As(err, &ue) {
			cause = ue.Err
		}
		wrapped := eris.Wrapf(cause, "fetcher: get %s", endpoint)
		if reason := resilience.Classify(err); reason != resilience.Permanent {
			return nil, &resilience.TransientError{Err: wrapped, Reason: reason}
		}
		return nil, wrapped
	}
	defer resp.Body.Close() //nolint:errcheck

	zap.L().Debug("fetcher: response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		statusErr := eris.Errorf("fetcher: http %d from %s", resp.StatusCode, endpoint)
		if reason := resilience.ClassifyStatus(resp.StatusCode); reason != resilience.Permanent {
			return nil, &resilience.TransientError{Err: statusErr, StatusCode: resp.StatusCode, Reason: reason}
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		wrapped := eris.Wrapf(err, "fetcher: read body from %s", endpoint)
		if reason := resilience.Classify(err); reason != resilience.Permanent {
			return nil, &resilience.TransientError{Err: wrapped, Reason: reason}
		}
		return nil, wrapped
	}
	return body, nil
}
