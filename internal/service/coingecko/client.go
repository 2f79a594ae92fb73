package coingecko

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"TraderGenie/internal/service/gateway"
	xhttp "TraderGenie/pkg/http"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

var (
	// ErrRateLimited marks a 429 from CoinGecko.
	ErrRateLimited = errors.New("coingecko rate limit hit")
	// ErrNotFound marks a 404, e.g. an unknown coin id.
	ErrNotFound = errors.New("coingecko resource not found")
)

// Client performs single live calls against the CoinGecko REST API. It has
// no cache or retry of its own; the gateway owns both concerns.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

var _ gateway.Fetcher = (*Client)(nil)

type Option func(*Client)

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout))
	return c
}

// Fetch issues one GET for req and returns the raw body. Non-2xx is an error.
func (c *Client) Fetch(ctx context.Context, req gateway.Request) ([]byte, error) {
	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["x-cg-demo-api-key"] = c.apiKey
	}

	var body []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + req.Endpoint,
		Headers:     headers,
		QueryParams: req.Params,
	}, &body)
	if xhttp.IsRateLimited(err) {
		return nil, fmt.Errorf("%w: %s: %w", ErrRateLimited, req.Endpoint, err)
	}
	if xhttp.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, req.Endpoint, err)
	}
	if err != nil {
		return nil, fmt.Errorf("coingecko %s: %w", req.Endpoint, err)
	}
	return body, nil
}

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets the transport level timeout. The gateway applies its own
// per-call bound on top.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}
