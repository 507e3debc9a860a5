package scholar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tabscribe/tabscribe/internal/errors"
)

// DefaultTimeout bounds a single provider request when no client is supplied.
const DefaultTimeout = 15 * time.Second

// ClientOption configures a provider client.
type ClientOption func(*client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithMailto adds the contact address both providers use for their polite pools.
func WithMailto(mailto string) ClientOption {
	return func(c *client) { c.mailto = strings.TrimSpace(mailto) }
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) ClientOption {
	return func(c *client) { c.log = log }
}

// client is the HTTP plumbing shared by the provider clients.
type client struct {
	provider   string
	baseURL    string
	mailto     string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func newClient(provider, baseURL string, opts []ClientOption) client {
	c := client{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// getJSON issues GET baseURL+path?query and decodes the body into out.
// Any network failure, non-2xx status or decode failure is returned as
// PROVIDER_UNAVAILABLE.
func (c *client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.mailto != "" {
		query.Set("mailto", c.mailto)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.NewProviderUnavailable(c.provider, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewProviderUnavailable(c.provider, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewProviderUnavailable(c.provider, resp.StatusCode, nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewProviderUnavailable(c.provider, 0, err)
	}
	return nil
}
