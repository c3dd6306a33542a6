package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gyeh/npi-validator/internal/npi"
	"github.com/gyeh/npi-validator/internal/ratelimit"
)

// Client defaults.
const (
	DefaultBaseURL = "https://npiregistry.cms.hhs.gov/api/"
	DefaultVersion = "2.1"
	DefaultTimeout = 10 * time.Second

	// NPPES allows roughly two requests per second per caller.
	DefaultRateLimit  = 2
	DefaultRateWindow = time.Second

	searchLimit = 20
)

// Limiter gates outbound requests.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Client queries the NPPES NPI Registry. Each client owns its limiter unless
// one is shared explicitly through WithLimiter.
type Client struct {
	baseURL string
	version string
	timeout time.Duration
	http    *http.Client
	limiter Limiter
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLimiter sets the admission limiter shared by every request.
func WithLimiter(l Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithTimeout sets the per-request timeout. Zero or negative values fall
// back to DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		} else {
			c.timeout = DefaultTimeout
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithVersion overrides the API version query parameter.
func WithVersion(v string) ClientOption {
	return func(c *Client) {
		if v != "" {
			c.version = v
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a registry client for baseURL (DefaultBaseURL if empty).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		version: DefaultVersion,
		timeout: DefaultTimeout,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(DefaultRateLimit, DefaultRateWindow)
	}
	return c
}

// BaseURL returns the registry base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Lookup fetches the registry record for a single NPI. The number is not
// validated here; callers check it first. Returns nil, nil if the registry
// has no record. Failures are *RegistryError.
func (c *Client) Lookup(ctx context.Context, number string) (*Result, error) {
	q := url.Values{}
	q.Set("number", number)

	resp, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		return nil, nil
	}
	r := resp.Results[0]
	return &r, nil
}

// SearchByName queries the registry for individual providers matching the
// given first/last name. An optional state (2-letter code) narrows results.
// Returns up to 20 matching providers.
func (c *Client) SearchByName(ctx context.Context, firstName, lastName, state string) ([]npi.ProviderRecord, error) {
	q := url.Values{}
	q.Set("enumeration_type", EnumerationIndividual)
	q.Set("limit", fmt.Sprint(searchLimit))
	if firstName != "" {
		q.Set("first_name", firstName)
	}
	if lastName != "" {
		q.Set("last_name", lastName)
	}
	if state != "" {
		q.Set("state", strings.ToUpper(state))
	}

	resp, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}

	records := make([]npi.ProviderRecord, 0, len(resp.Results))
	for _, r := range resp.Results {
		records = append(records, ToProviderRecord(r))
	}
	return records, nil
}

// query waits for a limiter slot and performs one GET. The slot stays spent
// even if the request later times out.
func (c *Client) query(ctx context.Context, q url.Values) (*Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &RegistryError{Kind: KindTransport, Message: fmt.Sprintf("invalid registry URL: %v", err), Err: err}
	}
	params := u.Query()
	params.Set("version", c.version)
	for k, v := range q {
		params[k] = v
	}
	u.RawQuery = params.Encode()

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, transportError(fmt.Errorf("waiting for rate limiter: %w", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, &RegistryError{Kind: KindTransport, Message: fmt.Sprintf("creating request: %v", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("registry request",
		"query", u.RawQuery,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimitedError()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, decodeError(err)
	}
	if len(apiResp.Errors) > 0 {
		return nil, applicationError(apiResp.Errors)
	}
	return &apiResp, nil
}

func classifyTransport(err error) *RegistryError {
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeoutError(err)
	}
	return transportError(err)
}
