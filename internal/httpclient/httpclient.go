// Package httpclient provides an instrumented HTTP client for
// provider integrations: connection pooling, OTEL tracing on the
// request lifecycle, and a request counter per provider.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	meterName            = "httpclient"
	metricRequestCounter = "http_client_requests_total"
)

// Client issues JSON GET requests against one provider's base URL.
type Client struct {
	http         *http.Client
	baseURL      string
	providerName string
	headers      map[string]string
	counter      metric.Int64Counter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the URL prefix for all requests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithProviderName labels metrics and spans with the provider.
func WithProviderName(name string) Option {
	return func(c *Client) { c.providerName = name }
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHeaders sets headers sent on every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// New creates an instrumented client.
func New(opts ...Option) (*Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			KeepAlive: defaultDialKeepAlive,
		}).DialContext,
		MaxConnsPerHost: defaultMaxConnsPerHost,
		IdleConnTimeout: defaultIdleConnTimeout,
	}

	c := &Client{
		http: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: otelhttp.NewTransport(transport,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				})),
		},
		headers: map[string]string{"Accept": "application/json"},
	}
	for _, opt := range opts {
		opt(c)
	}

	counter, err := otel.Meter(meterName).Int64Counter(metricRequestCounter,
		metric.WithDescription("Outbound HTTP requests by provider and status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}
	c.counter = counter

	return c, nil
}

// GetJSON fetches path with the given query parameters and decodes the
// response body into result. Non-2xx responses return an error with
// the body included.
func (c *Client) GetJSON(ctx context.Context, path string, query map[string]string, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		values := url.Values{}
		for k, v := range query {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	c.count(ctx, resp, err)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, result)
}

func (c *Client) count(ctx context.Context, resp *http.Response, err error) {
	status := "error"
	if err == nil && resp != nil {
		status = fmt.Sprintf("%d", resp.StatusCode)
	}
	c.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", c.providerName),
		attribute.String("status", status),
	))
}
