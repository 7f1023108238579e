// Package clients provides the HTTP request layer used to talk to remote APIs.
//
// HTTPClient performs one logical request with a per-attempt timeout and
// retries transient failures (transport errors, timeouts, truncated bodies)
// with exponential backoff. Non-2xx responses are not failures at this layer:
// they are returned to the caller, which decides what they mean.
package clients

import (
	"bytes"
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/ajitpratap0/tap-typo/pkg/compression"
	"github.com/ajitpratap0/tap-typo/pkg/config"
	"github.com/ajitpratap0/tap-typo/pkg/connector/base"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
	"github.com/ajitpratap0/tap-typo/pkg/metrics"
	"github.com/ajitpratap0/tap-typo/pkg/observability"
)

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "tap-typo/1.0"

// Requester performs a logical HTTP request.
type Requester interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPClient provides an HTTP client with retries, pacing and response decoding
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	retry      *base.RetryPolicy
	limiter    *rate.Limiter
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	DialTimeout     time.Duration `json:"dial_timeout"`
	IdleConnTimeout time.Duration `json:"idle_conn_timeout"`

	// HTTP/2 settings
	EnableHTTP2 bool `json:"enable_http2"`

	// EnableCompression sends Accept-Encoding: gzip and decodes the body
	EnableCompression bool `json:"enable_compression"`

	// Rate limiting (0 = unlimited)
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	UserAgent string `json:"user_agent"`
}

// DefaultHTTPConfig returns the default configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		RequestTimeout:    20 * time.Second,
		DialTimeout:       10 * time.Second,
		IdleConnTimeout:   90 * time.Second,
		EnableHTTP2:       true,
		EnableCompression: true,
		UserAgent:         DefaultUserAgent,
	}
}

// HTTPConfigFromBase derives client settings from the unified connector config.
func HTTPConfigFromBase(cfg *config.BaseConfig) *HTTPConfig {
	hc := DefaultHTTPConfig()
	hc.RequestTimeout = cfg.Timeouts.Request
	if cfg.Timeouts.Connection > 0 {
		hc.DialTimeout = cfg.Timeouts.Connection
	}
	if cfg.Timeouts.Idle > 0 {
		hc.IdleConnTimeout = cfg.Timeouts.Idle
	}
	hc.EnableHTTP2 = cfg.Advanced.EnableHTTP2
	hc.EnableCompression = cfg.Advanced.EnableCompression
	if cfg.Reliability.IsRateLimited() {
		hc.RateLimit = cfg.Reliability.RateLimitPerSec
	}
	if cfg.Advanced.UserAgent != "" {
		hc.UserAgent = cfg.Advanced.UserAgent
	}
	return hc
}

// Option customizes an HTTPClient
type Option func(*HTTPClient)

// WithRetryPolicy replaces the default retry policy
func WithRetryPolicy(policy *base.RetryPolicy) Option {
	return func(c *HTTPClient) {
		c.retry = policy
	}
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) {
		c.httpClient.Transport = rt
	}
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(cfg *HTTPConfig, logger *zap.Logger, opts ...Option) *HTTPClient {
	if cfg == nil {
		cfg = DefaultHTTPConfig()
	}

	client := &HTTPClient{
		config: cfg,
		logger: logger.With(zap.String("component", "http_client")),
		retry:  base.DefaultRetryPolicy(),
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		DisableCompression:    true, // decoded by us so the encoding is visible
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	// Enable HTTP/2 if configured
	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
		}
	}

	client.httpClient = &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do performs req, retrying transient failures. Once retries are exhausted a
// connection error wrapping the last failure is returned.
func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	target, err := req.fullURL()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid request URL")
	}

	var body []byte
	if req.Body != nil {
		body, err = jsonpool.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to encode request body")
		}
	}

	policy := c.retry.Clone()
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.HTTPRetries.WithLabelValues(req.method()).Inc()
		c.logger.Warn("transient request failure, backing off",
			zap.String("method", req.method()),
			zap.String("url", redact(target)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	var resp *Response
	attempt := 0
	err = policy.ExecuteWithCondition(ctx, func() error {
		attempt++
		r, err := c.doOnce(ctx, req, target, body, attempt)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, func(err error) bool {
		return ctx.Err() == nil && errors.IsRetryable(err)
	})

	if err != nil {
		var exhausted *base.ExhaustedError
		if stderrors.As(err, &exhausted) {
			return nil, errors.Wrap(exhausted.Err, errors.ErrorTypeConnection,
				fmt.Sprintf("%s %s failed after %d attempts", req.method(), redact(target), exhausted.Attempts)).
				WithDetail(errors.DetailURL, redact(target))
		}
		return nil, err
	}

	return resp, nil
}

func (c *HTTPClient) doOnce(ctx context.Context, req *Request, target string, body []byte, attempt int) (resp *Response, err error) {
	ctx, span := observability.NewSpan(ctx, "http.request")
	span.SetAttribute("http.method", req.method())
	span.SetAttribute("http.url", redact(target))
	span.SetAttribute("http.attempt", attempt)
	defer func() { span.Finish(err) }()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "rate limiter wait aborted")
		}
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), target, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to build request")
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if c.config.EnableCompression {
		httpReq.Header.Set("Accept-Encoding", "gzip")
	}
	httpReq.Header.Set("User-Agent", c.userAgent())

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.HTTPRequests.WithLabelValues(req.method(), "error").Inc()
		return nil, classifyTransportError(err)
	}
	defer httpResp.Body.Close()

	data, err := readBody(httpResp)
	metrics.HTTPRequestDuration.WithLabelValues(req.method()).Observe(time.Since(start).Seconds())
	metrics.HTTPRequests.WithLabelValues(req.method(), strconv.Itoa(httpResp.StatusCode)).Inc()
	span.SetAttribute("http.status_code", httpResp.StatusCode)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("request completed",
		zap.String("method", req.method()),
		zap.String("url", redact(target)),
		zap.Int("status", httpResp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func (c *HTTPClient) userAgent() string {
	if c.config.UserAgent != "" {
		return c.config.UserAgent
	}
	return DefaultUserAgent
}

// readBody reads and decodes the full response body. Failures mid-body are
// treated like connection failures so the request is retried.
func readBody(resp *http.Response) ([]byte, error) {
	algorithm, ok := compression.ForContentEncoding(resp.Header.Get("Content-Encoding"))
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeData, "unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}

	reader, err := compression.NewReader(resp.Body, algorithm)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open response body")
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response body")
	}
	return data, nil
}

// classifyTransportError maps a failed round trip onto a retryable error type.
func classifyTransportError(err error) error {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(err, errors.ErrorTypeTimeout, "request timed out")
	}
	return errors.Wrap(err, errors.ErrorTypeConnection, "request failed")
}

// redact drops the query string from target for logging.
func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	u.RawQuery = ""
	return u.String()
}
