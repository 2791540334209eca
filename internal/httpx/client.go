// Package httpx is the single outbound request path: every network call a
// strategy makes goes through Client.Execute, which enforces TLS-only
// transport, the per-provider host allowlist, per-provider rate limiting
// and the retry policy.
package httpx

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/quotabar/internal/provider"
)

const maxBodyBytes = 4 << 20 // provider payloads are small; cap reads

// Request describes one outbound call on behalf of a provider.
type Request struct {
	ProviderID provider.ProviderID
	Source     provider.StrategyKind
	Method     string
	URL        string
	Header     http.Header
	Body       []byte
	Timeout    time.Duration
}

type providerState struct {
	hosts   map[string]struct{}
	limiter *rate.Limiter
}

// Client executes requests. Construct with NewClient and register every
// provider's allowed hosts before fetching.
type Client struct {
	http    *http.Client
	policy  Policy
	metrics *Metrics
	capture *Capture
	log     *slog.Logger

	mu        sync.RWMutex
	providers map[provider.ProviderID]*providerState
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithCapture enables explicit debug capture of raw responses.
func WithCapture(capture *Capture) Option { return func(c *Client) { c.capture = capture } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// WithTransport overrides the transport (tests).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// NewClient builds the shared outbound client. Certificates are verified
// against the system trust store; there is no insecure toggle.
func NewClient(policy Policy, opts ...Option) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	c := &Client{
		http:      &http.Client{Transport: transport},
		policy:    policy,
		log:       slog.Default(),
		providers: make(map[provider.ProviderID]*providerState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register declares a provider's allowed destination hosts and rate
// policy. Requests for unregistered providers are rejected.
func (c *Client) Register(id provider.ProviderID, hosts []string, rp provider.RatePolicy) {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		set[h] = struct{}{}
	}
	interval := rp.Interval
	if interval <= 0 {
		interval = provider.DefaultRatePolicy.Interval
	}
	burst := rp.Burst
	if burst <= 0 {
		burst = provider.DefaultRatePolicy.Burst
	}
	limiter := rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst)

	c.mu.Lock()
	c.providers[id] = &providerState{hosts: set, limiter: limiter}
	c.mu.Unlock()
}

func (c *Client) state(id provider.ProviderID) (*providerState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.providers[id]
	return st, ok
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// checkDestination is the SSRF control: reject before dispatch anything
// outside the provider's declared domain set, and any plaintext scheme.
// Loopback destinations may use plain HTTP so local endpoints and test
// servers work; everything else is HTTPS only.
func (c *Client) checkDestination(st *providerState, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return provider.WrapErr(provider.ResultPermanent, err, "invalid url")
	}
	host := u.Hostname()
	if _, ok := st.hosts[host]; !ok {
		return provider.Errorf(provider.ResultPermanent, "destination %q not in provider allowlist", host)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if isLoopback(host) {
			return nil
		}
		return provider.Errorf(provider.ResultPermanent, "plaintext http to %q refused", host)
	default:
		return provider.Errorf(provider.ResultPermanent, "unsupported scheme %q", u.Scheme)
	}
}

// Execute performs the request with rate limiting and retries, returning
// the raw payload or a classified error.
func (c *Client) Execute(ctx context.Context, req Request) (*provider.RawResponse, error) {
	st, ok := c.state(req.ProviderID)
	if !ok {
		return nil, provider.Errorf(provider.ResultPermanent, "provider %q not registered with http layer", req.ProviderID)
	}
	if err := c.checkDestination(st, req.URL); err != nil {
		return nil, err
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var retried429 bool
	for attempt := 1; ; attempt++ {
		// Every physical attempt takes a token, so retries cannot
		// exceed the provider's documented rate either.
		if err := st.limiter.Wait(ctx); err != nil {
			return nil, provider.WrapErr(provider.ResultTransient, err, "rate limiter wait")
		}

		raw, err := c.do(ctx, req)
		if err != nil {
			if attempt < c.policy.MaxAttempts && ctx.Err() == nil {
				c.metrics.retried(string(req.ProviderID))
				c.log.Debug("request failed, retrying",
					"provider", req.ProviderID, "attempt", attempt, "error", err)
				if slept := c.sleep(ctx, c.policy.delayFor(attempt)); !slept {
					return nil, provider.WrapErr(provider.ResultTransient, ctx.Err(), "cancelled during backoff")
				}
				continue
			}
			c.metrics.observe(string(req.ProviderID), "error", 0)
			return nil, provider.WrapErr(provider.ResultTransient, err, "request failed after %d attempts", attempt)
		}

		c.metrics.observe(string(req.ProviderID), strconv.Itoa(raw.StatusCode), raw.Elapsed.Seconds())

		switch {
		case raw.StatusCode >= 200 && raw.StatusCode < 300:
			c.capture.Write(raw)
			return raw, nil

		case raw.StatusCode == http.StatusTooManyRequests:
			hint := retryAfterHint(raw.Header)
			if !retried429 && ctx.Err() == nil {
				retried429 = true
				c.metrics.retried(string(req.ProviderID))
				wait := c.policy.boundRetryAfter(hint)
				c.log.Debug("rate limited, honoring retry-after",
					"provider", req.ProviderID, "wait", wait)
				if slept := c.sleep(ctx, wait); !slept {
					return nil, provider.RateLimitedErr(hint)
				}
				continue
			}
			return nil, provider.RateLimitedErr(hint)

		case raw.StatusCode == http.StatusUnauthorized || raw.StatusCode == http.StatusForbidden:
			return nil, provider.Errorf(provider.ResultAuthRequired, "provider returned %d", raw.StatusCode)

		case raw.StatusCode >= 500:
			if attempt < c.policy.MaxAttempts && ctx.Err() == nil {
				c.metrics.retried(string(req.ProviderID))
				if slept := c.sleep(ctx, c.policy.delayFor(attempt)); !slept {
					return nil, provider.Errorf(provider.ResultTransient, "cancelled during backoff")
				}
				continue
			}
			return nil, provider.Errorf(provider.ResultTransient, "server error %d after %d attempts", raw.StatusCode, attempt)

		default:
			// Remaining 4xx are not retried.
			return nil, provider.Errorf(provider.ResultPermanent, "unexpected status %d", raw.StatusCode)
		}
	}
}

func (c *Client) do(ctx context.Context, req Request) (*provider.RawResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", "quotabar/1.0")
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return &provider.RawResponse{
		ProviderID: req.ProviderID,
		Source:     req.Source,
		StatusCode: resp.StatusCode,
		Header:     sanitizeHeader(resp.Header),
		Body:       payload,
		FetchedAt:  start,
		Elapsed:    time.Since(start),
	}, nil
}

// sleep waits for d or until ctx is done; returns false on cancellation.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// sanitizeHeader copies response headers minus anything secret-bearing.
func sanitizeHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vs := range h {
		if k == "Set-Cookie" || k == "Authorization" {
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// retryAfterHint parses a Retry-After header as delta seconds or HTTP date.
func retryAfterHint(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
