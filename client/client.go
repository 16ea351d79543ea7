// Package client wraps net/http with the retry policy, default headers and
// body decoding used for page, script and reachability requests.
package client

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ytget/ytresolve/errs"
	"github.com/ytget/ytresolve/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3

	userAgentValue   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	acceptEncoding   = "gzip, deflate, br"
	acceptLanguage   = "en-US,en;q=0.9"
	initialBackoff   = 200 * time.Millisecond
	maxBackoff       = 3 * time.Second
	successMinCode   = http.StatusOK                  // 200
	retryableMinCode = http.StatusInternalServerError // 500
	maxBodyBytes     = 32 << 20
	probeRange       = "bytes=0-1"
)

// defaultTransport is a tuned HTTP transport reused across clients.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
	// Bodies are decoded by FetchText so brotli is accepted as well.
	DisableCompression: true,
	ReadBufferSize:     16 * 1024,
	WriteBufferSize:    16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional client parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	ProxyURL  string
}

// Client wraps http.Client with retry/backoff and default headers.
type Client struct {
	HTTPClient *http.Client
	Retries    int
	UserAgent  string
}

// New creates a new Client with a tuned Transport, default timeout, and retries.
func New() *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: defaultTransport,
		},
		Retries:   defaultRetries,
		UserAgent: userAgentValue,
	}
}

// NewWith creates a new client with provided config. Zero values use defaults.
func NewWith(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	tr := defaultTransport.Clone()
	if cfg.ProxyURL != "" {
		if proxyFunc, err := proxyFromURLString(cfg.ProxyURL); err == nil {
			tr.Proxy = proxyFunc
		}
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		Retries:   retries,
		UserAgent: ua,
	}
}

// Wrap builds a Client around an existing http.Client.
func Wrap(httpClient *http.Client) *Client {
	c := New()
	if httpClient != nil {
		c.HTTPClient = httpClient
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, header http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = userAgentValue
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", acceptLanguage)
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// Get performs a GET request with a simple retry policy for transient errors
// (HTTP 5xx or network failures). Responses below 500 are returned as-is.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, header)
	if err != nil {
		return nil, err
	}
	log := logger.WithComponent(logger.ComponentClient)

	retries := c.Retries
	if retries < 1 {
		retries = 1
	}
	var resp *http.Response
	backoff := initialBackoff
	for attempt := 0; attempt < retries; attempt++ {
		resp, err = c.HTTPClient.Do(req)
		if err == nil && resp.StatusCode >= successMinCode && resp.StatusCode < retryableMinCode {
			return resp, nil
		}
		if err == nil {
			log.Debug("Retryable status", map[string]interface{}{"url": rawURL, "status": resp.StatusCode, "attempt": attempt + 1})
			if attempt == retries-1 {
				return resp, nil
			}
			_ = resp.Body.Close()
		} else {
			log.Debug("Request failed", map[string]interface{}{"url": rawURL, "error": err.Error(), "attempt": attempt + 1})
		}
		if attempt == retries-1 {
			break
		}
		if serr := sleepContext(ctx, backoff); serr != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrNetworkFailure, serr)
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return nil, fmt.Errorf("%w: get %s: %v", errs.ErrNetworkFailure, rawURL, err)
}

// Head performs a single HEAD request.
func (c *Client) Head(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodHead, rawURL, header)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: head %s: %v", errs.ErrNetworkFailure, rawURL, err)
	}
	return resp, nil
}

// FetchText downloads rawURL and returns the decoded body as text.
// Non-2xx responses are reported as network failures.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	return c.FetchTextWith(ctx, rawURL, nil)
}

// FetchTextWith is FetchText with extra request headers.
func (c *Client) FetchTextWith(ctx context.Context, rawURL string, header http.Header) (string, error) {
	h := http.Header{"Accept-Encoding": []string{acceptEncoding}}
	for k, vs := range header {
		h[http.CanonicalHeaderKey(k)] = vs
	}
	resp, err := c.Get(ctx, rawURL, h)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < successMinCode || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: get %s: status %d", errs.ErrNetworkFailure, rawURL, resp.StatusCode)
	}

	body, err := ReadBody(resp)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", errs.ErrNetworkFailure, rawURL, err)
	}
	logger.WithComponent(logger.ComponentClient).Debug("Fetched text", map[string]interface{}{
		"url":      rawURL,
		"bytes":    len(body),
		"encoding": resp.Header.Get("Content-Encoding"),
	})
	return string(body), nil
}

// ReadBody reads the response body honouring Content-Encoding.
func ReadBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create deflate reader: %w", err)
		}
		defer zr.Close()
		reader = zr
	}
	return io.ReadAll(io.LimitReader(reader, maxBodyBytes))
}

// Probe checks that rawURL answers with a success status without consuming its body.
// googlevideo hosts reject HEAD, so they get a two byte ranged GET instead.
func (c *Client) Probe(ctx context.Context, rawURL string) (bool, error) {
	log := logger.WithComponent(logger.ComponentClient)
	var (
		resp *http.Response
		err  error
	)
	if isGoogleVideoHost(rawURL) {
		req, rerr := c.newRequest(ctx, http.MethodGet, rawURL, http.Header{
			"Range":           []string{probeRange},
			"Accept":          []string{"*/*"},
			"Accept-Encoding": []string{"identity"},
		})
		if rerr != nil {
			return false, rerr
		}
		resp, err = c.HTTPClient.Do(req)
		if err != nil {
			err = fmt.Errorf("%w: probe %s: %v", errs.ErrNetworkFailure, rawURL, err)
		}
	} else {
		resp, err = c.Head(ctx, rawURL, http.Header{"Accept": []string{"*/*"}})
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	ok := resp.StatusCode >= successMinCode && resp.StatusCode < http.StatusMultipleChoices
	log.Debug("Probe finished", map[string]interface{}{"status": resp.StatusCode, "ok": ok})
	return ok, nil
}

func isGoogleVideoHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	h := strings.ToLower(u.Hostname())
	return strings.HasSuffix(h, ".googlevideo.com") || h == "googlevideo.com"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return http.ProxyURL(u), nil
}
