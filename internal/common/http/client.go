// internal/common/http/client.go
package http

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client is the outbound HTTP client shared by every provider.
// Failures come back as *errors.StandardError tagged with the provider name.
type Client struct {
	httpClient *http.Client
	provider   string
	timeout    time.Duration
	userAgent  string
	sizeCap    int64
}

type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSizeCap limits how many body bytes are read.
func WithSizeCap(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.sizeCap = n
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(provider string, timeout time.Duration, opts ...Option) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	c := &Client{
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		provider:   provider,
		timeout:    timeout,
		userAgent:  defaultUserAgent,
		sizeCap:    5 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}

// Send executes req and returns the body of a 200 reply.
func (c *Client) Send(ctx context.Context, req *http.Request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.DoWithContext(ctx, req)
	if err != nil {
		return nil, apperrors.ClassifyTransportError(ctx, c.provider, c.timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewProviderStatusError(c.provider, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, apperrors.NewMalformedResponseError(c.provider, err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, c.sizeCap))
	if err != nil {
		return nil, apperrors.ClassifyTransportError(ctx, c.provider, c.timeout, err)
	}
	return data, nil
}

// SendJSON executes req and decodes a 200 JSON reply into out.
func (c *Client) SendJSON(ctx context.Context, req *http.Request, out interface{}) error {
	data, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	return DecodeJSON(c.provider, data, out)
}

// DecodeJSON decodes data into out, tagging failures with provider.
func DecodeJSON(provider string, data []byte, out interface{}) error {
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewMalformedResponseError(provider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Page is a fetched HTML document.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// FetchPage downloads an HTML page. userAgent overrides the client default when set.
func (c *Client) FetchPage(ctx context.Context, rawURL, userAgent string) (*Page, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.NewProviderRequestError(c.provider, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.DoWithContext(ctx, req)
	if err != nil {
		return nil, apperrors.ClassifyTransportError(ctx, c.provider, c.timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, apperrors.NewProviderStatusError(c.provider, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, apperrors.NewMalformedResponseError(c.provider, err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, c.sizeCap))
	if err != nil {
		return nil, apperrors.ClassifyTransportError(ctx, c.provider, c.timeout, err)
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
