package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/kbukum/authkit/resilience"
	"github.com/kbukum/authkit/version"
)

// Client sends JSON requests to the auth API. Cookies set by the server are
// kept in a jar and replayed, so a session cookie issued at login is sent
// with the logout call.
type Client struct {
	hc        *http.Client
	cfg       Config
	base      *url.URL
	userAgent string
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		hc: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
		cfg:       cfg,
		userAgent: version.UserAgent(),
	}
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("httpclient: base url: %w", err)
		}
		c.base = base
	}
	if !cfg.DisableCookies {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("httpclient: cookie jar: %w", err)
		}
		c.hc.Jar = jar
	}
	return c, nil
}

// Do sends req. A non-2xx reply returns both the Response and a classified
// *Error. With retry configured, only the last attempt's Response is kept.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if c.cfg.Retry == nil {
		return c.send(ctx, req)
	}

	var last *Response
	_, err := resilience.Retry(ctx, *c.cfg.Retry, func() (*Response, error) {
		resp, err := c.send(ctx, req)
		last = resp
		return resp, err
	})
	return last, err
}

// Cookies returns what the jar holds for the base URL.
func (c *Client) Cookies() []*http.Cookie {
	if c.hc.Jar == nil || c.base == nil {
		return nil
	}
	return c.hc.Jar.Cookies(c.base)
}

// Unwrap exposes the underlying *http.Client.
func (c *Client) Unwrap() *http.Client { return c.hc }

// URL resolves path against the base URL. Absolute URLs pass through.
func (c *Client) URL(path string) string {
	if c.base == nil || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.base.String() + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewResponseError(resp.StatusCode, fmt.Errorf("read response body: %w", err))
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string, len(resp.Header)),
		Body:       body,
		RequestID:  req.RequestID,
	}
	for k := range resp.Header {
		out.Headers[k] = resp.Header.Get(k)
	}
	if e := ClassifyStatusCode(resp.StatusCode, body); e != nil {
		return out, e
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path), body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	// Later layers override earlier ones: client defaults, then the request.
	h := httpReq.Header
	h.Set("User-Agent", c.userAgent)
	h.Set("Accept", "application/json")
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	for k, v := range c.cfg.Headers {
		h.Set(k, v)
	}
	for k, v := range req.Headers {
		h.Set(k, v)
	}
	h.Set(RequestIDHeader, req.RequestID)
	return httpReq, nil
}

// encodeBody sends []byte as is, string as text/plain and anything else as
// JSON.
func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
