package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds the whole request including the body read.
	Timeout time.Duration

	// ConnectTimeout bounds establishing the TCP connection.
	ConnectTimeout time.Duration

	// RequestsPerSecond limits the request rate. Zero means unlimited.
	RequestsPerSecond float64

	// Logger receives debug output. The zero value discards it.
	Logger zerolog.Logger
}

// DefaultOptions returns a 30 second timeout, a 30 second connect timeout
// and no rate limit.
func DefaultOptions() Options {
	return Options{
		UserAgent:      "Mozilla/5.0",
		Timeout:        30 * time.Second,
		ConnectTimeout: 30 * time.Second,
		Logger:         zerolog.Nop(),
	}
}

// Client wraps HTTP operations for date-based fetching.
//
// Example usage:
//
//	client := NewClient(DefaultOptions())
//	resp, err := client.Fetch(ctx, url)
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient creates a new HTTP client.
//
// The transport keeps at most 8 idle connections per host and drops idle
// connections after 90 seconds.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.MaxIdleConnsPerHost = 8
	transport.IdleConnTimeout = 90 * time.Second

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent: opts.UserAgent,
		limiter:   limiter,
		log:       opts.Logger,
	}
}

// Response is a completed HTTP exchange.
//
// Body is read only for 2xx responses; for other statuses it is nil.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// Success reports whether the status is 2xx.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Fetch performs a GET request.
//
// Returns:
//   - *RequestError if the request could not be sent or no response arrived
//   - *ReadError if the status was 2xx but reading the body failed
//   - a Response for every status otherwise
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.log.Debug().Str("url", url).Msg("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	out := &Response{StatusCode: resp.StatusCode, Status: resp.Status}
	if !out.Success() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return out, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ReadError{URL: url, Err: err}
	}
	out.Body = body
	return out, nil
}

// RequestError is a transport-level failure.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ReadError is a failure while reading a successful response body.
type ReadError struct {
	URL string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read response body %s: %v", e.URL, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// NotFound reports whether the status was 404.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
