package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		status  int
		want    Kind
	}{
		{"429", "", 429, KindRateLimited},
		{"500", "", 500, KindServerError},
		{"503 wins over message", "connection refused", 503, KindServerError},
		{"connection timed out", "Connection timed out after 30s", 0, KindConnectionTimeout},
		{"timed out", "operation timed out", 0, KindReadTimeout},
		{"dns", "DNS error: failed to lookup", 0, KindDNSFailure},
		{"name or service", "Name or service not known", 0, KindDNSFailure},
		{"no address", "No address associated with name", 0, KindDNSFailure},
		{"refused", "tcp connect error: Connection refused (os error 111)", 0, KindConnectionRefused},
		{"unreachable", "Network is unreachable", 0, KindConnectionFailed},
		{"reset", "connection reset by peer", 0, KindConnectionFailed},
		{"broken pipe", "write: broken pipe", 0, KindConnectionFailed},
		{"closed", "connection closed before message completed", 0, KindConnectionFailed},
		{"tls", "TLS handshake failure", 0, KindTLSFailure},
		{"certificate", "invalid peer certificate", 0, KindTLSFailure},
		{"decode", "failed to decode response body", 0, KindDecodeFailure},
		{"utf", "invalid UTF-8 sequence", 0, KindDecodeFailure},
		{"stream", "unexpected end of stream", 0, KindDecodeFailure},
		{"unknown", "something odd happened", 0, KindUnknown},
		{"403 is unknown", "HTTP 403 Forbidden", 403, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.message, tt.status)
			assert.Equal(t, tt.want, got.Kind, "Classify(%q, %d) = %s", tt.message, tt.status, got)
		})
	}
}

func TestClassify_Payloads(t *testing.T) {
	assert.Equal(t, 502, Classify("", 502).Status)
	assert.Equal(t, "cannot decode body", Classify("cannot decode body", 0).Message)
	assert.Equal(t, "weird", Classify("weird", 0).Message)
}

func TestCategory_RetryableAndDelay(t *testing.T) {
	tests := []struct {
		kind      Kind
		retryable bool
		delay     time.Duration
	}{
		{KindRateLimited, true, 5000 * time.Millisecond},
		{KindServerError, true, 2000 * time.Millisecond},
		{KindTLSFailure, true, 3000 * time.Millisecond},
		{KindDNSFailure, true, 2000 * time.Millisecond},
		{KindConnectionRefused, true, 2000 * time.Millisecond},
		{KindConnectionFailed, true, 2000 * time.Millisecond},
		{KindConnectionTimeout, true, 1000 * time.Millisecond},
		{KindReadTimeout, true, 1000 * time.Millisecond},
		{KindWriteTimeout, true, 1000 * time.Millisecond},
		{KindDecodeFailure, true, 1000 * time.Millisecond},
		{KindUnknown, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			c := Category{Kind: tt.kind}
			assert.Equal(t, tt.retryable, c.Retryable())
			assert.Equal(t, tt.delay, c.SuggestedDelay())
		})
	}
}

func TestClassifyError_Typed(t *testing.T) {
	dnsErr := &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "x"}}}
	assert.Equal(t, KindDNSFailure, ClassifyError(dnsErr, 0).Kind)

	refused := &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}
	assert.Equal(t, KindConnectionRefused, ClassifyError(refused, 0).Kind)

	reset := fmt.Errorf("read body: %w", syscall.ECONNRESET)
	assert.Equal(t, KindConnectionFailed, ClassifyError(reset, 0).Kind)

	eof := fmt.Errorf("read body: %w", io.ErrUnexpectedEOF)
	assert.Equal(t, KindConnectionFailed, ClassifyError(eof, 0).Kind)

	deadline := fmt.Errorf("get: %w", context.DeadlineExceeded)
	assert.Equal(t, KindReadTimeout, ClassifyError(deadline, 0).Kind)

	assert.Equal(t, KindRateLimited, ClassifyError(errors.New("HTTP 429"), 429).Kind)
	assert.Equal(t, KindUnknown, ClassifyError(errors.New("plain failure"), 0).Kind)
}

func TestPolicy_Backoff(t *testing.T) {
	p := NewPolicy(3, 1000*time.Millisecond, 30000*time.Millisecond)

	want := []time.Duration{1000, 2000, 4000, 8000, 16000}
	for attempt, w := range want {
		assert.Equal(t, w*time.Millisecond, p.Backoff(attempt), "attempt %d", attempt)
	}
	assert.Equal(t, 30*time.Second, p.Backoff(5))
	assert.Equal(t, 30*time.Second, p.Backoff(10))
	assert.Equal(t, 30*time.Second, p.Backoff(50))
}

func TestPolicy_BackoffUncappedExponent(t *testing.T) {
	p := NewPolicy(20, time.Millisecond, time.Hour)
	assert.Equal(t, 1024*time.Millisecond, p.Backoff(10))
	assert.Equal(t, 1024*time.Millisecond, p.Backoff(15))
}

func TestPolicy_Attempts(t *testing.T) {
	assert.Equal(t, 4, NewPolicy(3, time.Second, time.Minute).Attempts())
	disabled := NewPolicy(0, time.Second, time.Minute)
	assert.False(t, disabled.Enabled)
	assert.Equal(t, 1, disabled.Attempts())
	assert.Equal(t, 0, NewPolicy(-2, time.Second, time.Minute).MaxRetries)
}

func TestPolicy_ShouldRetry(t *testing.T) {
	p := NewPolicy(2, time.Second, time.Minute)
	server := Category{Kind: KindServerError, Status: 503}
	unknown := Category{Kind: KindUnknown}

	assert.True(t, p.ShouldRetry(0, server))
	assert.True(t, p.ShouldRetry(1, server))
	assert.False(t, p.ShouldRetry(2, server))
	assert.False(t, p.ShouldRetry(0, unknown))
	assert.False(t, NewPolicy(0, time.Second, time.Minute).ShouldRetry(0, server))
}

func TestPolicy_Delay(t *testing.T) {
	p := NewPolicy(3, time.Second, time.Minute)
	limited := Category{Kind: KindRateLimited}

	assert.Equal(t, time.Second, p.Delay(0, limited))

	p.HonorSuggestedDelay = true
	assert.Equal(t, 5*time.Second, p.Delay(0, limited))
	assert.Equal(t, 8*time.Second, p.Delay(3, limited))
}

func TestClassifyError_IgnoresURL(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "https://stream.example.com/dns/tls.jpg", Err: errors.New("server misbehaving")}
	assert.Equal(t, KindUnknown, ClassifyError(err, 0).Kind)
}
