package retry

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// Kind enumerates the closed set of failure categories.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnectionTimeout
	KindDNSFailure
	KindConnectionRefused
	KindConnectionFailed
	KindReadTimeout
	KindWriteTimeout
	KindTLSFailure
	KindRateLimited
	KindServerError
	KindDecodeFailure
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindConnectionTimeout: "connection-timeout",
	KindDNSFailure:        "dns-failure",
	KindConnectionRefused: "connection-refused",
	KindConnectionFailed:  "connection-failed",
	KindReadTimeout:       "read-timeout",
	KindWriteTimeout:      "write-timeout",
	KindTLSFailure:        "tls-failure",
	KindRateLimited:       "rate-limited",
	KindServerError:       "server-error",
	KindDecodeFailure:     "decode-failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Category is one classified failure.
//
// Status is set only for KindServerError; Message only for
// KindDecodeFailure and KindUnknown.
type Category struct {
	Kind    Kind
	Status  int
	Message string
}

// Retryable reports whether a failure of this category may be retried.
// Every category except unknown is retryable.
func (c Category) Retryable() bool {
	return c.Kind != KindUnknown
}

// SuggestedDelay returns the category's preferred wait before retrying.
func (c Category) SuggestedDelay() time.Duration {
	switch c.Kind {
	case KindRateLimited:
		return 5 * time.Second
	case KindTLSFailure:
		return 3 * time.Second
	case KindServerError, KindDNSFailure, KindConnectionRefused, KindConnectionFailed:
		return 2 * time.Second
	case KindConnectionTimeout, KindReadTimeout, KindWriteTimeout, KindDecodeFailure:
		return time.Second
	default:
		return 0
	}
}

func (c Category) String() string {
	switch c.Kind {
	case KindServerError:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Status)
	case KindDecodeFailure, KindUnknown:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Message)
	default:
		return c.Kind.String()
	}
}

var (
	dnsPatterns        = []string{"dns", "name or service not known", "no address associated with name"}
	connFailedPatterns = []string{"network is unreachable", "connection reset", "broken pipe", "connection closed"}
	tlsPatterns        = []string{"tls", "ssl", "certificate"}
	decodePatterns     = []string{"decode", "utf", "invalid utf", "stream"}
)

// Classify maps a failure message and HTTP status (0 when there is none)
// to a Category. The status is checked first; message matching is
// case-insensitive and the first matching rule wins.
func Classify(message string, status int) Category {
	if status == http.StatusTooManyRequests {
		return Category{Kind: KindRateLimited}
	}
	if status >= 500 && status <= 599 {
		return Category{Kind: KindServerError, Status: status}
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "connection timed out"):
		return Category{Kind: KindConnectionTimeout}
	case strings.Contains(lower, "timed out"):
		return Category{Kind: KindReadTimeout}
	case containsAny(lower, dnsPatterns):
		return Category{Kind: KindDNSFailure}
	case strings.Contains(lower, "connection refused"):
		return Category{Kind: KindConnectionRefused}
	case containsAny(lower, connFailedPatterns):
		return Category{Kind: KindConnectionFailed}
	case containsAny(lower, tlsPatterns):
		return Category{Kind: KindTLSFailure}
	case containsAny(lower, decodePatterns):
		return Category{Kind: KindDecodeFailure, Message: message}
	default:
		return Category{Kind: KindUnknown, Message: message}
	}
}

// ClassifyError classifies a Go error. Typed network errors in the chain
// take precedence because their texts rarely match the message rules
// (a failed lookup reads "no such host", a dial timeout "i/o timeout").
func ClassifyError(err error, status int) Category {
	if err == nil {
		return Classify("", status)
	}
	if status == http.StatusTooManyRequests || (status >= 500 && status <= 599) {
		return Classify(err.Error(), status)
	}
	if kind, ok := typedKind(err); ok {
		return Category{Kind: kind}
	}
	return Classify(messageOf(err), status)
}

// messageOf drops the url.Error prefix, which embeds the request URL and
// could otherwise match a pattern by accident.
func messageOf(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

func typedKind(err error) (Kind, bool) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return KindDNSFailure, true
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuth) || errors.As(err, &hostErr) || errors.As(err, &recordErr) {
		return KindTLSFailure, true
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindConnectionRefused, true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ENETUNREACH), errors.Is(err, io.ErrUnexpectedEOF):
		return KindConnectionFailed, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Timeout() {
		switch opErr.Op {
		case "dial":
			return KindConnectionTimeout, true
		case "write":
			return KindWriteTimeout, true
		default:
			return KindReadTimeout, true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindReadTimeout, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindReadTimeout, true
	}

	return KindUnknown, false
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
