// Package http provides the HTTP client used to fetch one resource per date.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Connect and total request timeouts
//   - A bounded idle connection pool
//   - Optional request rate limiting
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{UserAgent: "Mozilla/5.0", Timeout: 30 * time.Second})
//
//	resp, err := client.Fetch(ctx, "https://example.com/2024/06/15.jpg")
//	if err != nil {
//	    // *RequestError or *ReadError
//	}
//	if resp.StatusCode == http.StatusNotFound { ... }
//
// # Errors
//
// Fetch separates transport failures (RequestError) from body read failures
// (ReadError). Non-2xx statuses are not errors at this level; callers turn
// them into StatusError when they decide to fail.
package http
