package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchSuccess(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.UserAgent = "TestAgent/1.0"
	client := NewClient(opts)

	resp, err := client.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, resp.Success())
	assert.Equal(t, []byte("image-bytes"), resp.Body)
	assert.Equal(t, "TestAgent/1.0", gotUA)
}

func TestClient_FetchNonSuccessStatus(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", code)
			}))
			defer srv.Close()

			resp, err := NewClient(DefaultOptions()).Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, code, resp.StatusCode)
			assert.False(t, resp.Success())
			assert.Nil(t, resp.Body)
		})
	}
}

func TestClient_FetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(DefaultOptions()).Fetch(context.Background(), url)
	require.Error(t, err)

	var reqErr *RequestError
	assert.True(t, errors.As(err, &reqErr))
	assert.Equal(t, url, reqErr.URL)
}

func TestClient_FetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond
	_, err := NewClient(opts).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
}

func TestClient_FetchReadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("short"))
	}))
	defer srv.Close()

	_, err := NewClient(DefaultOptions()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var readErr *ReadError
	assert.True(t, errors.As(err, &readErr))
}

func TestClient_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.RequestsPerSecond = 10
	client := NewClient(opts)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	// burst of 1 at 10 rps: the 2nd and 3rd requests wait ~100ms each
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestStatusError(t *testing.T) {
	err := &StatusError{URL: "http://x/a.jpg", StatusCode: 404}
	assert.True(t, err.NotFound())
	assert.Contains(t, err.Error(), "404")
	assert.False(t, (&StatusError{StatusCode: 500}).NotFound())
}
