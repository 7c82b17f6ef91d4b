package collyfetcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/image", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("fake-png-bytes"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	})
	mux.HandleFunc("/large", func(w http.ResponseWriter, _ *http.Request) {
		payload := bytes.Repeat([]byte("x"), 4096)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{UserAgent: "skysnap-test/1.0", Timeout: 5 * time.Second})

	body, err := f.Fetch(context.Background(), srv.URL+"/image")
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), body)
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second})

	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestFetchMalformedURL(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	_, err := f.Fetch(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, srv.URL+"/slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// A body silently capped by the size limit must surface as an error, never as
// a nil-error partial body.
func TestFetchTruncatedBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second, MaxBodyBytes: 100})

	_, err := f.Fetch(context.Background(), srv.URL+"/large")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestFetchFullBodyWithinCap(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second, MaxBodyBytes: 8192})

	body, err := f.Fetch(context.Background(), srv.URL+"/large")
	require.NoError(t, err)
	assert.Len(t, body, 4096)
}

// Each Fetch clones a fresh collector, so repeated downloads of the same URL
// must not trip colly's revisit detection.
func TestFetchSameURLTwice(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second})

	for i := 0; i < 2; i++ {
		body, err := f.Fetch(context.Background(), srv.URL+"/image")
		require.NoError(t, err, "fetch %d", i)
		assert.NotEmpty(t, body)
	}
}
