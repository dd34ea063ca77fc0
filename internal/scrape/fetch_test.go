package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient returns a client whose backoff sleeps are recorded instead of
// slept.
func testClient(cfg FetchConfig) (*Client, *[]time.Duration) {
	client := NewClient(cfg)
	waits := &[]time.Duration{}
	client.sleep = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return client, waits
}

func TestClientGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	client, waits := testClient(FetchConfig{})
	body, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Empty(t, *waits)
}

func TestClientGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client, waits := testClient(FetchConfig{MaxAttempts: 5, MinWait: time.Second, MaxWait: 4 * time.Second})
	body, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestClientGet_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, waits := testClient(FetchConfig{MaxAttempts: 4, MinWait: time.Second, MaxWait: 3 * time.Second})
	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSource)
	assert.Contains(t, err.Error(), "retries exhausted after 4 attempts")
	assert.Equal(t, int32(4), calls.Load())

	// The backoff grows and is capped at MaxWait.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, *waits)
}

func TestClientGet_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, waits := testClient(FetchConfig{MaxAttempts: 5})
	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSource)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *waits)
}

func TestClientGet_CancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(FetchConfig{MaxAttempts: 3, MinWait: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSource)
	assert.Contains(t, err.Error(), "backoff interrupted")
}

func TestClientPostForm_RebuildsBodyPerAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("q") != "value" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, _ := testClient(FetchConfig{MaxAttempts: 3})
	body, err := client.PostForm(context.Background(), server.URL, nil, url.Values{"q": {"value"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestClientCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123"})
	}))
	defer server.Close()

	client, _ := testClient(FetchConfig{})
	_, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	value, ok := client.Cookie(u, "PHPSESSID")
	require.True(t, ok)
	assert.Equal(t, "abc123", value)

	_, ok = client.Cookie(u, "missing")
	assert.False(t, ok)
}
