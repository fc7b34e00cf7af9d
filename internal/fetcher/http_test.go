package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-risk/internal/resilience"
)

func newTestClient() *Client {
	return NewClient(Options{
		UserAgent: "test-agent",
		Timeout:   2 * time.Second,
		RateLimit: 1000,
	})
}

func TestGet_SendsQueryAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.URL.Query().Get("serviceKey"))
		assert.Equal(t, "11680", r.URL.Query().Get("sigunguCd"))
		_, _ = w.Write([]byte("<response/>"))
	}))
	defer srv.Close()

	body, err := newTestClient().Get(context.Background(), srv.URL+"/api", url.Values{
		"serviceKey": {"secret"},
		"sigunguCd":  {"11680"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<response/>", string(body))
}

func TestGet_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL, url.Values{"serviceKey": {"secret"}})
	require.Error(t, err)

	var te *resilience.TransientError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Equal(t, resilience.Upstream, te.Reason)
	assert.NotContains(t, err.Error(), "secret")
}

func TestGet_NotFoundIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 404")
	assert.False(t, resilience.IsTransient(err))
}

func TestGet_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	c := NewClient(Options{Timeout: 50 * time.Millisecond, RateLimit: 1000})
	_, err := c.Get(context.Background(), srv.URL, url.Values{"serviceKey": {"secret"}})
	require.Error(t, err)

	var te *resilience.TransientError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, resilience.Timeout, te.Reason)
	assert.NotContains(t, err.Error(), "secret")
}

func TestGet_InvalidURL(t *testing.T) {
	_, err := newTestClient().Get(context.Background(), "://bad", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse url")
}

func TestGet_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient().Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}

func TestLimiterFor_ReusedPerHost(t *testing.T) {
	c := newTestClient()
	a := c.limiterFor("apis.data.go.kr")
	b := c.limiterFor("apis.data.go.kr")
	other := c.limiterFor("example.com")
	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}
