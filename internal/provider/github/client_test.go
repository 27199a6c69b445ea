package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitscope/commitscope/internal/model"
)

func newTestClient(t *testing.T, baseURL string, cfg Config) (*Client, *model.RunStats) {
	t.Helper()
	cfg.Token = "test-token"
	cfg.BaseURL = baseURL

	stats := model.NewRunStats()
	client, err := NewClient(cfg, stats)
	require.NoError(t, err)

	// no real sleeping in tests, only cancellation still matters
	client.sleep = func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	}
	return client, stats
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Config{}, model.NewRunStats())
	require.Error(t, err)
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, stats := newTestClient(t, srv.URL, Config{MaxRetries: 3})

	resp, err := client.Execute(context.Background(), srv.URL+"/test")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, calls, "three failures plus the final success")
	assert.Equal(t, 3, stats.Retries)
	assert.Equal(t, 4, stats.Requests)
}

func TestExecuteExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, stats := newTestClient(t, srv.URL, Config{MaxRetries: 3})

	_, err := client.Execute(context.Background(), srv.URL+"/test")
	require.Error(t, err)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, http.StatusBadGateway, exhausted.LastStatus)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 3, stats.Retries)
}

func TestExecuteAuthErrorIsNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, stats := newTestClient(t, srv.URL, Config{MaxRetries: 3})

	_, err := client.Execute(context.Background(), srv.URL+"/test")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.True(t, IsAuth(err))
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls, "auth failures must not be retried")
	assert.Zero(t, stats.Retries)
}

func TestExecuteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, Config{})

	_, err := client.Execute(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsPermanent(err))
}

func TestExecuteWaitsOutRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set(headerRateRemaining, "0")
			w.Header().Set(headerRateReset, strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set(headerRateRemaining, "4999")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, stats := newTestClient(t, srv.URL, Config{MaxRetries: 3})

	resp, err := client.Execute(context.Background(), srv.URL+"/test")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, stats.RateLimitWaits)
	assert.Zero(t, stats.Retries, "a rate-limit wait is not a retry")
}

func TestExecuteRateLimitWaitCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3600")
		w.Header().Set(headerRateRemaining, "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, Config{MaxRetries: 3, MaxRateLimitWait: time.Minute})

	_, err := client.Execute(context.Background(), srv.URL+"/test")
	require.Error(t, err)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
}

func TestExecutePlainForbiddenIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Must have admin rights"}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, Config{})

	_, err := client.Execute(context.Background(), srv.URL+"/test")
	require.Error(t, err)
	assert.True(t, IsAuth(err))
}

func TestExecuteHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, Config{MaxRetries: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Execute(ctx, srv.URL+"/test")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoffDelay(0))
	assert.Equal(t, 4*time.Second, backoffDelay(1))
	assert.Equal(t, 8*time.Second, backoffDelay(2))
	assert.Equal(t, 10*time.Second, backoffDelay(3))
	assert.Equal(t, 10*time.Second, backoffDelay(30))
}

func TestParseNextLink(t *testing.T) {
	link := `<https://api.github.com/repos/o/r/commits?page=2>; rel="next", ` +
		`<https://api.github.com/repos/o/r/commits?page=5>; rel="last"`
	assert.Equal(t, "https://api.github.com/repos/o/r/commits?page=2", parseNextLink(link))

	assert.Empty(t, parseNextLink(`<https://api.github.com/x?page=5>; rel="last"`))
	assert.Empty(t, parseNextLink(""))
}

func TestIsRateLimited(t *testing.T) {
	h := http.Header{}
	assert.True(t, isRateLimited(http.StatusTooManyRequests, h, nil))
	assert.False(t, isRateLimited(http.StatusForbidden, h, []byte(`{"message":"no"}`)))

	h.Set(headerRateRemaining, "0")
	assert.True(t, isRateLimited(http.StatusForbidden, h, nil))

	assert.True(t, isRateLimited(http.StatusForbidden, http.Header{},
		[]byte(`{"message":"API rate limit exceeded"}`)))
	assert.False(t, isRateLimited(http.StatusInternalServerError, h, nil))
}
