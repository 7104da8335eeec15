package ratios_api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_FetchRatios(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"pos_name":"A"}]`))
	}))
	defer srv.Close()

	body, err := NewHTTPClient(srv.URL, time.Second).FetchRatios(context.Background())

	require.NoError(t, err)
	assert.JSONEq(t, `[{"pos_name":"A"}]`, string(body))
}

func TestHTTPClient_FetchRatios_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).FetchRatios(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPClient_FetchRatios_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPClient(srv.URL, 50*time.Millisecond).FetchRatios(context.Background())

	assert.Error(t, err)
}

func TestHTTPClient_FetchRatios_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"pos_name":"A"},{"pos_name":"B"}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	c.maxBody = 16

	_, err := c.FetchRatios(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestHTTPClient_FetchRatios_ExactLimit(t *testing.T) {
	body := `[{"pos_name":"A"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	c.maxBody = int64(len(body))

	got, err := c.FetchRatios(context.Background())

	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}
