package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenManager_RefreshAndCache(t *testing.T) {
	t.Parallel()

	var tokenRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)

		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		require.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		require.Equal(t, "client-id", r.Form.Get("client_id"))

		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "access-1",
			ExpiresIn:   3600,
		})
	}))
	t.Cleanup(server.Close)

	store := &staticTokenStore{token: "old-refresh"}
	tm := newTokenManager("client-id", "client-secret", server.URL, store, server.Client())

	token, err := tm.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-1", token)

	// Second call should hit the cache, not the endpoint.
	token, err = tm.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-1", token)
	require.Equal(t, int32(1), tokenRequests.Load())
}

func TestTokenManager_SavesRotatedRefreshToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "access-1",
			ExpiresIn:    3600,
			RefreshToken: "rotated-refresh",
		})
	}))
	t.Cleanup(server.Close)

	store := &staticTokenStore{token: "old-refresh"}
	tm := newTokenManager("client-id", "client-secret", server.URL, store, server.Client())

	_, err := tm.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rotated-refresh", store.saved.Load())
}

func TestTokenManager_RefreshFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	store := &staticTokenStore{token: "revoked"}
	tm := newTokenManager("client-id", "client-secret", server.URL, store, server.Client())

	_, err := tm.AccessToken(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "token refresh failed with status 400")
}

func TestTokenManager_ExpiryBufferTriggersRefresh(t *testing.T) {
	t.Parallel()

	var tokenRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "access-1",
			ExpiresIn:   3600,
		})
	}))
	t.Cleanup(server.Close)

	store := &staticTokenStore{token: "refresh"}
	tm := newTokenManager("client-id", "client-secret", server.URL, store, server.Client())

	_, err := tm.AccessToken(context.Background())
	require.NoError(t, err)

	// Force the cached token inside the expiry buffer.
	tm.mu.Lock()
	tm.expiresAt = time.Now().Add(tokenExpiryBuffer / 2)
	tm.mu.Unlock()

	_, err = tm.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), tokenRequests.Load())
}
