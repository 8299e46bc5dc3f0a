package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// staticTokenStore implements TokenStore with a fixed refresh token.
type staticTokenStore struct {
	saved atomic.Value
	token string
}

// RefreshToken returns the fixed token.
func (s *staticTokenStore) RefreshToken(_ context.Context) (string, error) {
	return s.token, nil
}

// SaveRefreshToken records the saved token.
func (s *staticTokenStore) SaveRefreshToken(_ context.Context, token string) error {
	s.saved.Store(token)
	return nil
}

// newTestServer starts an httptest server with a token endpoint plus the given
// API handlers, and returns a client pointed at it.
func newTestServer(t *testing.T, apiHandler http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "test-access-token",
			ExpiresIn:   3600,
			TokenType:   "bearer",
		})
	})
	mux.HandleFunc("/", apiHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(
		Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			TokenStore:   &staticTokenStore{token: "refresh-token"},
		},
		WithBaseURL(server.URL),
		WithTokenURL(server.URL+"/oauth2/token"),
	)
	require.NoError(t, err)

	return client
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	validConfig := Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenStore:   &staticTokenStore{token: "refresh-token"},
	}

	tests := map[string]struct {
		config  Config
		errMsg  string
		opts    []Option
		wantErr bool
	}{
		"valid config": {
			config:  validConfig,
			wantErr: false,
		},
		"missing client ID": {
			config: Config{
				ClientSecret: "client-secret",
				TokenStore:   &staticTokenStore{},
			},
			wantErr: true,
			errMsg:  "client ID is required",
		},
		"missing client secret": {
			config: Config{
				ClientID:   "client-id",
				TokenStore: &staticTokenStore{},
			},
			wantErr: true,
			errMsg:  "client secret is required",
		},
		"missing token store": {
			config: Config{
				ClientID:     "client-id",
				ClientSecret: "client-secret",
			},
			wantErr: true,
			errMsg:  "token store is required",
		},
		"invalid option - empty base URL": {
			config:  validConfig,
			opts:    []Option{WithBaseURL("")},
			wantErr: true,
			errMsg:  "base URL cannot be empty",
		},
		"invalid option - nil HTTP client": {
			config:  validConfig,
			opts:    []Option{WithHTTPClient(nil)},
			wantErr: true,
			errMsg:  "HTTP client cannot be nil",
		},
		"invalid option - zero timeout": {
			config:  validConfig,
			opts:    []Option{WithTimeout(0)},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			client, err := NewClient(tc.config, tc.opts...)

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				require.Nil(t, client)
			} else {
				require.NoError(t, err)
				require.NotNil(t, client)
			}
		})
	}
}

func TestClient_Orders_Pagination(t *testing.T) {
	t.Parallel()

	page1 := ordersResponse{
		Data: []Order{
			{ID: "ord-1", Number: "SO-1001", Status: StatusApproved},
			{ID: "ord-2", Number: "SO-1002", Status: StatusApproved},
		},
		NextCursor: "cursor-2",
	}
	page2 := ordersResponse{
		Data: []Order{
			{ID: "ord-3", Number: "SO-1003", Status: StatusBilled},
		},
	}

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))

		if r.URL.Query().Get("cursor") == "cursor-2" {
			_ = json.NewEncoder(w).Encode(page2)
			return
		}
		_ = json.NewEncoder(w).Encode(page1)
	})

	orders, err := client.Orders(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	require.Equal(t, "ord-1", orders[0].ID)
	require.Equal(t, "ord-3", orders[2].ID)
}

func TestClient_Orders_QueryParameters(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "2025-01-01T00:00:00Z", q.Get("dateFrom"))
		require.Equal(t, "2025-06-30T00:00:00Z", q.Get("dateTo"))
		require.ElementsMatch(t, []string{"approved", "billed"}, q["status"])

		_ = json.NewEncoder(w).Encode(ordersResponse{})
	})

	orders, err := client.Orders(context.Background(), Query{
		Start:    start,
		End:      end,
		Statuses: []Status{StatusApproved, StatusBilled},
	})
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestClient_Orders_LimitStopsPagination(t *testing.T) {
	t.Parallel()

	var pagesServed atomic.Int32

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		page := pagesServed.Add(1)

		resp := ordersResponse{NextCursor: fmt.Sprintf("cursor-%d", page)}
		for i := 0; i < 2; i++ {
			resp.Data = append(resp.Data, Order{ID: fmt.Sprintf("ord-%d-%d", page, i)})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	orders, err := client.Orders(context.Background(), Query{Limit: 3})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	require.Equal(t, int32(2), pagesServed.Load())
}

func TestClient_Orders_ServerError(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "query engine unavailable", http.StatusBadGateway)
	})

	orders, err := client.Orders(context.Background(), Query{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 502")
	require.Nil(t, orders)
}

func TestClient_OrderLines(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/ord-1/lines", r.URL.Path)

		_ = json.NewEncoder(w).Encode(linesResponse{
			Data: []OrderLine{
				{ID: "line-1", LineNumber: 1, Quantity: 2, Amount: 40},
				{ID: "line-2", LineNumber: 2, Quantity: 1, Amount: 15, Closed: true},
			},
		})
	})

	lines, err := client.OrderLines(context.Background(), "ord-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, 1, lines[0].LineNumber)
	require.True(t, lines[1].Closed)
}

func TestClient_OrderLines_EmptyID(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	lines, err := client.OrderLines(context.Background(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "order ID is required")
	require.Nil(t, lines)
}
