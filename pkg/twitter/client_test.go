package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followgraph/pkg/config"
	"followgraph/pkg/errors"
	"followgraph/pkg/logger"
	"followgraph/pkg/ratelimit"
)

// newTestClient points a client with dummy credentials at server
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Twitter.ConsumerKey = "ck"
	cfg.Twitter.ConsumerSecret = "cs"
	cfg.Twitter.AccessToken = "at"
	cfg.Twitter.AccessTokenSecret = "ats"
	cfg.Twitter.BaseURL = server.URL
	cfg.Retry = config.RetryConfig{
		Enabled:      true,
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}

	client := NewClient(cfg, ratelimit.New(0, 0), logger.NewTestLogger())
	client.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return client
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Twitter.BaseURL = "https://api.example.com/"
	log := logger.NewTestLogger()

	client := NewClient(cfg, nil, log)

	assert.NotNil(t, client.httpClient)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.Equal(t, cfg.Twitter.RequestTimeout, client.httpClient.Timeout)
	assert.Equal(t, log, client.logger)
	assert.IsType(t, ratelimit.Unlimited{}, client.limiter)
}

func TestRequestsAreSigned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, "OAuth "), "expected OAuth header, got %q", auth)
		assert.Contains(t, auth, `oauth_consumer_key="ck"`)
		assert.Contains(t, auth, `oauth_token="at"`)
		writeJSON(w, http.StatusOK, IDsPage{IDs: []string{}, NextCursorStr: "0"})
	}))
	defer server.Close()

	_, err := newTestClient(t, server).FollowerIDs(context.Background(), "alice", nil)
	require.NoError(t, err)
}

func TestFollowerIDs(t *testing.T) {
	t.Run("first page uses start cursor", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, FollowersIDsEndpoint, r.URL.Path)
			assert.Equal(t, "alice", r.URL.Query().Get("screen_name"))
			assert.Equal(t, "-1", r.URL.Query().Get("cursor"))
			assert.Equal(t, "true", r.URL.Query().Get("stringify_ids"))
			writeJSON(w, http.StatusOK, IDsPage{
				IDs:           []string{"10", "11"},
				NextCursorStr: "1650000000000000000",
			})
		}))
		defer server.Close()

		page, err := newTestClient(t, server).FollowerIDs(context.Background(), "@alice", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"10", "11"}, page.IDs)
		require.NotNil(t, page.Next())
		assert.Equal(t, "1650000000000000000", *page.Next())
	})

	t.Run("last page has no next cursor", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "42", r.URL.Query().Get("cursor"))
			writeJSON(w, http.StatusOK, IDsPage{IDs: []string{"12"}, NextCursorStr: "0"})
		}))
		defer server.Close()

		cursor := "42"
		page, err := newTestClient(t, server).FollowerIDs(context.Background(), "alice", &cursor)
		require.NoError(t, err)
		assert.Nil(t, page.Next())
	})
}

func TestFriendIDsEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, FriendsIDsEndpoint, r.URL.Path)
		writeJSON(w, http.StatusOK, IDsPage{IDs: []string{"2"}, NextCursorStr: "0"})
	}))
	defer server.Close()

	page, err := newTestClient(t, server).FriendIDs(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, page.IDs)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         interface{}
		expectedType errors.ErrorType
	}{
		{
			name:         "429 Too Many Requests",
			status:       http.StatusTooManyRequests,
			body:         ErrorResponse{Errors: []APIError{{Code: 88, Message: "Rate limit exceeded"}}},
			expectedType: errors.ErrorTypeRateLimit,
		},
		{
			name:         "rate limit code without 429",
			status:       http.StatusBadRequest,
			body:         ErrorResponse{Errors: []APIError{{Code: 88, Message: "Rate limit exceeded"}}},
			expectedType: errors.ErrorTypeRateLimit,
		},
		{
			name:         "401 Unauthorized",
			status:       http.StatusUnauthorized,
			body:         ErrorResponse{Errors: []APIError{{Code: 32, Message: "Could not authenticate you."}}},
			expectedType: errors.ErrorTypeAuth,
		},
		{
			name:         "404 Not Found",
			status:       http.StatusNotFound,
			body:         ErrorResponse{Errors: []APIError{{Code: 34, Message: "Sorry, that page does not exist."}}},
			expectedType: errors.ErrorTypeNotFound,
		},
		{
			name:         "400 Bad Request",
			status:       http.StatusBadRequest,
			body:         map[string]string{},
			expectedType: errors.ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				writeJSON(w, tt.status, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(t, server).FollowerIDs(context.Background(), "alice", nil)
			require.Error(t, err)
			assert.Equal(t, tt.expectedType, errors.TypeOf(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "non-transient errors are not retried")
		})
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, IDsPage{IDs: []string{"7"}, NextCursorStr: "0"})
	}))
	defer server.Close()

	page, err := newTestClient(t, server).FriendIDs(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, page.IDs)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestServerErrorsGiveUp(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).FriendIDs(context.Background(), "alice", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeServerError, errors.TypeOf(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).FollowerIDs(context.Background(), "alice", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
}

func TestLookupUsers(t *testing.T) {
	t.Run("resolves returned ids", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, UsersLookupEndpoint, r.URL.Path)
			assert.Equal(t, "1,2,3", r.URL.Query().Get("user_id"))
			writeJSON(w, http.StatusOK, []User{
				{IDStr: "3", ScreenName: "carol"},
				{IDStr: "1", ScreenName: "alice"},
			})
		}))
		defer server.Close()

		profiles, err := newTestClient(t, server).LookupUsers(context.Background(), []string{"1", "2", "3"})
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, "3", profiles[0].ID)
		assert.Equal(t, "carol", profiles[0].Handle)
	})

	t.Run("no matches is empty result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Errors: []APIError{{Code: 17, Message: "No user matches for specified terms."}}})
		}))
		defer server.Close()

		profiles, err := newTestClient(t, server).LookupUsers(context.Background(), []string{"404"})
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})

	t.Run("rejects oversized batch", func(t *testing.T) {
		client := NewClient(config.DefaultConfig(), nil, logger.NewTestLogger())
		ids := make([]string, MaxLookupBatch+1)
		_, err := client.LookupUsers(context.Background(), ids)
		assert.Error(t, err)
	})
}

func TestLookupHandle(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "alice", r.URL.Query().Get("screen_name"))
			writeJSON(w, http.StatusOK, []User{{IDStr: "1", ScreenName: "Alice"}})
		}))
		defer server.Close()

		profile, err := newTestClient(t, server).LookupHandle(context.Background(), "@alice")
		require.NoError(t, err)
		assert.Equal(t, "1", profile.ID)
		assert.Equal(t, "Alice", profile.Handle)
	})

	t.Run("empty result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []User{})
		}))
		defer server.Close()

		_, err := newTestClient(t, server).LookupHandle(context.Background(), "ghost")
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeNotFound, errors.TypeOf(err))
	})
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, IDsPage{})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server).FollowerIDs(ctx, "alice", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
