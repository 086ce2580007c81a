package metaclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *MetaClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClientWithOptions(Options{
		URL:              server.URL + "/v22.0",
		PageSize:         2,
		RateLimitRetries: 3,
		RateLimitDelay:   time.Millisecond,
	})
}

func TestMetaClient_ListEntitiesFollowsPaging(t *testing.T) {
	var serverURL string
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		if r.URL.Query().Get("after") == "" {
			assert.Equal(t, "/v22.0/act_123/campaigns", r.URL.Path)
			assert.Contains(t, r.URL.Query().Get("effective_status"), "ARCHIVED")
			fmt.Fprintf(w, `{"data":[{"id":"c1","name":"A","effective_status":"ACTIVE"},{"id":"c2","name":"B","status":"PAUSED"}],
				"paging":{"cursors":{"after":"x"},"next":"%s/v22.0/act_123/campaigns?after=x"}}`, serverURL)
			return
		}
		_, _ = io.WriteString(w, `{"data":[{"id":"c3","name":"C","effective_status":"DELETED"}],"paging":{"cursors":{"after":"y"}}}`)
	}))
	t.Cleanup(server.Close)
	serverURL = server.URL

	client := NewClientWithOptions(Options{URL: server.URL + "/v22.0", PageSize: 2})

	rows, err := client.ListEntities(context.Background(), "tok", "123", domain.LevelCampaign)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ACTIVE", rows[0].RawStatus())
	assert.Equal(t, "PAUSED", rows[1].RawStatus())
	assert.Equal(t, "DELETED", rows[2].RawStatus())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMetaClient_ListInsightsParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v22.0/act_123/insights", r.URL.Path)
		assert.Equal(t, "ad", q.Get("level"))
		assert.Equal(t, "1", q.Get("time_increment"))
		assert.Equal(t, `{"since":"2024-01-01","until":"2024-01-10"}`, q.Get("time_range"))
		assert.Empty(t, q.Get("date_preset"))
		assert.Contains(t, q.Get("fields"), "ad_id")
		assert.Contains(t, q.Get("filtering"), "ad.effective_status")

		_, _ = io.WriteString(w, `{"data":[{"ad_id":"a1","date_start":"2024-01-02","spend":"12.5","impressions":100,"reach":null,
			"actions":[{"action_type":"link_click","value":"3"}]}],"paging":{}}`)
	})

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows, err := client.ListInsights(context.Background(), "tok", "act_123", domain.LevelAd, domain.RangeWindow(since, until))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12.5", rows[0].Spend.String())
	assert.Equal(t, "100", rows[0].Impressions.String())
	assert.Equal(t, "", rows[0].Reach.String())
	assert.Equal(t, "3", rows[0].Actions[0].Value.String())
}

func TestMetaClient_TodayPreset(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "today", r.URL.Query().Get("date_preset"))
		assert.Empty(t, r.URL.Query().Get("time_range"))
		_, _ = io.WriteString(w, `{"data":[]}`)
	})

	rows, err := client.ListInsights(context.Background(), "tok", "123", domain.LevelCampaign, domain.TodayWindow())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMetaClient_RateLimitRetry(t *testing.T) {
	tests := []struct {
		name          string
		failures      int32
		expectErr     error
		expectedCalls int32
	}{
		{
			name:          "Recupera após duas respostas de limite",
			failures:      2,
			expectedCalls: 3,
		},
		{
			name:          "Esgota as tentativas e devolve ErrRateLimited",
			failures:      10,
			expectErr:     ErrRateLimited,
			expectedCalls: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) <= tt.failures {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = io.WriteString(w, `{"error":{"message":"User request limit reached","code":17}}`)
					return
				}
				_, _ = io.WriteString(w, `{"data":[{"id":"1"}]}`)
			})

			_, err := client.ListEntities(context.Background(), "tok", "123", domain.LevelAd)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestMetaClient_ExpiredToken(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`)
	})

	_, err := client.ListEntities(context.Background(), "tok", "123", domain.LevelAdSet)
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMetaClient_TransientErrorsAreRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "Erro marcado como temporário", status: http.StatusInternalServerError, body: `{"error":{"message":"tente de novo","code":2,"is_transient":true}}`},
		{name: "Código 1 sem status 5xx", status: http.StatusBadRequest, body: `{"error":{"message":"unknown error","code":1}}`},
		{name: "Gateway indisponível sem corpo JSON", status: http.StatusBadGateway, body: `bad gateway`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) == 1 {
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, tt.body)
					return
				}
				_, _ = io.WriteString(w, `{"data":[{"id":"a1","name":"A","effective_status":"ACTIVE"}]}`)
			})

			rows, err := client.ListEntities(context.Background(), "tok", "123", domain.LevelAd)
			require.NoError(t, err)
			assert.Len(t, rows, 1)
			assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
		})
	}
}

func TestMetaClient_TransientErrorExhaustsRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"indisponível","code":2,"is_transient":true}}`)
	})

	_, err := client.ListEntities(context.Background(), "tok", "123", domain.LevelAd)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "tentativa inicial mais três")
}

func TestMetaClient_TransportErrorIsRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			hijacker, ok := w.(http.Hijacker)
			if !assert.True(t, ok) {
				return
			}
			conn, _, err := hijacker.Hijack()
			if assert.NoError(t, err) {
				_ = conn.Close()
			}
			return
		}
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	t.Cleanup(server.Close)

	client := NewClientWithOptions(Options{URL: server.URL + "/v22.0", RateLimitRetries: 3, RateLimitDelay: time.Millisecond})

	_, err := client.ListEntities(context.Background(), "tok", "123", domain.LevelAd)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMetaClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`)
	})

	_, err := client.ListEntities(context.Background(), "tok", "123", domain.LevelAdSet)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrTransient)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
