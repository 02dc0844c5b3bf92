package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenwise/internal/observability"
	"tokenwise/internal/refresh"
)

type fakeRefresher struct {
	res *refresh.Result
	err error
}

func (f *fakeRefresher) Refresh(context.Context) (*refresh.Result, error) {
	return f.res, f.err
}

type fakeSymbols map[string]string

func (f fakeSymbols) Resolve(_ context.Context, mint string) string {
	if s, ok := f[mint]; ok {
		return s
	}
	return "UNK(" + mint[:4] + ")"
}

func newTestServer(t *testing.T, ref refresh.Refresher) (*httptest.Server, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics("")
	srv := httptest.NewServer(NewServer(ref, fakeSymbols{"EPjF": "USDC"}, metrics, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, metrics
}

func TestRoot(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRefresher{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, Banner, string(body))

	resp2, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name        string
		refresher   *fakeRefresher
		wantCode    int
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "success",
			refresher:   &fakeRefresher{res: &refresh.Result{RunID: "run-1", Holders: 30, Transactions: 4}},
			wantCode:    http.StatusOK,
			wantSuccess: true,
			wantMessage: "Top wallets refreshed",
		},
		{
			name:        "in progress",
			refresher:   &fakeRefresher{err: refresh.ErrRefreshInProgress},
			wantCode:    http.StatusConflict,
			wantMessage: "Refresh already running",
		},
		{
			name:        "failure",
			refresher:   &fakeRefresher{err: errors.New("rpc down")},
			wantCode:    http.StatusInternalServerError,
			wantMessage: "Refresh failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.refresher)

			resp, err := http.Post(srv.URL+"/api/refresh", "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var body refresh.TriggerResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantSuccess, body.Success)
			assert.Equal(t, tt.wantMessage, body.Message)
			if tt.wantSuccess {
				assert.Equal(t, "run-1", body.RunID)
				assert.Equal(t, 30, body.Holders)
			}
		})
	}
}

func TestRefresh_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRefresher{})

	resp, err := http.Get(srv.URL + "/api/refresh")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSymbol(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRefresher{})

	resp, err := http.Get(srv.URL + "/api/symbols/EPjF")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body SymbolResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, SymbolResponse{Mint: "EPjF", Symbol: "USDC"}, body)
}

func TestMetrics(t *testing.T) {
	srv, metrics := newTestServer(t, &fakeRefresher{res: &refresh.Result{RunID: "r"}})

	resp, err := http.Post(srv.URL+"/api/refresh", "", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/refresh", "200")))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "tokenwise_http_requests_total"))
}
