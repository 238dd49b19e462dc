package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

func TestTiingoGetBarsParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"date":"2026-01-02T00:00:00.000Z","open":10,"high":12,"low":9,"close":11,"volume":1000}]`))
	}))
	defer srv.Close()

	c := NewTiingoClient("key", srv.Client(), nil)
	c.baseURL = srv.URL

	bars, err := c.GetBars(t.Context(), "AAPL", time.Now().AddDate(0, 0, -30), time.Now(), "daily")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 11.0, bars[0].Close)
	assert.Equal(t, int64(1000), bars[0].Volume)
}

func TestTiingoGetBarsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewTiingoClient("key", srv.Client(), nil)
	c.baseURL = srv.URL

	_, err := c.GetBars(t.Context(), "NOPE", time.Now(), time.Now(), "daily")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestTiingoGetBarsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewTiingoClient("key", srv.Client(), nil)
	c.baseURL = srv.URL

	_, err := c.GetBars(t.Context(), "AAPL", time.Now(), time.Now(), "daily")
	require.Error(t, err)
	assert.Equal(t, errs.QuotaExceeded, errs.KindOf(err))
}

func TestTiingoGetBarsServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewTiingoClient("key", srv.Client(), nil)
	c.baseURL = srv.URL

	_, err := c.GetBars(t.Context(), "AAPL", time.Now(), time.Now(), "daily")
	require.Error(t, err)
	assert.Equal(t, errs.Transient, errs.KindOf(err))
}
