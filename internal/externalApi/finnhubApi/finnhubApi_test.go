package finnhubApi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avolkov/stockpad/config"
	"github.com/avolkov/stockpad/internal/externalApi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *FinnhubApi {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.API.Timeout = 5 * time.Second
	cfg.API.FinnhubAPI = config.FinnhubAPI{Url: srv.URL, Token: "test-token"}
	cfg.Quotes.RatePerSecond = 1000 // don't throttle tests

	return New(cfg)
}

func TestGetSnapshot_FullResponse(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{"c": 190.12, "pc": 187.77}`))
	})
	handler.HandleFunc("/stock/profile2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Apple Inc", "gsector": "Technology", "finnhubIndustry": "Hardware", "marketCapitalization": 2950000}`))
	})
	handler.HandleFunc("/stock/metric", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("metric"))
		_, _ = w.Write([]byte(`{"metric": {"peTTM": 28.4411, "52WeekHigh": 199.62, "52WeekLow": 142.0, "beta": 1.28}}`))
	})

	api := newTestClient(t, handler)

	snapshot, err := api.GetSnapshot(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", snapshot.Ticker)
	assert.Equal(t, "Apple Inc", snapshot.Name)
	assert.Equal(t, "Technology", snapshot.Sector)
	assert.Equal(t, "190.12", snapshot.Price.String())

	require.NotNil(t, snapshot.ChangePct)
	assert.Equal(t, "1.25", snapshot.ChangePct.String())

	require.NotNil(t, snapshot.MarketCap)
	assert.Equal(t, "2950000000000", snapshot.MarketCap.String())

	// peBasicExclExtraTTM missing, falls back to peTTM
	require.NotNil(t, snapshot.PERatio)
	assert.Equal(t, "28.4411", snapshot.PERatio.String())

	require.NotNil(t, snapshot.Week52High)
	assert.Equal(t, "199.62", snapshot.Week52High.String())

	// never supplied by the fake provider
	assert.Nil(t, snapshot.DividendYield)
	assert.False(t, snapshot.FetchedAt.IsZero())
}

func TestGetSnapshot_UnknownTicker(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"c": 0, "pc": 0}`))
	})

	api := newTestClient(t, handler)

	_, err := api.GetSnapshot(context.Background(), "NOPE")
	assert.ErrorIs(t, err, externalApi.ErrNotFound)
}

func TestGetSnapshot_ProviderErrorIsTransient(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	api := newTestClient(t, handler)

	_, err := api.GetSnapshot(context.Background(), "AAPL")
	require.Error(t, err)
	assert.NotErrorIs(t, err, externalApi.ErrNotFound)
}

func TestGetSnapshot_MissingFundamentalsIsNotAnError(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"c": 52.3, "pc": 52.3}`))
	})
	handler.HandleFunc("/stock/profile2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	handler.HandleFunc("/stock/metric", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	api := newTestClient(t, handler)

	snapshot, err := api.GetSnapshot(context.Background(), "VTI")
	require.NoError(t, err)

	assert.Equal(t, "52.3", snapshot.Price.String())
	assert.Equal(t, "VTI", snapshot.Name) // falls back to the ticker
	assert.Nil(t, snapshot.PERatio)
	assert.Nil(t, snapshot.MarketCap)

	// prev close equals current, so the day change is flat
	require.NotNil(t, snapshot.ChangePct)
	assert.True(t, snapshot.ChangePct.IsZero())
}
