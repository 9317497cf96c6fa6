package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avolkov/stockpad/config"
	"github.com/avolkov/stockpad/internal/model"
	"github.com/avolkov/stockpad/internal/model/httpModel"
	"github.com/avolkov/stockpad/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatchlistService struct {
	rows    []model.Row
	summary model.WatchlistSummary
	err     error

	editedTicker string
	editedField  string
	editedValue  string
	removed      []string
	refreshed    bool
	lastQuery    model.WatchlistQuery
}

func (f *fakeWatchlistService) AddTicker(ctx context.Context, symbol string) (model.Row, error) {
	if f.err != nil {
		return model.Row{}, f.err
	}
	row := model.Row{
		WatchlistEntry: model.WatchlistEntry{Ticker: strings.ToUpper(strings.TrimSpace(symbol)), CreatedAt: time.Now()},
		QuoteState:     model.QuoteLoading,
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeWatchlistService) GetWatchlist(ctx context.Context, query model.WatchlistQuery) ([]model.Row, model.WatchlistSummary, error) {
	f.lastQuery = query
	return f.rows, f.summary, f.err
}

func (f *fakeWatchlistService) RefreshAll(ctx context.Context) ([]model.Row, model.WatchlistSummary, error) {
	f.refreshed = true
	return f.rows, f.summary, f.err
}

func (f *fakeWatchlistService) EditField(ctx context.Context, ticker, field, raw string) error {
	if f.err != nil {
		return f.err
	}
	f.editedTicker, f.editedField, f.editedValue = ticker, field, raw
	return nil
}

func (f *fakeWatchlistService) RemoveTicker(ctx context.Context, ticker string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, ticker)
	return nil
}

func (f *fakeWatchlistService) ExportCSV(ctx context.Context) ([]byte, error) {
	return []byte("ticker\nAAPL\n"), f.err
}

func (f *fakeWatchlistService) ExportXLSX(ctx context.Context) ([]byte, error) {
	return []byte{'P', 'K', 3, 4}, f.err
}

func newTestServer(svc *fakeWatchlistService) *Server {
	cfg := &config.Config{}
	cfg.HTTP = config.HTTP{Host: "127.0.0.1", Port: 0}
	return NewServer(cfg, NewController(svc))
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestGetWatchlist(t *testing.T) {
	price := decimal.RequireFromString("190.12")
	chg := decimal.RequireFromString("1.25")
	svc := &fakeWatchlistService{
		rows: []model.Row{{
			WatchlistEntry: model.WatchlistEntry{Ticker: "AAPL", Comments: "hold"},
			Quote:          &model.Snapshot{Ticker: "AAPL", Name: "Apple Inc", Price: price, ChangePct: &chg},
			QuoteState:     model.QuoteLoaded,
		}},
		summary: model.WatchlistSummary{Tracked: 1, Gainers: 1},
	}

	rec := doRequest(newTestServer(svc), http.MethodGet, "/api/watchlist", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpModel.WatchlistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "AAPL", resp.Rows[0].Ticker)
	assert.Equal(t, "$190.12", resp.Rows[0].Price)
	assert.Equal(t, "+1.25%", resp.Rows[0].ChangePct)
	assert.Equal(t, "hold", resp.Rows[0].Comments)
	assert.Equal(t, 1, resp.Summary.Tracked)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGetWatchlist_FilterAndSortParams(t *testing.T) {
	svc := &fakeWatchlistService{}

	rec := doRequest(newTestServer(svc), http.MethodGet,
		"/api/watchlist?ticker=aa&industry=Energy&sentiment=Bearish&chg_min=-5&chg_max=2.5&direction=losers&sort=change_pct&order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "aa", svc.lastQuery.TickerContains)
	assert.Equal(t, "Energy", svc.lastQuery.Industry)
	assert.Equal(t, "Bearish", svc.lastQuery.Sentiment)
	assert.Equal(t, model.DirectionLosers, svc.lastQuery.Direction)
	assert.Equal(t, "change_pct", svc.lastQuery.SortKey)
	assert.True(t, svc.lastQuery.SortDesc)
	require.NotNil(t, svc.lastQuery.ChangeMin)
	assert.Equal(t, "-5", svc.lastQuery.ChangeMin.String())
	require.NotNil(t, svc.lastQuery.ChangeMax)
	assert.Equal(t, "2.5", svc.lastQuery.ChangeMax.String())
}

func TestGetWatchlist_BadChangeBound(t *testing.T) {
	rec := doRequest(newTestServer(&fakeWatchlistService{}), http.MethodGet, "/api/watchlist?chg_min=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetWatchlist_UnknownSortKey(t *testing.T) {
	svc := &fakeWatchlistService{err: service.ErrInvalidQuery}

	rec := doRequest(newTestServer(svc), http.MethodGet, "/api/watchlist?sort=comments", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp httpModel.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "sort")
}

func TestAddTicker(t *testing.T) {
	svc := &fakeWatchlistService{}

	rec := doRequest(newTestServer(svc), http.MethodPost, "/api/watchlist", `{"ticker":"aapl"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var row httpModel.Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, "AAPL", row.Ticker)
	assert.Equal(t, "—", row.Price)
}

func TestAddTicker_DuplicateConflict(t *testing.T) {
	svc := &fakeWatchlistService{err: service.ErrAlreadyExists}

	rec := doRequest(newTestServer(svc), http.MethodPost, "/api/watchlist", `{"ticker":"AAPL"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp httpModel.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "already")
}

func TestAddTicker_BadBody(t *testing.T) {
	rec := doRequest(newTestServer(&fakeWatchlistService{}), http.MethodPost, "/api/watchlist", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditField(t *testing.T) {
	svc := &fakeWatchlistService{}

	rec := doRequest(newTestServer(svc), http.MethodPatch, "/api/watchlist/AAPL", `{"field":"buy_target","value":"150.00"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "AAPL", svc.editedTicker)
	assert.Equal(t, "buy_target", svc.editedField)
	assert.Equal(t, "150.00", svc.editedValue)
}

func TestEditField_InvalidValue(t *testing.T) {
	svc := &fakeWatchlistService{err: service.ErrInvalidField}

	rec := doRequest(newTestServer(svc), http.MethodPatch, "/api/watchlist/AAPL", `{"field":"sentiment","value":"Euphoric"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditField_StoreUnavailable(t *testing.T) {
	svc := &fakeWatchlistService{err: service.ErrStoreUnavailable}

	rec := doRequest(newTestServer(svc), http.MethodPatch, "/api/watchlist/AAPL", `{"field":"comments","value":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRemoveTicker(t *testing.T) {
	svc := &fakeWatchlistService{}

	rec := doRequest(newTestServer(svc), http.MethodDelete, "/api/watchlist/AAPL", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"AAPL"}, svc.removed)
}

func TestRefreshAll(t *testing.T) {
	svc := &fakeWatchlistService{}

	rec := doRequest(newTestServer(svc), http.MethodPost, "/api/watchlist/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.refreshed)
}

func TestExportCSV(t *testing.T) {
	rec := doRequest(newTestServer(&fakeWatchlistService{}), http.MethodGet, "/api/watchlist/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
}

func TestExportUnknownFormat(t *testing.T) {
	rec := doRequest(newTestServer(&fakeWatchlistService{}), http.MethodGet, "/api/watchlist/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexServesPage(t *testing.T) {
	rec := doRequest(newTestServer(&fakeWatchlistService{}), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "STOCKPAD")
	assert.Contains(t, rec.Body.String(), "Bullish")
}
