package watchlistService

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avolkov/stockpad/config"
	"github.com/avolkov/stockpad/data/repository"
	"github.com/avolkov/stockpad/internal/externalApi"
	"github.com/avolkov/stockpad/internal/model"
	"github.com/avolkov/stockpad/internal/service"
	"github.com/avolkov/stockpad/utils"
	"github.com/shopspring/decimal"
)

const defaultRefreshWorkers = 4

type Repository interface {
	GetEntries(ctx context.Context) (entries []model.WatchlistEntry, err error)
	InsertEntry(ctx context.Context, ticker string) (entry model.WatchlistEntry, err error)
	UpdateEntryField(ctx context.Context, ticker, column string, value any) (err error)
	DeleteEntry(ctx context.Context, ticker string) (err error)
}

type QuoteApi interface {
	GetSnapshot(ctx context.Context, ticker string) (model.Snapshot, error)
}

type ReportGenerator interface {
	GenerateCSV(ctx context.Context, rows []model.Row) ([]byte, error)
	GenerateXLSX(ctx context.Context, rows []model.Row) ([]byte, error)
}

var tickerRe = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)

// fieldSpec validates one editable field and converts its raw form value
// into the driver value the repository column accepts. An empty raw value
// always clears the column.
type fieldSpec struct {
	column string
	parse  func(raw string) (any, error)
}

func decimalField(column string) fieldSpec {
	return fieldSpec{
		column: column,
		parse: func(raw string) (any, error) {
			if raw == "" {
				return decimal.NullDecimal{}, nil
			}
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, service.ErrInvalidField
			}
			return decimal.NullDecimal{Decimal: d, Valid: true}, nil
		},
	}
}

// editableFields is the closed set of user-editable fields. Anything
// outside this map is rejected before the store is touched.
var editableFields = map[string]fieldSpec{
	"buy_target":  decimalField("buy_target"),
	"sell_target": decimalField("sell_target"),
	"price_tag":   decimalField("price_tag"),
	"tag_percent": decimalField("tag_percent"),
	"sentiment": {
		column: "sentiment",
		parse: func(raw string) (any, error) {
			if raw == "" {
				return sql.NullString{}, nil
			}
			if !model.Sentiment(raw).Valid() {
				return nil, service.ErrInvalidField
			}
			return sql.NullString{String: raw, Valid: true}, nil
		},
	},
	"comments": {
		column: "comments",
		parse: func(raw string) (any, error) {
			if raw == "" {
				return sql.NullString{}, nil
			}
			return sql.NullString{String: raw, Valid: true}, nil
		},
	},
}

// sortExtractors maps a sort key to the numeric value it orders by.
// Rows without the value always sort last regardless of direction.
var sortExtractors = map[string]func(model.Row) *decimal.Decimal{
	"price": func(r model.Row) *decimal.Decimal {
		if r.Quote == nil {
			return nil
		}
		return &r.Quote.Price
	},
	"change_pct":     quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.ChangePct }),
	"market_cap":     quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.MarketCap }),
	"pe_ratio":       quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.PERatio }),
	"week_52_return": quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.Week52Return }),
	"beta":           quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.Beta }),
	"dividend_yield": quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.DividendYield }),
	"roe":            quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.ROE }),
	"net_margin":     quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.NetMargin }),
	"revenue_growth": quoteField(func(q *model.Snapshot) *decimal.Decimal { return q.RevenueGrowth }),
}

func quoteField(pick func(*model.Snapshot) *decimal.Decimal) func(model.Row) *decimal.Decimal {
	return func(r model.Row) *decimal.Decimal {
		if r.Quote == nil {
			return nil
		}
		return pick(r.Quote)
	}
}

// quoteEntry is the transient per-ticker quote state. The previous
// snapshot is kept around on failure so the UI can show stale data
// instead of dropping the row.
type quoteEntry struct {
	snapshot *model.Snapshot
	state    model.QuoteState
}

type WatchlistService struct {
	cfg             *config.Config
	repo            Repository
	quoteApi        QuoteApi
	reportGenerator ReportGenerator

	mu          sync.RWMutex
	quotes      map[string]quoteEntry
	lastRefresh time.Time
}

func New(cfg *config.Config, repo Repository, quoteApi QuoteApi, reportGenerator ReportGenerator) *WatchlistService {
	return &WatchlistService{
		cfg:             cfg,
		repo:            repo,
		quoteApi:        quoteApi,
		reportGenerator: reportGenerator,
		quotes:          make(map[string]quoteEntry),
	}
}

// NormalizeTicker trims and uppercases user input.
func NormalizeTicker(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// AddTicker inserts a new row and fetches its first snapshot. A ticker
// already on the list returns service.ErrAlreadyExists without touching
// the stored row.
func (s *WatchlistService) AddTicker(ctx context.Context, symbol string) (row model.Row, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "WatchlistService.AddTicker"

	slog.Debug("AddTicker start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("AddTicker finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	ticker := NormalizeTicker(symbol)
	if !tickerRe.MatchString(ticker) {
		slog.Warn("rejected ticker", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker))
		return model.Row{}, service.ErrInvalidTicker
	}

	entry, err := s.repo.InsertEntry(ctx, ticker)
	if err != nil {
		slog.Error("got error from repo.InsertEntry", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Row{}, mapRepoErr(err)
	}

	s.mu.Lock()
	s.quotes[ticker] = quoteEntry{state: model.QuoteLoading}
	s.mu.Unlock()

	// first fetch right away; a provider failure keeps the row with
	// placeholder quote fields
	if fetchErr := s.fetchQuote(ctx, ticker); fetchErr != nil {
		slog.Warn("first quote fetch failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", fetchErr.Error()))
	}

	s.mu.RLock()
	q := s.quotes[ticker]
	s.mu.RUnlock()

	return model.Row{WatchlistEntry: entry, Quote: q.snapshot, QuoteState: q.state}, nil
}

// GetWatchlist returns persisted entries merged with the last known
// snapshots, narrowed and ordered by query. The summary always covers
// the full list, only the rows are filtered.
func (s *WatchlistService) GetWatchlist(ctx context.Context, query model.WatchlistQuery) (rows []model.Row, summary model.WatchlistSummary, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "WatchlistService.GetWatchlist"

	slog.Debug("GetWatchlist start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GetWatchlist finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if err = validateQuery(query); err != nil {
		slog.Warn("rejected query", slog.String("rqID", rqID), slog.String("op", op), slog.String("sort", query.SortKey), slog.String("direction", string(query.Direction)))
		return nil, model.WatchlistSummary{}, err
	}

	entries, err := s.repo.GetEntries(ctx)
	if err != nil {
		slog.Error("got error from repo.GetEntries", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, model.WatchlistSummary{}, mapRepoErr(err)
	}

	rows, summary = s.buildRows(entries)
	rows = filterRows(rows, query)
	sortRows(rows, query.SortKey, query.SortDesc)
	return rows, summary, nil
}

// RefreshAll re-fetches snapshots for every entry with a bounded worker
// fan-out. Per-ticker results land in arrival order; a slow symbol never
// blocks the rest. Failing tickers are marked QuoteFailed and stay on the
// list.
func (s *WatchlistService) RefreshAll(ctx context.Context) (rows []model.Row, summary model.WatchlistSummary, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "WatchlistService.RefreshAll"

	slog.Debug("RefreshAll start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshAll finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	entries, err := s.repo.GetEntries(ctx)
	if err != nil {
		slog.Error("got error from repo.GetEntries", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, model.WatchlistSummary{}, mapRepoErr(err)
	}

	workers := s.cfg.Quotes.RefreshWorkers
	if workers <= 0 {
		workers = defaultRefreshWorkers
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-sem }()
			if fetchErr := s.fetchQuote(ctx, ticker); fetchErr != nil {
				slog.Warn("quote refresh failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("err", fetchErr.Error()))
			}
		}(entry.Ticker)
	}
	wg.Wait()

	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	rows, summary = s.buildRows(entries)
	return rows, summary, nil
}

// EditField validates and persists a single annotation field. Validation
// happens before the store is touched; on a store failure nothing is kept
// in memory, so the UI re-reads the last persisted value.
func (s *WatchlistService) EditField(ctx context.Context, ticker, field, raw string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "WatchlistService.EditField"

	slog.Debug("EditField start", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("field", field))
	defer func() {
		slog.Debug("EditField finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("field", field))
	}()

	spec, ok := editableFields[field]
	if !ok {
		slog.Warn("unknown field", slog.String("rqID", rqID), slog.String("op", op), slog.String("field", field))
		return service.ErrInvalidField
	}

	value, err := spec.parse(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("field value rejected", slog.String("rqID", rqID), slog.String("op", op), slog.String("field", field), slog.String("raw", raw))
		return err
	}

	err = s.repo.UpdateEntryField(ctx, NormalizeTicker(ticker), spec.column, value)
	if err != nil {
		slog.Error("got error from repo.UpdateEntryField", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return mapRepoErr(err)
	}

	return nil
}

// RemoveTicker deletes a row and drops its transient quote state.
// Removing an absent ticker succeeds.
func (s *WatchlistService) RemoveTicker(ctx context.Context, ticker string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "WatchlistService.RemoveTicker"

	slog.Debug("RemoveTicker start", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker))
	defer func() {
		slog.Debug("RemoveTicker finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker))
	}()

	ticker = NormalizeTicker(ticker)

	err = s.repo.DeleteEntry(ctx, ticker)
	if err != nil {
		slog.Error("got error from repo.DeleteEntry", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return mapRepoErr(err)
	}

	s.mu.Lock()
	delete(s.quotes, ticker)
	s.mu.Unlock()

	return nil
}

// ExportCSV serializes the current merged rows. Pure read, no side
// effects on the store or the quote cache.
func (s *WatchlistService) ExportCSV(ctx context.Context) ([]byte, error) {
	rows, _, err := s.GetWatchlist(ctx, model.WatchlistQuery{})
	if err != nil {
		return nil, err
	}
	return s.reportGenerator.GenerateCSV(ctx, rows)
}

func (s *WatchlistService) ExportXLSX(ctx context.Context) ([]byte, error) {
	rows, _, err := s.GetWatchlist(ctx, model.WatchlistQuery{})
	if err != nil {
		return nil, err
	}
	return s.reportGenerator.GenerateXLSX(ctx, rows)
}

func (s *WatchlistService) fetchQuote(ctx context.Context, ticker string) error {
	snapshot, err := s.quoteApi.GetSnapshot(ctx, ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		prev := s.quotes[ticker]
		s.quotes[ticker] = quoteEntry{snapshot: prev.snapshot, state: model.QuoteFailed}
		if errors.Is(err, externalApi.ErrNotFound) {
			return service.ErrNotFound
		}
		return service.ErrQuoteUnavailable
	}

	s.quotes[ticker] = quoteEntry{snapshot: &snapshot, state: model.QuoteLoaded}
	return nil
}

func (s *WatchlistService) buildRows(entries []model.WatchlistEntry) ([]model.Row, model.WatchlistSummary) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]model.Row, 0, len(entries))
	summary := model.WatchlistSummary{Tracked: len(entries), LastRefresh: s.lastRefresh}

	for _, entry := range entries {
		q, ok := s.quotes[entry.Ticker]
		if !ok {
			q = quoteEntry{state: model.QuoteLoading}
		}
		rows = append(rows, model.Row{WatchlistEntry: entry, Quote: q.snapshot, QuoteState: q.state})

		if q.snapshot != nil && q.snapshot.ChangePct != nil {
			switch {
			case q.snapshot.ChangePct.IsPositive():
				summary.Gainers++
			case q.snapshot.ChangePct.IsNegative():
				summary.Losers++
			}
		}
	}

	return rows, summary
}

func validateQuery(q model.WatchlistQuery) error {
	if q.SortKey != "" && q.SortKey != "ticker" {
		if _, ok := sortExtractors[q.SortKey]; !ok {
			return service.ErrInvalidQuery
		}
	}
	switch q.Direction {
	case model.DirectionAny, model.DirectionGainers, model.DirectionLosers:
	default:
		return service.ErrInvalidQuery
	}
	if q.Sentiment != "" && !model.Sentiment(q.Sentiment).Valid() {
		return service.ErrInvalidQuery
	}
	return nil
}

func filterRows(rows []model.Row, q model.WatchlistQuery) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if matchesQuery(row, q) {
			out = append(out, row)
		}
	}
	return out
}

func matchesQuery(r model.Row, q model.WatchlistQuery) bool {
	if q.TickerContains != "" && !strings.Contains(strings.ToLower(r.Ticker), strings.ToLower(q.TickerContains)) {
		return false
	}
	if q.Industry != "" && (r.Quote == nil || r.Quote.Industry != q.Industry) {
		return false
	}
	if q.Sentiment != "" && string(r.Sentiment) != q.Sentiment {
		return false
	}

	chg := changeOrZero(r)
	if q.ChangeMin != nil && chg.LessThan(*q.ChangeMin) {
		return false
	}
	if q.ChangeMax != nil && chg.GreaterThan(*q.ChangeMax) {
		return false
	}
	switch q.Direction {
	case model.DirectionGainers:
		return chg.IsPositive()
	case model.DirectionLosers:
		return chg.IsNegative()
	}
	return true
}

func changeOrZero(r model.Row) decimal.Decimal {
	if r.Quote != nil && r.Quote.ChangePct != nil {
		return *r.Quote.ChangePct
	}
	return decimal.Decimal{}
}

func sortRows(rows []model.Row, key string, desc bool) {
	if key == "" {
		return
	}
	if key == "ticker" {
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return rows[i].Ticker > rows[j].Ticker
			}
			return rows[i].Ticker < rows[j].Ticker
		})
		return
	}

	extract := sortExtractors[key]
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := extract(rows[i]), extract(rows[j])
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if desc {
			return a.GreaterThan(*b)
		}
		return a.LessThan(*b)
	})
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		return service.ErrAlreadyExists
	case errors.Is(err, repository.ErrNotFound):
		return service.ErrNotFound
	case errors.Is(err, repository.ErrUnavailable):
		return service.ErrStoreUnavailable
	}
	return err
}
