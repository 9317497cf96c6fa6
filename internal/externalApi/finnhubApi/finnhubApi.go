package finnhubApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/avolkov/stockpad/config"
	"github.com/avolkov/stockpad/internal/externalApi"
	"github.com/avolkov/stockpad/internal/model"
	"github.com/avolkov/stockpad/internal/model/finnhubModel"
	"github.com/avolkov/stockpad/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const defaultRatePerSecond = 10

type FinnhubApi struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// New builds a client for a Finnhub-compatible API. The provider's rate
// limits are undocumented, so every request passes through a client-side
// limiter.
func New(cfg *config.Config) *FinnhubApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.FinnhubAPI.Url).
		SetQueryParam("token", cfg.API.FinnhubAPI.Token)

	rps := cfg.Quotes.RatePerSecond
	if rps <= 0 {
		rps = defaultRatePerSecond
	}

	return &FinnhubApi{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// GetSnapshot fetches the quote, company profile and fundamental metrics
// for one ticker. An unknown symbol returns externalApi.ErrNotFound; any
// other failure is transient and safe to retry. Missing profile or metric
// data is not an error, the fields just stay empty.
func (a *FinnhubApi) GetSnapshot(ctx context.Context, ticker string) (model.Snapshot, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start FinnhubApi.GetSnapshot request", slog.String("rqID", rqID), slog.String("ticker", ticker))

	quote, err := a.getQuote(ctx, ticker)
	if err != nil {
		slog.Error("error while dialing FinnhubApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Snapshot{}, err
	}

	if quote.Current == 0 {
		slog.Debug("ticker unknown to provider", slog.String("rqID", rqID), slog.String("ticker", ticker))
		return model.Snapshot{}, externalApi.ErrNotFound
	}

	snapshot := model.Snapshot{
		Ticker:    ticker,
		Price:     decimal.NewFromFloat(quote.Current).Round(2),
		FetchedAt: time.Now(),
	}

	if quote.PrevClose != 0 {
		chg := decimal.NewFromFloat((quote.Current - quote.PrevClose) / quote.PrevClose * 100).Round(2)
		snapshot.ChangePct = &chg
	}

	profile, err := a.getProfile(ctx, ticker)
	if err != nil {
		slog.Warn("can't fetch profile, leaving company fields empty", slog.String("err", err.Error()), slog.String("rqID", rqID))
	} else {
		snapshot.Name = profile.Name
		snapshot.Sector = profile.Sector
		snapshot.Industry = profile.Industry
		if profile.MarketCap > 0 {
			mktCap := decimal.NewFromFloat(profile.MarketCap * 1_000_000).Round(0)
			snapshot.MarketCap = &mktCap
		}
	}
	if snapshot.Name == "" {
		snapshot.Name = ticker
	}

	metrics, err := a.getMetrics(ctx, ticker)
	if err != nil {
		slog.Warn("can't fetch metrics, leaving fundamentals empty", slog.String("err", err.Error()), slog.String("rqID", rqID))
	} else {
		m := metrics.Metric
		snapshot.PERatio = pickMetric(m, "peBasicExclExtraTTM", "peTTM")
		snapshot.PBRatio = pickMetric(m, "pbAnnual", "pbQuarterly")
		snapshot.PSRatio = pickMetric(m, "psAnnual", "psTTM")
		snapshot.Week52High = pickMetric(m, "52WeekHigh")
		snapshot.Week52Low = pickMetric(m, "52WeekLow")
		snapshot.Week52Return = pickMetric(m, "52WeekPriceReturnDaily")
		snapshot.Beta = pickMetric(m, "beta")
		snapshot.DividendYield = pickMetric(m, "dividendYieldIndicatedAnnual")
		snapshot.ROE = pickMetric(m, "roeTTM", "roeRfy")
		snapshot.ROA = pickMetric(m, "roaTTM", "roaRfy")
		snapshot.DebtEquity = pickMetric(m, "totalDebt/totalEquityAnnual", "totalDebt/totalEquityQuarterly")
		snapshot.CurrentRatio = pickMetric(m, "currentRatioAnnual", "currentRatioQuarterly")
		snapshot.GrossMargin = pickMetric(m, "grossMarginTTM", "grossMarginAnnual")
		snapshot.NetMargin = pickMetric(m, "netProfitMarginTTM", "netProfitMarginAnnual")
		snapshot.RevenueGrowth = pickMetric(m, "revenueGrowthTTMYoy", "revenueGrowth3Y")
	}

	slog.Debug("FinnhubApi.GetSnapshot request complete", slog.String("rqID", rqID), slog.String("ticker", ticker))

	return snapshot, nil
}

func (a *FinnhubApi) getQuote(ctx context.Context, ticker string) (finnhubModel.Quote, error) {
	quote := finnhubModel.Quote{}
	err := a.get(ctx, "/quote", map[string]string{"symbol": ticker}, &quote)
	if err != nil {
		return finnhubModel.Quote{}, err
	}
	return quote, nil
}

func (a *FinnhubApi) getProfile(ctx context.Context, ticker string) (finnhubModel.Profile, error) {
	profile := finnhubModel.Profile{}
	err := a.get(ctx, "/stock/profile2", map[string]string{"symbol": ticker}, &profile)
	if err != nil {
		return finnhubModel.Profile{}, err
	}
	return profile, nil
}

func (a *FinnhubApi) getMetrics(ctx context.Context, ticker string) (finnhubModel.Metrics, error) {
	metrics := finnhubModel.Metrics{}
	err := a.get(ctx, "/stock/metric", map[string]string{"symbol": ticker, "metric": "all"}, &metrics)
	if err != nil {
		return finnhubModel.Metrics{}, err
	}
	return metrics, nil
}

func (a *FinnhubApi) get(ctx context.Context, url string, params map[string]string, dest any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("finnhub responded %d on %s", resp.StatusCode(), url)
	}

	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("can't unmarshal finnhub response from %s: %w", url, err)
	}

	return nil
}

func pickMetric(metrics map[string]*float64, keys ...string) *decimal.Decimal {
	for _, key := range keys {
		if v, ok := metrics[key]; ok && v != nil {
			d := decimal.NewFromFloat(*v).Round(4)
			return &d
		}
	}
	return nil
}
