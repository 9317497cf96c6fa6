package httpConverter

import (
	"time"

	"github.com/avolkov/stockpad/internal/model"
	"github.com/avolkov/stockpad/internal/model/httpModel"
	"github.com/shopspring/decimal"
)

const placeholder = "—"

func ConvertWatchlist(rows []model.Row, summary model.WatchlistSummary) httpModel.WatchlistResponse {
	resp := httpModel.WatchlistResponse{
		Rows:    make([]httpModel.Row, 0, len(rows)),
		Summary: ConvertSummary(summary),
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, ConvertRow(row))
	}
	return resp
}

func ConvertSummary(summary model.WatchlistSummary) httpModel.Summary {
	lastRefresh := placeholder
	if !summary.LastRefresh.IsZero() {
		lastRefresh = summary.LastRefresh.Format("15:04:05")
	}
	return httpModel.Summary{
		Tracked:     summary.Tracked,
		Gainers:     summary.Gainers,
		Losers:      summary.Losers,
		LastRefresh: lastRefresh,
	}
}

func ConvertRow(row model.Row) httpModel.Row {
	out := httpModel.Row{
		Ticker:        row.Ticker,
		Name:          placeholder,
		Sector:        placeholder,
		Industry:      placeholder,
		Price:         placeholder,
		ChangePct:     placeholder,
		MarketCap:     placeholder,
		PERatio:       placeholder,
		PBRatio:       placeholder,
		PSRatio:       placeholder,
		Week52High:    placeholder,
		Week52Low:     placeholder,
		Week52Return:  placeholder,
		Beta:          placeholder,
		DividendYield: placeholder,
		ROE:           placeholder,
		ROA:           placeholder,
		DebtEquity:    placeholder,
		CurrentRatio:  placeholder,
		GrossMargin:   placeholder,
		NetMargin:     placeholder,
		RevenueGrowth: placeholder,
		BuyTarget:     FmtOptional(row.BuyTarget),
		SellTarget:    FmtOptional(row.SellTarget),
		PriceTag:      FmtOptional(row.PriceTag),
		TagPercent:    FmtOptional(row.TagPercent),
		Sentiment:     string(row.Sentiment),
		Comments:      row.Comments,
		QuoteState:    string(row.QuoteState),
		CreatedAt:     row.CreatedAt.Format(time.RFC3339),
	}

	if q := row.Quote; q != nil {
		if q.Name != "" {
			out.Name = q.Name
		}
		if q.Sector != "" {
			out.Sector = q.Sector
		}
		if q.Industry != "" {
			out.Industry = q.Industry
		}
		out.Price = FmtPrice(&q.Price)
		out.ChangePct = FmtPct(q.ChangePct)
		out.MarketCap = FmtCap(q.MarketCap)
		out.PERatio = FmtRatio(q.PERatio)
		out.PBRatio = FmtRatio(q.PBRatio)
		out.PSRatio = FmtRatio(q.PSRatio)
		out.Week52High = FmtPrice(q.Week52High)
		out.Week52Low = FmtPrice(q.Week52Low)
		out.Week52Return = FmtPct(q.Week52Return)
		out.Beta = FmtNum(q.Beta)
		out.DividendYield = FmtPct(q.DividendYield)
		out.ROE = FmtPct(q.ROE)
		out.ROA = FmtPct(q.ROA)
		out.DebtEquity = FmtNum(q.DebtEquity)
		out.CurrentRatio = FmtNum(q.CurrentRatio)
		out.GrossMargin = FmtPct(q.GrossMargin)
		out.NetMargin = FmtPct(q.NetMargin)
		out.RevenueGrowth = FmtPct(q.RevenueGrowth)
	}

	return out
}

func FmtPrice(d *decimal.Decimal) string {
	if d == nil {
		return placeholder
	}
	return "$" + d.StringFixed(2)
}

func FmtPct(d *decimal.Decimal) string {
	if d == nil {
		return placeholder
	}
	sign := ""
	if !d.IsNegative() {
		sign = "+"
	}
	return sign + d.StringFixed(2) + "%"
}

func FmtRatio(d *decimal.Decimal) string {
	if d == nil {
		return placeholder
	}
	return d.StringFixed(2) + "x"
}

func FmtNum(d *decimal.Decimal) string {
	if d == nil {
		return placeholder
	}
	return d.StringFixed(2)
}

// FmtCap abbreviates market capitalization to trillions, billions or
// millions of dollars.
func FmtCap(d *decimal.Decimal) string {
	if d == nil {
		return placeholder
	}
	switch {
	case d.GreaterThanOrEqual(decimal.New(1, 12)):
		return "$" + d.Div(decimal.New(1, 12)).StringFixed(2) + "T"
	case d.GreaterThanOrEqual(decimal.New(1, 9)):
		return "$" + d.Div(decimal.New(1, 9)).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(decimal.New(1, 6)):
		return "$" + d.Div(decimal.New(1, 6)).StringFixed(0) + "M"
	}
	return d.String()
}

func FmtOptional(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
