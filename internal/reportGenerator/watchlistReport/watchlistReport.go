package watchlistReport

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/avolkov/stockpad/internal/model"
	"github.com/avolkov/stockpad/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Header is the export column order: persisted annotation fields plus the
// last-fetched market fields. Transient columns are empty until the first
// successful snapshot fetch.
var Header = []string{
	"ticker", "name", "sector", "industry",
	"price", "change_pct", "market_cap",
	"pe_ratio", "pb_ratio", "ps_ratio",
	"week_52_high", "week_52_low", "week_52_return",
	"beta", "dividend_yield", "roe", "roa",
	"debt_equity", "current_ratio",
	"gross_margin", "net_margin", "revenue_growth",
	"buy_target", "sell_target", "price_tag", "tag_percent",
	"sentiment", "comments", "created_at",
}

type WatchlistReport struct{}

func New() *WatchlistReport {
	return &WatchlistReport{}
}

func (g *WatchlistReport) GenerateCSV(ctx context.Context, rows []model.Row) (fileBytes []byte, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "WatchlistReport.GenerateCSV"

	slog.Debug("GenerateCSV start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("rows", len(rows)))
	defer func() {
		if err != nil {
			slog.Error("GenerateCSV failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GenerateCSV completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err = w.Write(Header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		if err = w.Write(recordFromRow(row)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err = w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *WatchlistReport) GenerateXLSX(ctx context.Context, rows []model.Row) (fileBytes []byte, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "WatchlistReport.GenerateXLSX"

	slog.Debug("GenerateXLSX start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("rows", len(rows)))
	defer func() {
		if err != nil {
			slog.Error("GenerateXLSX failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GenerateXLSX completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", closeErr.Error()))
		}
	}()

	sheetName := "Watchlist"
	if _, err = f.NewSheet(sheetName); err != nil {
		return nil, err
	}

	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range Header {
		cell, cellErr := excelize.CoordinatesToCellName(i+1, 1)
		if cellErr != nil {
			return nil, cellErr
		}
		_ = f.SetCellStr(sheetName, cell, col)
		if err = f.SetCellStyle(sheetName, cell, cell, styleID); err != nil {
			return nil, fmt.Errorf("apply header style: %w", err)
		}
	}

	for rowIdx, row := range rows {
		record := recordFromRow(row)
		for colIdx, value := range record {
			cell, cellErr := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if cellErr != nil {
				return nil, cellErr
			}
			_ = f.SetCellStr(sheetName, cell, value)
		}
	}

	if err = f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func recordFromRow(row model.Row) []string {
	record := make([]string, 0, len(Header))

	record = append(record, row.Ticker)

	if row.Quote != nil {
		q := row.Quote
		record = append(record,
			q.Name, q.Sector, q.Industry,
			q.Price.String(),
			decString(q.ChangePct), decString(q.MarketCap),
			decString(q.PERatio), decString(q.PBRatio), decString(q.PSRatio),
			decString(q.Week52High), decString(q.Week52Low), decString(q.Week52Return),
			decString(q.Beta), decString(q.DividendYield), decString(q.ROE), decString(q.ROA),
			decString(q.DebtEquity), decString(q.CurrentRatio),
			decString(q.GrossMargin), decString(q.NetMargin), decString(q.RevenueGrowth),
		)
	} else {
		for i := 0; i < 21; i++ {
			record = append(record, "")
		}
	}

	record = append(record,
		decString(row.BuyTarget), decString(row.SellTarget),
		decString(row.PriceTag), decString(row.TagPercent),
		string(row.Sentiment), row.Comments,
		row.CreatedAt.Format(time.RFC3339),
	)

	return record
}

func decString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
