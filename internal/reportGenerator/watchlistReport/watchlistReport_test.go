package watchlistReport

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/avolkov/stockpad/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleRows() []model.Row {
	chg := decimal.RequireFromString("-0.42")
	return []model.Row{
		{
			WatchlistEntry: model.WatchlistEntry{
				Ticker:     "AAPL",
				BuyTarget:  dec("150.00"),
				SellTarget: dec("220.5"),
				Sentiment:  model.SentimentBullish,
				Comments:   `earnings "beat", watch guidance`,
				CreatedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			},
			Quote: &model.Snapshot{
				Ticker:    "AAPL",
				Name:      "Apple Inc",
				Price:     decimal.RequireFromString("190.12"),
				ChangePct: &chg,
				PERatio:   dec("28.4"),
			},
			QuoteState: model.QuoteLoaded,
		},
		{
			WatchlistEntry: model.WatchlistEntry{
				Ticker:    "MSFT",
				Comments:  "one, two, three",
				CreatedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
			},
			QuoteState: model.QuoteLoading,
		},
	}
}

func TestGenerateCSV_HeaderPlusOneLinePerRow(t *testing.T) {
	g := New()

	out, err := g.GenerateCSV(context.Background(), sampleRows())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ticker,"))
}

func TestGenerateCSV_EmptyList(t *testing.T) {
	g := New()

	out, err := g.GenerateCSV(context.Background(), nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	assert.Len(t, lines, 1)
}

func TestGenerateCSV_PersistedFieldsRoundTrip(t *testing.T) {
	g := New()
	rows := sampleRows()

	out, err := g.GenerateCSV(context.Background(), rows)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(rows)+1)

	col := map[string]int{}
	for i, name := range records[0] {
		col[name] = i
	}

	for i, row := range rows {
		record := records[i+1]
		assert.Equal(t, row.Ticker, record[col["ticker"]])
		assert.Equal(t, string(row.Sentiment), record[col["sentiment"]])
		assert.Equal(t, row.Comments, record[col["comments"]])
		assert.Equal(t, row.CreatedAt.Format(time.RFC3339), record[col["created_at"]])

		if row.BuyTarget != nil {
			got := decimal.RequireFromString(record[col["buy_target"]])
			assert.True(t, row.BuyTarget.Equal(got))
		} else {
			assert.Empty(t, record[col["buy_target"]])
		}
	}
}

func TestGenerateCSV_QuotesEmbeddedCommas(t *testing.T) {
	g := New()

	out, err := g.GenerateCSV(context.Background(), sampleRows())
	require.NoError(t, err)

	assert.Contains(t, string(out), `"earnings ""beat"", watch guidance"`)
	assert.Contains(t, string(out), `"one, two, three"`)
}

func TestGenerateXLSX_ProducesWorkbook(t *testing.T) {
	g := New()

	out, err := g.GenerateXLSX(context.Background(), sampleRows())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	// xlsx files are zip archives
	assert.Equal(t, []byte{'P', 'K'}, out[:2])
}
