package dbConverter

import (
	"github.com/avolkov/stockpad/internal/model"
	"github.com/avolkov/stockpad/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

func ConvertWatchlistEntry(dbEntry dbModel.WatchlistEntry) model.WatchlistEntry {
	return model.WatchlistEntry{
		Ticker:     dbEntry.Ticker,
		BuyTarget:  nullDecimalToPtr(dbEntry.BuyTarget),
		SellTarget: nullDecimalToPtr(dbEntry.SellTarget),
		PriceTag:   nullDecimalToPtr(dbEntry.PriceTag),
		TagPercent: nullDecimalToPtr(dbEntry.TagPercent),
		Sentiment:  model.Sentiment(dbEntry.Sentiment.String),
		Comments:   dbEntry.Comments.String,
		CreatedAt:  dbEntry.CreatedAt,
	}
}

func nullDecimalToPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
