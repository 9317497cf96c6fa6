package dbModel

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type WatchlistEntry struct {
	Ticker     string              `db:"ticker"`
	BuyTarget  decimal.NullDecimal `db:"buy_target"`
	SellTarget decimal.NullDecimal `db:"sell_target"`
	PriceTag   decimal.NullDecimal `db:"price_tag"`
	TagPercent decimal.NullDecimal `db:"tag_percent"`
	Sentiment  sql.NullString      `db:"sentiment"`
	Comments   sql.NullString      `db:"comments"`
	CreatedAt  time.Time           `db:"created_at"`
}
