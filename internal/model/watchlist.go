package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentNeutral Sentiment = "Neutral"
	SentimentBearish Sentiment = "Bearish"
)

// Sentiments lists every allowed sentiment value.
var Sentiments = []Sentiment{SentimentBullish, SentimentNeutral, SentimentBearish}

func (s Sentiment) Valid() bool {
	for _, v := range Sentiments {
		if s == v {
			return true
		}
	}
	return false
}

// WatchlistEntry is one persisted row keyed by ticker. All annotation
// fields are independently optional: nil pointers and empty strings mean
// the user never filled them in.
type WatchlistEntry struct {
	Ticker     string
	BuyTarget  *decimal.Decimal
	SellTarget *decimal.Decimal
	PriceTag   *decimal.Decimal
	TagPercent *decimal.Decimal
	Sentiment  Sentiment
	Comments   string
	CreatedAt  time.Time
}

type QuoteState string

const (
	QuoteLoading QuoteState = "loading"
	QuoteLoaded  QuoteState = "loaded"
	QuoteFailed  QuoteState = "failed"
)

// Snapshot is a point-in-time set of market fields for one ticker.
// Price is always present; everything else depends on what the provider
// returns for the instrument (funds usually have no P/E).
type Snapshot struct {
	Ticker        string
	Name          string
	Sector        string
	Industry      string
	Price         decimal.Decimal
	ChangePct     *decimal.Decimal
	MarketCap     *decimal.Decimal
	PERatio       *decimal.Decimal
	PBRatio       *decimal.Decimal
	PSRatio       *decimal.Decimal
	Week52High    *decimal.Decimal
	Week52Low     *decimal.Decimal
	Week52Return  *decimal.Decimal
	Beta          *decimal.Decimal
	DividendYield *decimal.Decimal
	ROE           *decimal.Decimal
	ROA           *decimal.Decimal
	DebtEquity    *decimal.Decimal
	CurrentRatio  *decimal.Decimal
	GrossMargin   *decimal.Decimal
	NetMargin     *decimal.Decimal
	RevenueGrowth *decimal.Decimal
	FetchedAt     time.Time
}

// Row merges a persisted entry with the last fetched snapshot. Quote is
// nil until the first fetch for the ticker succeeds.
type Row struct {
	WatchlistEntry
	Quote      *Snapshot
	QuoteState QuoteState
}

type WatchlistSummary struct {
	Tracked     int
	Gainers     int
	Losers      int
	LastRefresh time.Time
}

// Direction narrows rows to one side of the day's move.
type Direction string

const (
	DirectionAny     Direction = ""
	DirectionGainers Direction = "gainers"
	DirectionLosers  Direction = "losers"
)

// WatchlistQuery narrows and orders merged rows. The zero value returns
// every row in store order. Rows without a known % change count as flat
// for the range and direction filters.
type WatchlistQuery struct {
	TickerContains string
	Industry       string
	Sentiment      string
	ChangeMin      *decimal.Decimal
	ChangeMax      *decimal.Decimal
	Direction      Direction
	SortKey        string
	SortDesc       bool
}
