package httpModel

// Row is one watchlist line as rendered by the UI: every market field is
// already formatted, missing values show as a placeholder.
type Row struct {
	Ticker        string `json:"ticker"`
	Name          string `json:"name"`
	Sector        string `json:"sector"`
	Industry      string `json:"industry"`
	Price         string `json:"price"`
	ChangePct     string `json:"change_pct"`
	MarketCap     string `json:"market_cap"`
	PERatio       string `json:"pe_ratio"`
	PBRatio       string `json:"pb_ratio"`
	PSRatio       string `json:"ps_ratio"`
	Week52High    string `json:"week_52_high"`
	Week52Low     string `json:"week_52_low"`
	Week52Return  string `json:"week_52_return"`
	Beta          string `json:"beta"`
	DividendYield string `json:"dividend_yield"`
	ROE           string `json:"roe"`
	ROA           string `json:"roa"`
	DebtEquity    string `json:"debt_equity"`
	CurrentRatio  string `json:"current_ratio"`
	GrossMargin   string `json:"gross_margin"`
	NetMargin     string `json:"net_margin"`
	RevenueGrowth string `json:"revenue_growth"`
	BuyTarget     string `json:"buy_target"`
	SellTarget    string `json:"sell_target"`
	PriceTag      string `json:"price_tag"`
	TagPercent    string `json:"tag_percent"`
	Sentiment     string `json:"sentiment"`
	Comments      string `json:"comments"`
	QuoteState    string `json:"quote_state"`
	CreatedAt     string `json:"created_at"`
}

type Summary struct {
	Tracked     int    `json:"tracked"`
	Gainers     int    `json:"gainers"`
	Losers      int    `json:"losers"`
	LastRefresh string `json:"last_refresh"`
}

type WatchlistResponse struct {
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
