package finnhubModel

// Quote is the /quote endpoint payload. Current == 0 means the provider
// does not know the symbol.
type Quote struct {
	Current   float64 `json:"c"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	PrevClose float64 `json:"pc"`
}

// Profile is the /stock/profile2 endpoint payload. MarketCap comes back
// in millions.
type Profile struct {
	Name      string  `json:"name"`
	Sector    string  `json:"gsector"`
	Industry  string  `json:"finnhubIndustry"`
	MarketCap float64 `json:"marketCapitalization"`
}

// Metrics is the /stock/metric endpoint payload. Individual metrics are
// frequently absent, so every value is a pointer.
type Metrics struct {
	Metric map[string]*float64 `json:"metric"`
}
