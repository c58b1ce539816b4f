package model

// CompanyProfile holds static issuer metadata plus point-in-time quote values.
// MarketCap and CurrentPrice are reported in Currency; if a point-in-time
// conversion could not use a valid latest rate, the values are left in the
// source currency and StaleConversion is set instead of silently dividing by
// a bad rate.
type CompanyProfile struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Sector          string  `json:"sector"`
	MarketCap       float64 `json:"marketCap"`
	CurrentPrice    float64 `json:"currentPrice"`
	Currency        string  `json:"currency"`
	StaleConversion bool    `json:"staleConversion,omitempty"`
}
