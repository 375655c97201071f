package models

import "time"

// OptionSnapshot is a normalized row of an option chain snapshot. Quotes and
// greeks come back from the API as zero values when the feed has no data, so
// consumers must go through Midpoint / HasQuote rather than reading Bid/Ask
// directly.
type OptionSnapshot struct {
	Ticker            string      `json:"ticker"`
	Underlying        StockSymbol `json:"underlying"`
	OptionType        OptionType  `json:"option_type"`
	Strike            float64     `json:"strike"`
	Expiration        time.Time   `json:"expiration"`
	Bid               float64     `json:"bid"`
	Ask               float64     `json:"ask"`
	Delta             float64     `json:"delta,omitempty"`
	HasDelta          bool        `json:"has_delta,omitempty"`
	ImpliedVolatility float64     `json:"implied_volatility,omitempty"`
	OpenInterest      int         `json:"open_interest"`
	Volume            int         `json:"volume"`
	UnderlyingPrice   float64     `json:"underlying_price,omitempty"`
}

func (o OptionSnapshot) HasQuote() bool {
	return o.Bid > 0 && o.Ask > 0 && o.Ask >= o.Bid
}

// Midpoint returns the quote midpoint, or false when the quote is missing,
// non-positive, or crossed.
func (o OptionSnapshot) Midpoint() (float64, bool) {
	if !o.HasQuote() {
		return 0, false
	}

	return 0.5 * (o.Bid + o.Ask), true
}

func (o OptionSnapshot) Spread() float64 {
	return o.Ask - o.Bid
}

// SpreadToMid is the bid/ask spread as a fraction of the midpoint.
func (o OptionSnapshot) SpreadToMid() (float64, bool) {
	mid, ok := o.Midpoint()
	if !ok || mid <= 0 {
		return 0, false
	}

	return (o.Ask - o.Bid) / mid, true
}
