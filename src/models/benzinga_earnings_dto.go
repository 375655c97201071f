package models

// BenzingaEarningsDTO is one row of the Polygon Benzinga earnings endpoint.
type BenzingaEarningsDTO struct {
	Ticker       string `json:"ticker"`
	Date         string `json:"date"`
	Time         string `json:"time,omitempty"`
	FiscalYear   int    `json:"fiscal_year,omitempty"`
	FiscalPeriod string `json:"fiscal_period,omitempty"`
	Importance   int    `json:"importance,omitempty"`
}

// BenzingaEarningsResponse is the paginated envelope around earnings rows.
type BenzingaEarningsResponse struct {
	Results   []BenzingaEarningsDTO `json:"results"`
	Status    string                `json:"status"`
	RequestID string                `json:"request_id"`
	NextURL   *string               `json:"next_url,omitempty"`
}
