package models

// Request and response payloads shared by the market data tool server and
// the in-process agent tools. Schema tags decode query parameters on the
// server side, json tags carry the agent's tool-call arguments.

type LastTradeRequest struct {
	Symbol string `json:"symbol" schema:"symbol,required"`
}

type LastTradeResponse struct {
	Symbol StockSymbol `json:"symbol"`
	Price  float64     `json:"price"`
}

type PreviousCloseRequest struct {
	Symbol string `json:"symbol" schema:"symbol,required"`
}

type PreviousCloseResponse struct {
	Symbol StockSymbol `json:"symbol"`
	Bar    DailyBar    `json:"bar"`
}

type DailyAggsRequest struct {
	Symbol string `json:"symbol" schema:"symbol,required"`
	Days   int    `json:"days" schema:"days"`
}

type DailyAggsResponse struct {
	Symbol StockSymbol `json:"symbol"`
	Bars   []DailyBar  `json:"bars"`
}

type ChainSnapshotRequest struct {
	Symbol       string `json:"symbol" schema:"symbol,required"`
	ContractType string `json:"contract_type" schema:"contract_type"`
	Expiration   string `json:"expiration" schema:"expiration"`
	MaxContracts int    `json:"max_contracts" schema:"max_contracts"`
}

type ChainSnapshotResponse struct {
	Symbol    StockSymbol      `json:"symbol"`
	Spot      float64          `json:"spot"`
	Contracts []OptionSnapshot `json:"contracts"`
}

type MarketStatusResponse struct {
	Market     string `json:"market"`
	Exchanges  string `json:"exchanges,omitempty"`
	ServerTime string `json:"server_time,omitempty"`
}
