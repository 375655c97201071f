package models

// CoveredCallPnL is the marked result of one screened covered call after
// expiration. Nullable fields stay empty when the closing price could not be
// fetched.
type CoveredCallPnL struct {
	Ticker         string   `csv:"ticker" json:"ticker"`
	Expiration     string   `csv:"expiration" json:"expiration"`
	Strike         float64  `csv:"strike" json:"strike"`
	Premium        float64  `csv:"premium" json:"premium"`
	SpotAtTrade    float64  `csv:"spot_at_trade" json:"spot_at_trade"`
	ClosePrice     *float64 `csv:"close_price" json:"close_price,omitempty"`
	Assigned       *bool    `csv:"assigned" json:"assigned,omitempty"`
	PnLPerShare    *float64 `csv:"pnl_per_share" json:"pnl_per_share,omitempty"`
	PnLPerContract *float64 `csv:"pnl_per_contract" json:"pnl_per_contract,omitempty"`
	Delta          *float64 `csv:"delta" json:"delta,omitempty"`
	PremiumYield   *float64 `csv:"premium_yield" json:"premium_yield,omitempty"`
}

// Mark computes the settlement P&L for a covered call given the underlying
// close on expiration day. Close at or below the strike keeps the premium;
// above the strike the stock is called away at the strike.
func (p *CoveredCallPnL) Mark(close float64) {
	p.ClosePrice = ptr(close)

	var perShare float64
	assigned := close > p.Strike
	if assigned {
		perShare = p.Premium + (p.Strike - p.SpotAtTrade)
	} else {
		perShare = p.Premium
	}

	p.Assigned = &assigned
	p.PnLPerShare = ptr(perShare)
	p.PnLPerContract = ptr(perShare * 100)
}

// CondorPnL is the marked result of one screened iron condor.
type CondorPnL struct {
	Underlying     StockSymbol `csv:"underlying" json:"underlying"`
	Expiration     string      `csv:"expiration" json:"expiration"`
	CallSellStrike float64     `csv:"call_sell_strike" json:"call_sell_strike"`
	CallBuyStrike  float64     `csv:"call_buy_strike" json:"call_buy_strike"`
	PutSellStrike  float64     `csv:"put_sell_strike" json:"put_sell_strike"`
	PutBuyStrike   float64     `csv:"put_buy_strike" json:"put_buy_strike"`
	NetCredit      float64     `csv:"net_credit" json:"net_credit"`
	ClosePrice     *float64    `csv:"close_price" json:"close_price,omitempty"`
	InProfitZone   *bool       `csv:"in_profit_zone" json:"in_profit_zone,omitempty"`
	PnLPerShare    *float64    `csv:"pnl_per_share" json:"pnl_per_share,omitempty"`
	PnLPerContract *float64    `csv:"pnl_per_contract" json:"pnl_per_contract,omitempty"`
}

// Mark settles the condor against the underlying close on expiration day.
func (p *CondorPnL) Mark(close float64) {
	ic := IronCondor{
		CallSellStrike: p.CallSellStrike,
		CallBuyStrike:  p.CallBuyStrike,
		PutSellStrike:  p.PutSellStrike,
		PutBuyStrike:   p.PutBuyStrike,
		NetCredit:      p.NetCredit,
	}

	perShare := ic.SettlementPnL(close)
	inZone := close >= p.PutSellStrike && close <= p.CallSellStrike

	p.ClosePrice = ptr(close)
	p.InProfitZone = &inZone
	p.PnLPerShare = ptr(perShare)
	p.PnLPerContract = ptr(perShare * 100)
}

// PnLSummary aggregates marked rows for terminal display.
type PnLSummary struct {
	TotalTrades      int
	MarkedTrades     int
	ProfitableTrades int
	TotalPnL         float64
	AveragePnL       float64
	WinRate          float64
}

// Summarize folds per-contract P&L values into a summary. Nil entries count
// toward TotalTrades but not toward the marked statistics.
func Summarize(pnls []*float64) PnLSummary {
	s := PnLSummary{TotalTrades: len(pnls)}

	for _, p := range pnls {
		if p == nil {
			continue
		}

		s.MarkedTrades++
		s.TotalPnL += *p
		if *p > 0 {
			s.ProfitableTrades++
		}
	}

	if s.MarkedTrades > 0 {
		s.AveragePnL = s.TotalPnL / float64(s.MarkedTrades)
		s.WinRate = float64(s.ProfitableTrades) / float64(s.MarkedTrades) * 100
	}

	return s
}
