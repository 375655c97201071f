package models

import "fmt"

// IronCondor is a short call spread plus a short put spread on the same
// underlying and expiration. Strikes must satisfy
// PutBuyStrike < PutSellStrike < CallSellStrike < CallBuyStrike.
type IronCondor struct {
	RunID          string      `csv:"run_id" json:"run_id"`
	Underlying     StockSymbol `csv:"underlying" json:"underlying"`
	Expiration     string      `csv:"expiration" json:"expiration"`
	CallSellStrike float64     `csv:"call_sell_strike" json:"call_sell_strike"`
	CallBuyStrike  float64     `csv:"call_buy_strike" json:"call_buy_strike"`
	PutSellStrike  float64     `csv:"put_sell_strike" json:"put_sell_strike"`
	PutBuyStrike   float64     `csv:"put_buy_strike" json:"put_buy_strike"`

	NetCredit       float64 `csv:"net_credit" json:"net_credit"`
	MaxProfit       float64 `csv:"max_profit" json:"max_profit"`
	MaxLoss         float64 `csv:"max_loss" json:"max_loss"`
	ProfitZoneLower float64 `csv:"profit_zone_lower" json:"profit_zone_lower"`
	ProfitZoneUpper float64 `csv:"profit_zone_upper" json:"profit_zone_upper"`
	// BreakevenLower/Upper are the settlement prices at which the position
	// is flat: short strikes shifted outward by the credit received.
	BreakevenLower float64 `csv:"breakeven_lower" json:"breakeven_lower"`
	BreakevenUpper float64 `csv:"breakeven_upper" json:"breakeven_upper"`

	PoP              *float64 `csv:"probability_of_profit" json:"probability_of_profit,omitempty"`
	RiskReward       float64  `csv:"risk_reward_ratio" json:"risk_reward_ratio"`
	DaysToExpiration int      `csv:"days_to_expiration" json:"days_to_expiration"`
	SpotPrice        float64  `csv:"spot_price" json:"spot_price"`
	HasEarnings      bool     `csv:"has_upcoming_earnings" json:"has_upcoming_earnings"`
	Timestamp        string   `csv:"timestamp" json:"timestamp"`
}

// CondorLegs groups the four chain rows a condor is built from.
type CondorLegs struct {
	CallSell OptionSnapshot
	CallBuy  OptionSnapshot
	PutSell  OptionSnapshot
	PutBuy   OptionSnapshot
}

// NewIronCondor prices a condor from its legs. It returns an error when the
// strike ordering is wrong, a quote is missing, the net credit is not
// positive, or the max loss is not positive.
func NewIronCondor(underlying StockSymbol, legs CondorLegs, spot float64, daysToExp int) (*IronCondor, error) {
	if !(legs.PutBuy.Strike < legs.PutSell.Strike &&
		legs.PutSell.Strike < legs.CallSell.Strike &&
		legs.CallSell.Strike < legs.CallBuy.Strike) {
		return nil, fmt.Errorf("NewIronCondor: invalid strike ordering: %.2f/%.2f put, %.2f/%.2f call",
			legs.PutBuy.Strike, legs.PutSell.Strike, legs.CallSell.Strike, legs.CallBuy.Strike)
	}

	callCredit, ok := legs.CallSell.Midpoint()
	if !ok {
		return nil, fmt.Errorf("NewIronCondor: no quote for short call %.2f", legs.CallSell.Strike)
	}

	callDebit, ok := legs.CallBuy.Midpoint()
	if !ok {
		return nil, fmt.Errorf("NewIronCondor: no quote for long call %.2f", legs.CallBuy.Strike)
	}

	putCredit, ok := legs.PutSell.Midpoint()
	if !ok {
		return nil, fmt.Errorf("NewIronCondor: no quote for short put %.2f", legs.PutSell.Strike)
	}

	putDebit, ok := legs.PutBuy.Midpoint()
	if !ok {
		return nil, fmt.Errorf("NewIronCondor: no quote for long put %.2f", legs.PutBuy.Strike)
	}

	netCredit := callCredit - callDebit + putCredit - putDebit
	if netCredit <= 0 {
		return nil, fmt.Errorf("NewIronCondor: net credit %.4f is not positive", netCredit)
	}

	callWidth := legs.CallBuy.Strike - legs.CallSell.Strike
	putWidth := legs.PutSell.Strike - legs.PutBuy.Strike
	maxLoss := callWidth + putWidth - netCredit
	if maxLoss <= 0 {
		return nil, fmt.Errorf("NewIronCondor: max loss %.4f is not positive", maxLoss)
	}

	ic := &IronCondor{
		Underlying:       underlying,
		Expiration:       legs.CallSell.Expiration.Format("2006-01-02"),
		CallSellStrike:   legs.CallSell.Strike,
		CallBuyStrike:    legs.CallBuy.Strike,
		PutSellStrike:    legs.PutSell.Strike,
		PutBuyStrike:     legs.PutBuy.Strike,
		NetCredit:        netCredit,
		MaxProfit:        netCredit,
		MaxLoss:          maxLoss,
		ProfitZoneLower:  legs.PutSell.Strike,
		ProfitZoneUpper:  legs.CallSell.Strike,
		BreakevenLower:   legs.PutSell.Strike - netCredit,
		BreakevenUpper:   legs.CallSell.Strike + netCredit,
		RiskReward:       netCredit / maxLoss,
		DaysToExpiration: daysToExp,
		SpotPrice:        spot,
	}

	return ic, nil
}

// EstimatePoP fills in the Black-Scholes probability that the underlying
// settles inside the profit zone. iv should be the implied volatility of the
// short strikes (or a realized-vol fallback when the chain has no IV).
func (ic *IronCondor) EstimatePoP(iv, tYears float64) {
	p, ok := ProbBetween(ic.SpotPrice, ic.ProfitZoneLower, ic.ProfitZoneUpper, iv, tYears)
	if !ok {
		return
	}

	ic.PoP = ptr(p)
}

// SettlementPnL is the per-share profit at expiration for an underlying
// close. Inside the profit zone the full credit is kept; beyond a short
// strike the loss grows linearly until the long strike caps it.
func (ic *IronCondor) SettlementPnL(close float64) float64 {
	pnl := ic.NetCredit

	if close > ic.CallSellStrike {
		breach := close - ic.CallSellStrike
		width := ic.CallBuyStrike - ic.CallSellStrike
		if breach > width {
			breach = width
		}
		pnl -= breach
	} else if close < ic.PutSellStrike {
		breach := ic.PutSellStrike - close
		width := ic.PutSellStrike - ic.PutBuyStrike
		if breach > width {
			breach = width
		}
		pnl -= breach
	}

	return pnl
}
