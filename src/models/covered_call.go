package models

import "math"

// CoveredCallCandidate is one screened short call against a long stock
// position. Nullable metrics are pointers so missing IV or PoP round-trips
// through CSV as an empty cell instead of a fake zero.
type CoveredCallCandidate struct {
	RunID        string      `csv:"run_id" json:"run_id"`
	Ticker       string      `csv:"ticker" json:"ticker"`
	Underlying   StockSymbol `csv:"underlying" json:"underlying"`
	Expiration   string      `csv:"expiration" json:"expiration"`
	Strike       float64     `csv:"strike" json:"strike"`
	Delta        *float64    `csv:"delta" json:"delta,omitempty"`
	Bid          float64     `csv:"bid" json:"bid"`
	Ask          float64     `csv:"ask" json:"ask"`
	Mid          float64     `csv:"mid" json:"mid"`
	OpenInterest int         `csv:"open_interest" json:"open_interest"`
	IV           *float64    `csv:"iv" json:"iv,omitempty"`
	Spot         float64     `csv:"spot" json:"spot"`

	PremiumYield float64  `csv:"premium_yield" json:"premium_yield"`
	Breakeven    float64  `csv:"breakeven" json:"breakeven"`
	MaxProfit    float64  `csv:"max_profit" json:"max_profit"`
	PoP          *float64 `csv:"pop_est" json:"pop_est,omitempty"`

	ExpectedValue      *float64 `csv:"expected_value" json:"expected_value,omitempty"`
	ExpectedValuePct   *float64 `csv:"expected_value_pct" json:"expected_value_pct,omitempty"`
	DailyTheta         *float64 `csv:"daily_theta" json:"daily_theta,omitempty"`
	ThetaEfficiency    *float64 `csv:"theta_efficiency" json:"theta_efficiency,omitempty"`
	LiquidityScore     float64  `csv:"liquidity_score" json:"liquidity_score"`
	VolAdjustedPremium *float64 `csv:"vol_adjusted_premium" json:"vol_adjusted_premium,omitempty"`
	CapitalEfficiency  *float64 `csv:"capital_efficiency" json:"capital_efficiency,omitempty"`
	RiskAdjustedReturn *float64 `csv:"risk_adjusted_return" json:"risk_adjusted_return,omitempty"`
	PremiumToRisk      *float64 `csv:"premium_to_risk" json:"premium_to_risk,omitempty"`

	ScorePremium           float64 `csv:"score_premium" json:"score_premium"`
	ScorePoP               float64 `csv:"score_pop" json:"score_pop"`
	ScoreBalanced          float64 `csv:"score_balanced" json:"score_balanced"`
	ScoreMaxProfit         float64 `csv:"score_max_profit" json:"score_max_profit"`
	ScoreExpectedValue     float64 `csv:"score_expected_value" json:"score_expected_value"`
	ScoreRiskAdjusted      float64 `csv:"score_risk_adjusted" json:"score_risk_adjusted"`
	ScoreThetaEfficiency   float64 `csv:"score_theta_efficiency" json:"score_theta_efficiency"`
	ScoreLiquidity         float64 `csv:"score_liquidity" json:"score_liquidity"`
	ScoreCapitalEfficiency float64 `csv:"score_capital_efficiency" json:"score_capital_efficiency"`
	ScoreProfitable        float64 `csv:"score_profitable" json:"score_profitable"`
	ScoreAggressive        float64 `csv:"score_aggressive" json:"score_aggressive"`
}

// ComputeAdvancedMetrics fills in the profitability metrics that depend on
// the basic screen output. daysToExpiry may be zero on expiration day, in
// which case the theta metrics stay nil.
func (c *CoveredCallCandidate) ComputeAdvancedMetrics(tYears float64, daysToExpiry int) {
	if c.PoP != nil {
		// A covered call keeps the premium whether or not the stock is
		// called away, so the premium is both the win and loss amount.
		// Assignment opportunity cost is captured separately by
		// CapitalEfficiency and PremiumToRisk.
		ev := *c.PoP*c.Mid + (1-*c.PoP)*c.Mid
		c.ExpectedValue = ptr(ev)
		if c.Spot > 0 {
			c.ExpectedValuePct = ptr(ev / c.Spot)
		}
	}

	if daysToExpiry > 0 {
		theta := c.Mid / float64(daysToExpiry)
		c.DailyTheta = ptr(theta)
		if c.Spot > 0 {
			c.ThetaEfficiency = ptr(theta / c.Spot)
		}
	}

	spread := c.Ask - c.Bid
	if c.Bid > 0 && spread > 0 {
		c.LiquidityScore = float64(c.OpenInterest) * 1000 / (spread / c.Bid)
	}

	if c.IV != nil && *c.IV > 0 && tYears > 0 {
		c.VolAdjustedPremium = ptr(c.Mid / (*c.IV * math.Sqrt(tYears)))
	}

	capitalAtRisk := c.Strike - c.Spot
	if capitalAtRisk > 0 {
		c.CapitalEfficiency = ptr(c.Mid / capitalAtRisk)
	}

	if c.ExpectedValue != nil {
		riskProxy := 0.2
		if c.IV != nil && *c.IV > 0 {
			riskProxy = *c.IV
		}
		if c.Spot > 0 {
			c.RiskAdjustedReturn = ptr(*c.ExpectedValue / (riskProxy * c.Spot))
		}
	}

	maxLoss := (c.Strike - c.Spot) - c.Mid
	if maxLoss > 0 {
		c.PremiumToRisk = ptr(c.Mid / maxLoss)
	}
}

// ComputeScores derives the ranking scores from the metrics. Advanced scores
// are clamped to [0, 1] so the composite weights stay meaningful.
func (c *CoveredCallCandidate) ComputeScores() {
	c.ScorePremium = c.PremiumYield

	c.ScorePoP = 0.5
	if c.PoP != nil {
		c.ScorePoP = *c.PoP
	}

	c.ScoreBalanced = c.PremiumYield * c.ScorePoP

	if c.Spot > 0 {
		c.ScoreMaxProfit = c.MaxProfit / c.Spot
	}

	if c.ExpectedValuePct != nil {
		c.ScoreExpectedValue = clamp01(*c.ExpectedValuePct * 100)
	}

	if c.RiskAdjustedReturn != nil {
		c.ScoreRiskAdjusted = clamp01(*c.RiskAdjustedReturn * 10)
	}

	if c.ThetaEfficiency != nil {
		c.ScoreThetaEfficiency = clamp01(*c.ThetaEfficiency * 1000)
	}

	c.ScoreLiquidity = clamp01(c.LiquidityScore / 1e6)

	if c.CapitalEfficiency != nil {
		c.ScoreCapitalEfficiency = clamp01(*c.CapitalEfficiency / 10)
	}

	c.ScoreProfitable = c.ScoreExpectedValue*0.4 +
		c.ScoreRiskAdjusted*0.3 +
		c.ScoreThetaEfficiency*0.2 +
		c.ScoreLiquidity*0.1

	c.ScoreAggressive = c.ScorePremium*0.5 +
		c.ScoreExpectedValue*0.3 +
		c.ScoreCapitalEfficiency*0.2
}

// ScoreFor returns the score backing a ranking criteria.
func (c *CoveredCallCandidate) ScoreFor(criteria RankCriteria) float64 {
	switch criteria {
	case RankByPremium:
		return c.ScorePremium
	case RankByProbability:
		return c.ScorePoP
	case RankByBalanced:
		return c.ScoreBalanced
	case RankByMaxProfit:
		return c.ScoreMaxProfit
	case RankByExpectedValue:
		return c.ScoreExpectedValue
	case RankByProfitable:
		return c.ScoreProfitable
	case RankByAggressive:
		return c.ScoreAggressive
	default:
		return c.ScoreBalanced
	}
}

type RankCriteria string

const (
	RankByPremium       RankCriteria = "premium"
	RankByProbability   RankCriteria = "probability"
	RankByBalanced      RankCriteria = "balanced"
	RankByMaxProfit     RankCriteria = "max_profit"
	RankByExpectedValue RankCriteria = "expected_value"
	RankByProfitable    RankCriteria = "profitable"
	RankByAggressive    RankCriteria = "aggressive"
)

func (r RankCriteria) Validate() error {
	switch r {
	case RankByPremium, RankByProbability, RankByBalanced, RankByMaxProfit,
		RankByExpectedValue, RankByProfitable, RankByAggressive:
		return nil
	}

	return errInvalidRankCriteria(r)
}
