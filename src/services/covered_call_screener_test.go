package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rwalsh-trading/marketscope/src/models"
)

func screenFixture() ([]models.OptionSnapshot, CoveredCallScreenArgs) {
	loc, _ := time.LoadLocation("America/New_York")
	now := time.Date(2026, 8, 19, 10, 0, 0, 0, loc)
	expiration := time.Date(2026, 9, 18, 0, 0, 0, 0, loc)

	call := func(strike, bid, ask, delta, iv float64, oi int) models.OptionSnapshot {
		return models.OptionSnapshot{
			Ticker:            "O:AAPL260918C00000000",
			Underlying:        "AAPL",
			OptionType:        models.Call,
			Strike:            strike,
			Expiration:        expiration,
			Bid:               bid,
			Ask:               ask,
			Delta:             delta,
			HasDelta:          delta != 0,
			ImpliedVolatility: iv,
			OpenInterest:      oi,
		}
	}

	chain := []models.OptionSnapshot{
		call(102, 1.00, 1.20, 0.35, 0.25, 100),
		call(103, 0.80, 1.00, 0.30, 0.25, 200),
		call(120, 0.10, 0.20, 0.05, 0.30, 500), // beyond the OTM band
		call(104, 0.05, 0.15, 0.20, 0.25, 100), // bid too small
		call(104.5, 0.50, 0.70, 0.60, 0.25, 100), // delta too high
		call(105, 0.40, 0.60, 0.20, 0.25, 5),   // open interest too thin
		call(101, 0.10, 1.00, 0.40, 0.25, 100), // spread too wide
		{ // puts never make the screen
			OptionType: models.Put, Strike: 98, Expiration: expiration,
			Bid: 1.0, Ask: 1.2, OpenInterest: 100,
		},
	}

	args := CoveredCallScreenArgs{
		Symbol:     "AAPL",
		Spot:       100,
		Expiration: expiration,
		Filters: models.FilterProfile{
			MinOTMPct:       0.0,
			MaxOTMPct:       0.05,
			DeltaLo:         0.10,
			DeltaHi:         0.50,
			MinBid:          0.10,
			MinOpenInterest: 25,
			MaxSpreadToMid:  1.0,
		},
		Now:   now,
		Loc:   loc,
		RunID: "test-run",
	}

	return chain, args
}

func TestScreenCoveredCalls(t *testing.T) {
	chain, args := screenFixture()

	candidates := ScreenCoveredCalls(chain, args)
	assert.Len(t, candidates, 2)

	t.Run("sorted by premium yield", func(t *testing.T) {
		assert.Equal(t, 102.0, candidates[0].Strike)
		assert.Equal(t, 103.0, candidates[1].Strike)
		assert.Greater(t, candidates[0].PremiumYield, candidates[1].PremiumYield)
	})

	t.Run("pricing fields", func(t *testing.T) {
		c := candidates[0]
		assert.Equal(t, "test-run", c.RunID)
		assert.InDelta(t, 1.10, c.Mid, 1e-9)
		assert.InDelta(t, 1.10/100, c.PremiumYield, 1e-9)
		assert.InDelta(t, 100-1.10, c.Breakeven, 1e-9)
		assert.InDelta(t, (102-100)+1.10, c.MaxProfit, 1e-9)
	})

	t.Run("greeks propagate", func(t *testing.T) {
		c := candidates[0]
		assert.NotNil(t, c.Delta)
		assert.InDelta(t, 0.35, *c.Delta, 1e-9)
		assert.NotNil(t, c.IV)
		assert.NotNil(t, c.PoP)
		assert.Greater(t, *c.PoP, 0.5)
	})

	t.Run("scores are computed", func(t *testing.T) {
		for _, c := range candidates {
			assert.Greater(t, c.ScoreBalanced, 0.0)
			assert.Greater(t, c.ScoreAggressive, 0.0)
		}
	})

	t.Run("missing greeks still pass the delta filter", func(t *testing.T) {
		row := chain[0]
		row.HasDelta = false
		row.Delta = 0
		row.ImpliedVolatility = 0

		out := ScreenCoveredCalls([]models.OptionSnapshot{row}, args)
		assert.Len(t, out, 1)
		assert.Nil(t, out[0].Delta)
		assert.Nil(t, out[0].PoP)
	})
}

func TestRankCoveredCalls(t *testing.T) {
	chain, args := screenFixture()
	candidates := ScreenCoveredCalls(chain, args)

	t.Run("probability ranking can reorder", func(t *testing.T) {
		ranked := RankCoveredCalls(candidates, models.RankByProbability, 0)
		assert.Len(t, ranked, len(candidates))
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i-1].ScorePoP, ranked[i].ScorePoP)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		ranked := RankCoveredCalls(candidates, models.RankByPremium, 1)
		assert.Len(t, ranked, 1)
	})

	t.Run("input order is preserved", func(t *testing.T) {
		before := candidates[0]
		RankCoveredCalls(candidates, models.RankByProbability, 1)
		assert.Equal(t, before, candidates[0])
	})
}
