package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rwalsh-trading/marketscope/src/models"
)

func condorFixture() ([]models.OptionSnapshot, CondorScreenArgs) {
	loc, _ := time.LoadLocation("America/New_York")
	now := time.Date(2026, 8, 19, 10, 0, 0, 0, loc)
	expiration := time.Date(2026, 9, 18, 0, 0, 0, 0, loc)

	leg := func(optType models.OptionType, strike, bid, ask, iv float64) models.OptionSnapshot {
		return models.OptionSnapshot{
			Underlying:        "SPY",
			OptionType:        optType,
			Strike:            strike,
			Expiration:        expiration,
			Bid:               bid,
			Ask:               ask,
			ImpliedVolatility: iv,
			OpenInterest:      100,
			Volume:            50,
		}
	}

	chain := []models.OptionSnapshot{
		leg(models.Call, 105, 1.10, 1.30, 0.20),
		leg(models.Call, 110, 0.45, 0.55, 0.22),
		leg(models.Call, 115, 0.15, 0.25, 0.24),
		leg(models.Put, 95, 1.00, 1.20, 0.21),
		leg(models.Put, 90, 0.40, 0.60, 0.23),
		leg(models.Put, 85, 0.15, 0.25, 0.25),
	}

	args := CondorScreenArgs{
		Symbol:     "SPY",
		Spot:       100,
		Expiration: expiration,
		Now:        now,
		Loc:        loc,
		RunID:      "test-run",
	}

	return chain, args
}

func TestBuildIronCondors(t *testing.T) {
	chain, args := condorFixture()

	condors := BuildIronCondors(chain, args)
	assert.NotEmpty(t, condors)

	t.Run("strike ordering holds everywhere", func(t *testing.T) {
		for _, ic := range condors {
			assert.Less(t, ic.PutBuyStrike, ic.PutSellStrike)
			assert.Less(t, ic.PutSellStrike, ic.CallSellStrike)
			assert.Less(t, ic.CallSellStrike, ic.CallBuyStrike)
		}
	})

	t.Run("every condor is a positive-credit defined-risk trade", func(t *testing.T) {
		for _, ic := range condors {
			assert.Positive(t, ic.NetCredit)
			assert.Positive(t, ic.MaxLoss)
			assert.Equal(t, "test-run", ic.RunID)
			assert.NotNil(t, ic.PoP)
		}
	})

	t.Run("illiquid legs are excluded", func(t *testing.T) {
		thin := make([]models.OptionSnapshot, len(chain))
		copy(thin, chain)
		for i := range thin {
			thin[i].Volume = 0
		}

		assert.Empty(t, BuildIronCondors(thin, args))
	})

	t.Run("expired chain yields nothing", func(t *testing.T) {
		expired := args
		expired.Now = args.Expiration.AddDate(0, 0, 1)

		assert.Empty(t, BuildIronCondors(chain, expired))
	})

	t.Run("condor cap stops enumeration", func(t *testing.T) {
		capped := args
		capped.MaxCondors = 2

		out := BuildIronCondors(chain, capped)
		assert.Len(t, out, 2)
	})
}

func TestFilterIronCondors(t *testing.T) {
	chain, args := condorFixture()
	condors := BuildIronCondors(chain, args)

	t.Run("credit floor", func(t *testing.T) {
		kept := FilterIronCondors(condors, CondorFilters{MinNetCredit: 1.0})
		for _, ic := range kept {
			assert.GreaterOrEqual(t, ic.NetCredit, 1.0)
		}
		assert.Less(t, len(kept), len(condors))
	})

	t.Run("risk ceiling", func(t *testing.T) {
		kept := FilterIronCondors(condors, CondorFilters{MaxRisk: 9.0})
		for _, ic := range kept {
			assert.LessOrEqual(t, ic.MaxLoss, 9.0)
		}
	})

	t.Run("probability floor drops unknown PoP", func(t *testing.T) {
		noPoP := &models.IronCondor{NetCredit: 2.0, MaxLoss: 8.0}
		kept := FilterIronCondors([]*models.IronCondor{noPoP}, CondorFilters{MinProbability: 50})
		assert.Empty(t, kept)
	})
}

func TestRankIronCondors(t *testing.T) {
	chain, args := condorFixture()
	condors := BuildIronCondors(chain, args)

	t.Run("by credit", func(t *testing.T) {
		ranked := RankIronCondors(condors, CondorRankByCredit, 0)
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i-1].NetCredit, ranked[i].NetCredit)
		}
	})

	t.Run("by probability", func(t *testing.T) {
		ranked := RankIronCondors(condors, CondorRankByProbability, 0)
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, popOrZero(ranked[i-1]), popOrZero(ranked[i]))
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		ranked := RankIronCondors(condors, CondorRankByRiskReward, 3)
		assert.Len(t, ranked, 3)
	})
}

func TestCondorRankCriteriaValidate(t *testing.T) {
	assert.NoError(t, CondorRankByCredit.Validate())
	assert.NoError(t, CondorRankByProbability.Validate())
	assert.NoError(t, CondorRankByRiskReward.Validate())
	assert.Error(t, CondorRankCriteria("delta").Validate())
}

func TestCondorVolFallback(t *testing.T) {
	legs := models.CondorLegs{
		CallSell: models.OptionSnapshot{ImpliedVolatility: 0.20},
		PutSell:  models.OptionSnapshot{ImpliedVolatility: 0.30},
	}

	assert.InDelta(t, 0.25, condorVol(legs, 0.4), 1e-9)

	t.Run("no IV uses the fallback", func(t *testing.T) {
		assert.Equal(t, 0.4, condorVol(models.CondorLegs{}, 0.4))
	})
}
