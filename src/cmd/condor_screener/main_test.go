package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rwalsh-trading/marketscope/src/models"
)

func TestRenderCondors(t *testing.T) {
	condors := []*models.IronCondor{
		{
			Underlying:      "SPY",
			Expiration:      "2026-09-18",
			PutBuyStrike:    90,
			PutSellStrike:   95,
			CallSellStrike:  105,
			CallBuyStrike:   110,
			NetCredit:       1.30,
			MaxLoss:         8.70,
			RiskReward:      0.15,
			ProfitZoneLower: 95,
			ProfitZoneUpper: 105,
			BreakevenLower:  93.70,
			BreakevenUpper:  106.30,
		},
	}

	out := renderCondors(condors)

	// The profit zone spans the short strikes, not the breakevens.
	assert.Contains(t, out, "$95.00 - $105.00")
	assert.NotContains(t, out, "$93.70")
	assert.NotContains(t, out, "$106.30")
	assert.Contains(t, out, "Profit Zone")
}
