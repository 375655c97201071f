package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rwalsh-trading/marketscope/src/models"
)

func fixedClose(price float64) CloseFetcher {
	return func(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, error) {
		return price, nil
	}
}

func failingClose() CloseFetcher {
	return func(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, error) {
		return 0, fmt.Errorf("no data")
	}
}

func TestMarkCoveredCallPnL(t *testing.T) {
	rows := []*models.CoveredCallCandidate{
		{
			Ticker:     "O:AAPL260918C00240000",
			Underlying: "AAPL",
			Expiration: "2026-09-18",
			Strike:     240,
			Mid:        2.10,
			Spot:       230,
		},
		{
			Ticker:     "O:AAPL260918C00235000",
			Underlying: "AAPL",
			Expiration: "2026-09-18",
			Strike:     235,
			Mid:        3.40,
			Spot:       230,
		},
	}

	t.Run("marks both rows against the fetched close", func(t *testing.T) {
		marked, err := MarkCoveredCallPnL(context.Background(), rows, fixedClose(238))
		assert.NoError(t, err)
		assert.Len(t, marked, 2)

		// 238 below 240: premium kept
		assert.False(t, *marked[0].Assigned)
		assert.InDelta(t, 2.10, *marked[0].PnLPerShare, 1e-9)

		// 238 above 235: assigned
		assert.True(t, *marked[1].Assigned)
		assert.InDelta(t, 3.40+5, *marked[1].PnLPerShare, 1e-9)
	})

	t.Run("fetch failure leaves the row unmarked", func(t *testing.T) {
		marked, err := MarkCoveredCallPnL(context.Background(), rows, failingClose())
		assert.NoError(t, err)
		assert.Len(t, marked, 2)
		assert.Nil(t, marked[0].ClosePrice)
		assert.Nil(t, marked[0].PnLPerShare)
	})

	t.Run("bad expiration fails the batch", func(t *testing.T) {
		bad := []*models.CoveredCallCandidate{{Ticker: "X", Underlying: "AAPL", Expiration: "not-a-date"}}
		_, err := MarkCoveredCallPnL(context.Background(), bad, fixedClose(100))
		assert.Error(t, err)
	})
}

func TestMarkCondorPnL(t *testing.T) {
	rows := []*models.IronCondor{
		{
			Underlying:     "SPY",
			Expiration:     "2026-09-18",
			PutBuyStrike:   90,
			PutSellStrike:  95,
			CallSellStrike: 105,
			CallBuyStrike:  110,
			NetCredit:      1.30,
		},
	}

	t.Run("in-zone close keeps the credit", func(t *testing.T) {
		marked, err := MarkCondorPnL(context.Background(), rows, fixedClose(100))
		assert.NoError(t, err)
		assert.Len(t, marked, 1)
		assert.True(t, *marked[0].InProfitZone)
		assert.InDelta(t, 1.30, *marked[0].PnLPerShare, 1e-9)
	})

	t.Run("fetch failure leaves the row unmarked", func(t *testing.T) {
		marked, err := MarkCondorPnL(context.Background(), rows, failingClose())
		assert.NoError(t, err)
		assert.Nil(t, marked[0].ClosePrice)
	})
}

func TestMarkRealizedPnL(t *testing.T) {
	rows := []*models.CoveredCallCandidate{
		{Ticker: "O:SPY260819C00660000", Underlying: "SPY", Expiration: "2026-08-19", Strike: 660, Mid: 0.80, Spot: 655},
	}

	t.Run("unassigned marks the stock leg to market", func(t *testing.T) {
		marked := MarkRealizedPnL(rows, 650)
		assert.Len(t, marked, 1)
		assert.False(t, *marked[0].Assigned)
		// (650 - 655) + 0.80
		assert.InDelta(t, -4.20, *marked[0].PnLPerShare, 1e-9)
	})

	t.Run("assigned caps the gain at the strike", func(t *testing.T) {
		marked := MarkRealizedPnL(rows, 670)
		assert.True(t, *marked[0].Assigned)
		// (660 - 655) + 0.80
		assert.InDelta(t, 5.80, *marked[0].PnLPerShare, 1e-9)
	})
}

func TestUnderlyingFromOptionTicker(t *testing.T) {
	t.Run("stored underlying wins", func(t *testing.T) {
		symbol, err := underlyingFromOptionTicker("O:SPY250923C00665000", "SPY")
		assert.NoError(t, err)
		assert.Equal(t, models.StockSymbol("SPY"), symbol)
	})

	t.Run("parses OCC ticker when no fallback", func(t *testing.T) {
		symbol, err := underlyingFromOptionTicker("O:AAPL260918C00240000", "")
		assert.NoError(t, err)
		assert.Equal(t, models.StockSymbol("AAPL"), symbol)
	})

	t.Run("unparseable ticker errors", func(t *testing.T) {
		_, err := underlyingFromOptionTicker("garbage", "")
		assert.Error(t, err)
	})
}
