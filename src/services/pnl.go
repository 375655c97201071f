package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rwalsh-trading/marketscope/src/models"
)

// CloseFetcher resolves the official close for a symbol on a date. The
// production implementation is MarketDataService.GetDailyClose.
type CloseFetcher func(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, error)

// MarkCoveredCallPnL settles screened covered calls against the close fetched
// for each expiration date. Rows whose close cannot be fetched come back
// unmarked rather than failing the batch.
func MarkCoveredCallPnL(ctx context.Context, rows []*models.CoveredCallCandidate, fetchClose CloseFetcher) ([]*models.CoveredCallPnL, error) {
	var results []*models.CoveredCallPnL

	for _, row := range rows {
		pnl := &models.CoveredCallPnL{
			Ticker:       row.Ticker,
			Expiration:   row.Expiration,
			Strike:       row.Strike,
			Premium:      row.Mid,
			SpotAtTrade:  row.Spot,
			Delta:        row.Delta,
			PremiumYield: &row.PremiumYield,
		}

		symbol, err := underlyingFromOptionTicker(row.Ticker, row.Underlying)
		if err != nil {
			log.Warnf("MarkCoveredCallPnL: %v", err)
			results = append(results, pnl)
			continue
		}

		expiration, err := time.Parse("2006-01-02", row.Expiration)
		if err != nil {
			return nil, fmt.Errorf("MarkCoveredCallPnL: failed to parse expiration %s: %w", row.Expiration, err)
		}

		closePrice, err := fetchClose(ctx, symbol, expiration)
		if err != nil {
			log.Warnf("MarkCoveredCallPnL: could not fetch close for %s on %s: %v", symbol, row.Expiration, err)
			results = append(results, pnl)
			continue
		}

		pnl.Mark(closePrice)
		results = append(results, pnl)
	}

	return results, nil
}

// MarkCondorPnL settles screened condors against the close on each
// expiration date.
func MarkCondorPnL(ctx context.Context, rows []*models.IronCondor, fetchClose CloseFetcher) ([]*models.CondorPnL, error) {
	var results []*models.CondorPnL

	for _, row := range rows {
		pnl := &models.CondorPnL{
			Underlying:     row.Underlying,
			Expiration:     row.Expiration,
			CallSellStrike: row.CallSellStrike,
			CallBuyStrike:  row.CallBuyStrike,
			PutSellStrike:  row.PutSellStrike,
			PutBuyStrike:   row.PutBuyStrike,
			NetCredit:      row.NetCredit,
		}

		expiration, err := time.Parse("2006-01-02", row.Expiration)
		if err != nil {
			return nil, fmt.Errorf("MarkCondorPnL: failed to parse expiration %s: %w", row.Expiration, err)
		}

		closePrice, err := fetchClose(ctx, row.Underlying, expiration)
		if err != nil {
			log.Warnf("MarkCondorPnL: could not fetch close for %s on %s: %v", row.Underlying, row.Expiration, err)
			results = append(results, pnl)
			continue
		}

		pnl.Mark(closePrice)
		results = append(results, pnl)
	}

	return results, nil
}

// MarkRealizedPnL settles covered calls against a caller-provided close, for
// the 0-DTE flow where the trader already knows where the underlying
// finished.
func MarkRealizedPnL(rows []*models.CoveredCallCandidate, underlyingClose float64) []*models.CoveredCallPnL {
	results := make([]*models.CoveredCallPnL, 0, len(rows))

	for _, row := range rows {
		pnl := &models.CoveredCallPnL{
			Ticker:       row.Ticker,
			Expiration:   row.Expiration,
			Strike:       row.Strike,
			Premium:      row.Mid,
			SpotAtTrade:  row.Spot,
			Delta:        row.Delta,
			PremiumYield: &row.PremiumYield,
		}

		pnl.Mark(underlyingClose)

		// The caller holds the shares from the trade spot, so an
		// unassigned 0-DTE close marks the stock leg to market too.
		if !*pnl.Assigned {
			perShare := (underlyingClose - row.Spot) + row.Mid
			pnl.PnLPerShare = &perShare
			perContract := perShare * 100
			pnl.PnLPerContract = &perContract
		}

		results = append(results, pnl)
	}

	return results
}

// underlyingFromOptionTicker recovers the underlying symbol from an OCC-style
// option ticker such as O:SPY250923C00665000, falling back to the stored
// underlying when parsing fails.
func underlyingFromOptionTicker(ticker string, fallback models.StockSymbol) (models.StockSymbol, error) {
	if fallback != "" {
		return fallback, nil
	}

	trimmed := strings.TrimPrefix(ticker, "O:")
	for i, r := range trimmed {
		if r >= '0' && r <= '9' {
			if i == 0 {
				break
			}
			return models.NewStockSymbol(trimmed[:i]), nil
		}
	}

	return "", fmt.Errorf("underlyingFromOptionTicker: could not parse underlying from %q", ticker)
}
