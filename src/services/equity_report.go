package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/rwalsh-trading/marketscope/src/models"
)

// EquityReport is the comparative output for a set of tickers over a
// lookback window.
type EquityReport struct {
	From         time.Time
	To           time.Time
	Stats        []models.EquityStats
	Correlations []models.PairCorrelation
}

// BuildEquityReport fetches daily bars for each symbol and computes the
// comparative statistics. Symbols with too little history are dropped with a
// warning; the report fails only when nothing is left.
func (s *MarketDataService) BuildEquityReport(ctx context.Context, symbols []models.StockSymbol, lookbackDays int, now time.Time) (*EquityReport, error) {
	tracer := otel.Tracer("MarketDataService")
	ctx, span := tracer.Start(ctx, "BuildEquityReport")
	defer span.End()

	from := now.AddDate(0, 0, -lookbackDays)

	var series []models.EquitySeries
	var stats []models.EquityStats

	for _, symbol := range symbols {
		bars, err := s.FetchDailyBars(ctx, symbol, from, now)
		if err != nil {
			return nil, fmt.Errorf("BuildEquityReport: %w", err)
		}

		es := models.EquitySeries{Symbol: symbol, Bars: bars}

		st, err := models.NewEquityStats(es)
		if err != nil {
			log.Warnf("BuildEquityReport: dropping %s: %v", symbol, err)
			continue
		}

		series = append(series, es)
		stats = append(stats, st)
	}

	if len(stats) == 0 {
		return nil, fmt.Errorf("BuildEquityReport: no symbols had enough history")
	}

	correlations, err := models.Correlate(series)
	if err != nil {
		return nil, fmt.Errorf("BuildEquityReport: %w", err)
	}

	return &EquityReport{
		From:         from,
		To:           now,
		Stats:        stats,
		Correlations: correlations,
	}, nil
}

// FetchRealizedVol computes the annualized realized volatility of a symbol
// over the lookback window, used as the condor PoP fallback.
func (s *MarketDataService) FetchRealizedVol(ctx context.Context, symbol models.StockSymbol, lookbackDays int, now time.Time) (float64, error) {
	bars, err := s.FetchDailyBars(ctx, symbol, now.AddDate(0, 0, -lookbackDays), now)
	if err != nil {
		return 0, fmt.Errorf("FetchRealizedVol: %w", err)
	}

	vol, err := models.RealizedVol(models.EquitySeries{Symbol: symbol, Bars: bars})
	if err != nil {
		return 0, fmt.Errorf("FetchRealizedVol: %w", err)
	}

	return vol, nil
}
