package models

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// DailyBar is a single daily aggregate for an equity.
type DailyBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	VWAP      float64   `json:"vwap,omitempty"`
}

// EquitySeries is a symbol's daily bars over the report window, oldest first.
type EquitySeries struct {
	Symbol StockSymbol
	Bars   []DailyBar
}

// DailyReturns is the day-over-day close-to-close percent change series.
func (s EquitySeries) DailyReturns() []float64 {
	if len(s.Bars) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(s.Bars)-1)
	for i := 1; i < len(s.Bars); i++ {
		prev := s.Bars[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (s.Bars[i].Close-prev)/prev)
	}

	return returns
}

// EquityStats summarizes one symbol inside a comparative report.
type EquityStats struct {
	Symbol          StockSymbol `csv:"symbol" json:"symbol"`
	FirstClose      float64     `csv:"first_close" json:"first_close"`
	LastClose       float64     `csv:"last_close" json:"last_close"`
	TotalReturn     float64     `csv:"total_return" json:"total_return"`
	AnnualizedVol   float64     `csv:"annualized_volatility" json:"annualized_volatility"`
	MaxDrawdown     float64     `csv:"max_drawdown" json:"max_drawdown"`
	MeanDailyReturn float64     `csv:"mean_daily_return" json:"mean_daily_return"`
	AverageVolume   float64     `csv:"average_volume" json:"average_volume"`
	TradingDays     int         `csv:"trading_days" json:"trading_days"`
}

// PairCorrelation is the daily-return correlation of two symbols.
type PairCorrelation struct {
	A           StockSymbol `json:"a"`
	B           StockSymbol `json:"b"`
	Correlation float64     `json:"correlation"`
}

const tradingDaysPerYear = 252

// NewEquityStats computes summary statistics for one series.
func NewEquityStats(s EquitySeries) (EquityStats, error) {
	if len(s.Bars) < 2 {
		return EquityStats{}, fmt.Errorf("NewEquityStats: need at least 2 bars for %s, got %d", s.Symbol, len(s.Bars))
	}

	returns := s.DailyReturns()

	mean, err := stats.Mean(returns)
	if err != nil {
		return EquityStats{}, fmt.Errorf("NewEquityStats: failed to compute mean for %s: %w", s.Symbol, err)
	}

	sd, err := stats.StandardDeviation(returns)
	if err != nil {
		return EquityStats{}, fmt.Errorf("NewEquityStats: failed to compute stddev for %s: %w", s.Symbol, err)
	}

	volumes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		volumes[i] = b.Volume
	}

	avgVolume, err := stats.Mean(volumes)
	if err != nil {
		return EquityStats{}, fmt.Errorf("NewEquityStats: failed to compute average volume for %s: %w", s.Symbol, err)
	}

	first := s.Bars[0].Close
	last := s.Bars[len(s.Bars)-1].Close

	result := EquityStats{
		Symbol:          s.Symbol,
		FirstClose:      first,
		LastClose:       last,
		AnnualizedVol:   sd * math.Sqrt(tradingDaysPerYear),
		MaxDrawdown:     maxDrawdown(s.Bars),
		MeanDailyReturn: mean,
		AverageVolume:   avgVolume,
		TradingDays:     len(s.Bars),
	}

	if first != 0 {
		result.TotalReturn = (last - first) / first
	}

	return result, nil
}

// Correlate computes the pairwise daily-return correlations of the series.
// Series are aligned by truncating to the shortest overlapping length from
// the end, so a symbol with a short history does not skew the pair.
func Correlate(series []EquitySeries) ([]PairCorrelation, error) {
	var pairs []PairCorrelation

	for i := 0; i < len(series); i++ {
		for j := i + 1; j < len(series); j++ {
			a := series[i].DailyReturns()
			b := series[j].DailyReturns()

			n := len(a)
			if len(b) < n {
				n = len(b)
			}
			if n < 2 {
				continue
			}

			corr, err := stats.Correlation(a[len(a)-n:], b[len(b)-n:])
			if err != nil {
				return nil, fmt.Errorf("Correlate: %s/%s: %w", series[i].Symbol, series[j].Symbol, err)
			}

			pairs = append(pairs, PairCorrelation{
				A:           series[i].Symbol,
				B:           series[j].Symbol,
				Correlation: corr,
			})
		}
	}

	return pairs, nil
}

// RealizedVol is the annualized close-to-close volatility of a series, used
// as the PoP fallback when a chain snapshot carries no implied volatility.
func RealizedVol(s EquitySeries) (float64, error) {
	returns := s.DailyReturns()
	if len(returns) < 2 {
		return 0, fmt.Errorf("RealizedVol: need at least 2 returns for %s, got %d", s.Symbol, len(returns))
	}

	sd, err := stats.StandardDeviation(returns)
	if err != nil {
		return 0, fmt.Errorf("RealizedVol: failed to compute stddev for %s: %w", s.Symbol, err)
	}

	return sd * math.Sqrt(tradingDaysPerYear), nil
}

func maxDrawdown(bars []DailyBar) float64 {
	peak := math.Inf(-1)
	worst := 0.0

	for _, b := range bars {
		if b.Close > peak {
			peak = b.Close
		}
		if peak > 0 {
			dd := (b.Close - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}

	return worst
}
