package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func barSeries(symbol StockSymbol, closes ...float64) EquitySeries {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]DailyBar, len(closes))
	for i, c := range closes {
		bars[i] = DailyBar{
			Timestamp: start.AddDate(0, 0, i),
			Close:     c,
			Volume:    1000,
		}
	}

	return EquitySeries{Symbol: symbol, Bars: bars}
}

func TestDailyReturns(t *testing.T) {
	s := barSeries("AAPL", 100, 110, 99)

	returns := s.DailyReturns()
	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	t.Run("too short", func(t *testing.T) {
		assert.Nil(t, barSeries("AAPL", 100).DailyReturns())
	})
}

func TestNewEquityStats(t *testing.T) {
	s := barSeries("AAPL", 100, 110, 99, 104)

	st, err := NewEquityStats(s)
	assert.NoError(t, err)

	assert.Equal(t, StockSymbol("AAPL"), st.Symbol)
	assert.Equal(t, 100.0, st.FirstClose)
	assert.Equal(t, 104.0, st.LastClose)
	assert.InDelta(t, 0.04, st.TotalReturn, 1e-9)
	assert.Equal(t, 4, st.TradingDays)
	assert.InDelta(t, 1000, st.AverageVolume, 1e-9)

	// drawdown from the 110 peak to the 99 trough
	assert.InDelta(t, (99.0-110.0)/110.0, st.MaxDrawdown, 1e-9)

	// daily stddev scaled to an annual figure
	assert.Greater(t, st.AnnualizedVol, 0.0)

	t.Run("single bar errors", func(t *testing.T) {
		_, err := NewEquityStats(barSeries("AAPL", 100))
		assert.Error(t, err)
	})
}

func TestCorrelate(t *testing.T) {
	t.Run("identical series correlate perfectly", func(t *testing.T) {
		a := barSeries("AAPL", 100, 102, 101, 105)
		b := barSeries("MSFT", 200, 204, 202, 210)

		pairs, err := Correlate([]EquitySeries{a, b})
		assert.NoError(t, err)
		assert.Len(t, pairs, 1)
		assert.Equal(t, StockSymbol("AAPL"), pairs[0].A)
		assert.Equal(t, StockSymbol("MSFT"), pairs[0].B)
		assert.InDelta(t, 1.0, pairs[0].Correlation, 1e-9)
	})

	t.Run("opposite series correlate negatively", func(t *testing.T) {
		a := barSeries("AAPL", 100, 110, 100, 110)
		b := barSeries("VIXY", 100, 90, 100, 90)

		pairs, err := Correlate([]EquitySeries{a, b})
		assert.NoError(t, err)
		assert.Negative(t, pairs[0].Correlation)
	})

	t.Run("short histories align from the end", func(t *testing.T) {
		a := barSeries("AAPL", 95, 98, 100, 102, 101, 105)
		b := barSeries("MSFT", 200, 204, 202, 210)

		pairs, err := Correlate([]EquitySeries{a, b})
		assert.NoError(t, err)
		assert.Len(t, pairs, 1)
	})

	t.Run("a pair with no overlap is skipped", func(t *testing.T) {
		a := barSeries("AAPL", 100, 102, 101)
		b := barSeries("MSFT", 200)

		pairs, err := Correlate([]EquitySeries{a, b})
		assert.NoError(t, err)
		assert.Empty(t, pairs)
	})
}

func TestRealizedVol(t *testing.T) {
	s := barSeries("AAPL", 100, 101, 99, 102, 100)

	vol, err := RealizedVol(s)
	assert.NoError(t, err)
	assert.Greater(t, vol, 0.0)

	// annualization multiplies the daily stddev by sqrt(252)
	returns := s.DailyReturns()
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	assert.InDelta(t, math.Sqrt(variance)*math.Sqrt(252), vol, 1e-9)

	t.Run("too short", func(t *testing.T) {
		_, err := RealizedVol(barSeries("AAPL", 100, 101))
		assert.Error(t, err)
	})
}
