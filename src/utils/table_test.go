package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDollars(t *testing.T) {
	assert.Equal(t, "$2.10", Dollars(2.1))
	assert.Equal(t, "$1,234.50", Dollars(1234.5))
	assert.Equal(t, "$-0.45", Dollars(-0.45))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "65.0%", Percent(0.65))
	assert.Equal(t, "2.5%", Percent(0.025))
	assert.Equal(t, "0.0%", Percent(0))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Ticker", "Price"}, [][]string{
		{"AAPL", "$230.00"},
		{"MSFT", "$450.00"},
	})

	assert.Contains(t, out, "TICKER")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "$450.00")
}
