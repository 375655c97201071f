package services

import (
	"testing"
	"time"

	wsmodels "github.com/polygon-io/client-go/websocket/models"
	"github.com/stretchr/testify/assert"

	"github.com/rwalsh-trading/marketscope/src/models"
)

type recordingHandler struct {
	tradeSymbol models.StockSymbol
	tradePrice  float64
	tradeSize   float64
	tradeTime   time.Time

	quoteSymbol models.StockSymbol
	quoteBid    float64
	quoteAsk    float64
}

func (h *recordingHandler) OnTrade(symbol models.StockSymbol, price float64, size float64, ts time.Time) {
	h.tradeSymbol = symbol
	h.tradePrice = price
	h.tradeSize = size
	h.tradeTime = ts
}

func (h *recordingHandler) OnQuote(symbol models.StockSymbol, bid float64, ask float64, ts time.Time) {
	h.quoteSymbol = symbol
	h.quoteBid = bid
	h.quoteAsk = ask
}

func TestDispatchStreamEvent(t *testing.T) {
	t.Run("trade carries price and size", func(t *testing.T) {
		handler := &recordingHandler{}

		dispatchStreamEvent(wsmodels.EquityTrade{
			Symbol:    "AAPL",
			Price:     230.15,
			Size:      250,
			Timestamp: 1718035200000,
		}, handler)

		assert.Equal(t, models.StockSymbol("AAPL"), handler.tradeSymbol)
		assert.Equal(t, 230.15, handler.tradePrice)
		assert.Equal(t, 250.0, handler.tradeSize)
		assert.Equal(t, time.UnixMilli(1718035200000), handler.tradeTime)
	})

	t.Run("quote carries bid and ask", func(t *testing.T) {
		handler := &recordingHandler{}

		dispatchStreamEvent(wsmodels.EquityQuote{
			Symbol:   "MSFT",
			BidPrice: 449.95,
			AskPrice: 450.05,
		}, handler)

		assert.Equal(t, models.StockSymbol("MSFT"), handler.quoteSymbol)
		assert.Equal(t, 449.95, handler.quoteBid)
		assert.Equal(t, 450.05, handler.quoteAsk)
	})

	t.Run("unrelated events are ignored", func(t *testing.T) {
		handler := &recordingHandler{}

		dispatchStreamEvent(wsmodels.EquityAgg{Symbol: "NVDA"}, handler)

		assert.Empty(t, handler.tradeSymbol)
		assert.Empty(t, handler.quoteSymbol)
	})
}
