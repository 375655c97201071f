package services

import (
	"context"
	"fmt"
	"time"

	polygonws "github.com/polygon-io/client-go/websocket"
	wsmodels "github.com/polygon-io/client-go/websocket/models"
	log "github.com/sirupsen/logrus"

	"github.com/rwalsh-trading/marketscope/src/models"
)

// StreamHandler receives normalized live events.
type StreamHandler interface {
	OnTrade(symbol models.StockSymbol, price float64, size float64, ts time.Time)
	OnQuote(symbol models.StockSymbol, bid float64, ask float64, ts time.Time)
}

// RunTradeStream subscribes to real-time trades and quotes for the symbols
// and dispatches events to the handler until the context is cancelled.
func RunTradeStream(ctx context.Context, apiKey string, symbols []models.StockSymbol, withQuotes bool, handler StreamHandler) error {
	client, err := polygonws.New(polygonws.Config{
		APIKey: apiKey,
		Feed:   polygonws.RealTime,
		Market: polygonws.Stocks,
		Log:    log.StandardLogger(),
	})
	if err != nil {
		return fmt.Errorf("RunTradeStream: failed to create websocket client: %w", err)
	}
	defer client.Close()

	topics := make([]string, 0, len(symbols))
	for _, s := range symbols {
		topics = append(topics, s.String())
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("RunTradeStream: failed to connect: %w", err)
	}

	if err := client.Subscribe(polygonws.StocksTrades, topics...); err != nil {
		return fmt.Errorf("RunTradeStream: failed to subscribe to trades: %w", err)
	}

	if withQuotes {
		if err := client.Subscribe(polygonws.StocksQuotes, topics...); err != nil {
			return fmt.Errorf("RunTradeStream: failed to subscribe to quotes: %w", err)
		}
	}

	log.Infof("streaming %d symbols (quotes=%v)", len(symbols), withQuotes)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-client.Error():
			return fmt.Errorf("RunTradeStream: websocket error: %w", err)
		case out, more := <-client.Output():
			if !more {
				return nil
			}

			dispatchStreamEvent(out, handler)
		}
	}
}

func dispatchStreamEvent(out any, handler StreamHandler) {
	switch msg := out.(type) {
	case wsmodels.EquityTrade:
		handler.OnTrade(models.StockSymbol(msg.Symbol), msg.Price, float64(msg.Size), time.UnixMilli(msg.Timestamp))
	case wsmodels.EquityQuote:
		handler.OnQuote(models.StockSymbol(msg.Symbol), msg.BidPrice, msg.AskPrice, time.UnixMilli(msg.Timestamp))
	}
}
