// Package toolserver exposes the market data service over HTTP so agent
// tool calls and other local processes can share one Polygon connection.
package toolserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
)

// MarketData is the slice of MarketDataService the handlers need.
type MarketData interface {
	GetLastTradePrice(ctx context.Context, symbol models.StockSymbol) (float64, error)
	GetPreviousClose(ctx context.Context, symbol models.StockSymbol) (*models.DailyBar, error)
	FetchDailyBars(ctx context.Context, symbol models.StockSymbol, from, to time.Time) ([]models.DailyBar, error)
	FetchOptionChainSnapshot(ctx context.Context, symbol models.StockSymbol, query services.ChainQuery) ([]models.OptionSnapshot, error)
	ResolveSpot(ctx context.Context, chain []models.OptionSnapshot, symbol models.StockSymbol) (float64, error)
	GetMarketStatus(ctx context.Context) (string, error)
}

type Server struct {
	svc  MarketData
	addr string
}

func NewServer(svc MarketData, addr string) *Server {
	return &Server{
		svc:  svc,
		addr: addr,
	}
}

// Router builds the route table. Split out from ListenAndServe so tests can
// drive the handlers through httptest.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/trades/last", s.handleLastTrade).Methods(http.MethodGet)
	router.HandleFunc("/aggs/previous-close", s.handlePreviousClose).Methods(http.MethodGet)
	router.HandleFunc("/aggs/daily", s.handleDailyAggs).Methods(http.MethodGet)
	router.HandleFunc("/options/chain", s.handleChainSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/market/status", s.handleMarketStatus).Methods(http.MethodGet)

	return router
}

// ListenAndServe runs the server until ctx is cancelled, then drains with a
// short shutdown grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           otelhttp.NewHandler(s.Router(), "toolserver"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("toolserver: listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ListenAndServe: shutdown: %w", err)
		}

		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ListenAndServe: %w", err)
		}

		return nil
	}
}
