package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/rwalsh-trading/marketscope/src/models"
)

// MarketDataService wraps the Polygon REST client with the chain, spot, and
// aggregate lookups the screeners need.
type MarketDataService struct {
	Client *polygon.Client
}

func NewMarketDataService(apiKey string) *MarketDataService {
	return &MarketDataService{
		Client: polygon.New(apiKey),
	}
}

// ChainQuery narrows an option chain snapshot fetch. MaxContracts bounds the
// number of contracts pulled off the iterator so a dense chain cannot hang a
// screen.
type ChainQuery struct {
	ContractType  *models.OptionType
	ExpirationEQ  *time.Time
	ExpirationGTE *time.Time
	ExpirationLTE *time.Time
	MaxContracts  int
}

const defaultMaxContracts = 15000

// FetchOptionChainSnapshot pulls the chain snapshot for an underlying and
// normalizes each contract into an OptionSnapshot.
func (s *MarketDataService) FetchOptionChainSnapshot(ctx context.Context, symbol models.StockSymbol, query ChainQuery) ([]models.OptionSnapshot, error) {
	tracer := otel.Tracer("MarketDataService")
	ctx, span := tracer.Start(ctx, "FetchOptionChainSnapshot")
	defer span.End()

	params := &polygonmodels.ListOptionsChainParams{
		UnderlyingAsset: symbol.String(),
	}

	if query.ContractType != nil {
		ct := polygonmodels.ContractType(*query.ContractType)
		params.ContractType = &ct
	}

	if query.ExpirationEQ != nil {
		d := polygonmodels.Date(*query.ExpirationEQ)
		params.ExpirationDateEQ = &d
	}

	if query.ExpirationGTE != nil {
		d := polygonmodels.Date(*query.ExpirationGTE)
		params.ExpirationDateGTE = &d
	}

	if query.ExpirationLTE != nil {
		d := polygonmodels.Date(*query.ExpirationLTE)
		params.ExpirationDateLTE = &d
	}

	limit := 250
	params.Limit = &limit

	maxContracts := query.MaxContracts
	if maxContracts <= 0 {
		maxContracts = defaultMaxContracts
	}

	log.Debugf("fetching option chain snapshot for %s", symbol)

	var snapshots []models.OptionSnapshot
	count := 0

	iter := s.Client.ListOptionsChainSnapshot(ctx, params)
	for iter.Next() {
		snapshots = append(snapshots, convertContractSnapshot(symbol, iter.Item()))

		count++
		if count >= maxContracts {
			log.Warnf("FetchOptionChainSnapshot: hit contract cap of %d for %s", maxContracts, symbol)
			break
		}
	}

	if iter.Err() != nil {
		return nil, fmt.Errorf("FetchOptionChainSnapshot: failed to fetch chain for %s: %w", symbol, iter.Err())
	}

	log.Debugf("fetched %d contracts for %s", len(snapshots), symbol)

	return snapshots, nil
}

func convertContractSnapshot(symbol models.StockSymbol, item polygonmodels.OptionContractSnapshot) models.OptionSnapshot {
	snapshot := models.OptionSnapshot{
		Ticker:            item.Details.Ticker,
		Underlying:        symbol,
		OptionType:        models.OptionType(item.Details.ContractType),
		Strike:            item.Details.StrikePrice,
		Expiration:        time.Time(item.Details.ExpirationDate),
		Bid:               item.LastQuote.Bid,
		Ask:               item.LastQuote.Ask,
		ImpliedVolatility: item.ImpliedVolatility,
		OpenInterest:      int(item.OpenInterest),
		Volume:            int(item.Day.Volume),
		UnderlyingPrice:   item.UnderlyingAsset.Price,
	}

	// The feed reports no greeks as a zero struct; a true zero delta does
	// not occur on quoted contracts.
	if item.Greeks.Delta != 0 {
		snapshot.Delta = item.Greeks.Delta
		snapshot.HasDelta = true
	}

	return snapshot
}

// ResolveSpot finds the underlying price from a fetched chain, falling back
// to the last trade when the snapshot carries no underlying price.
func (s *MarketDataService) ResolveSpot(ctx context.Context, chain []models.OptionSnapshot, symbol models.StockSymbol) (float64, error) {
	for _, o := range chain {
		if o.UnderlyingPrice > 0 {
			return o.UnderlyingPrice, nil
		}
	}

	return s.GetLastTradePrice(ctx, symbol)
}

func (s *MarketDataService) GetLastTradePrice(ctx context.Context, symbol models.StockSymbol) (float64, error) {
	resp, err := s.Client.GetLastTrade(ctx, &polygonmodels.GetLastTradeParams{
		Ticker: symbol.String(),
	})
	if err != nil {
		return 0, fmt.Errorf("GetLastTradePrice: failed to fetch last trade for %s: %w", symbol, err)
	}

	return resp.Results.Price, nil
}

// FetchAvailableExpirations lists the distinct chain expirations between
// today and maxDays out, sorted ascending.
func (s *MarketDataService) FetchAvailableExpirations(ctx context.Context, symbol models.StockSymbol, maxDays int, now time.Time, loc *time.Location) ([]time.Time, error) {
	today := now.In(loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, maxDays)

	chain, err := s.FetchOptionChainSnapshot(ctx, symbol, ChainQuery{
		ExpirationGTE: &start,
		ExpirationLTE: &end,
	})
	if err != nil {
		return nil, fmt.Errorf("FetchAvailableExpirations: %w", err)
	}

	seen := make(map[string]time.Time)
	for _, o := range chain {
		if o.Expiration.IsZero() {
			continue
		}
		seen[o.Expiration.Format("2006-01-02")] = o.Expiration
	}

	expirations := make([]time.Time, 0, len(seen))
	for _, exp := range seen {
		expirations = append(expirations, exp)
	}

	sort.Slice(expirations, func(i, j int) bool {
		return expirations[i].Before(expirations[j])
	})

	log.Infof("found %d expirations for %s within %d days", len(expirations), symbol, maxDays)

	return expirations, nil
}

// GetDailyClose fetches the official close for a symbol on a date.
func (s *MarketDataService) GetDailyClose(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, error) {
	resp, err := s.Client.GetDailyOpenCloseAgg(ctx, &polygonmodels.GetDailyOpenCloseAggParams{
		Ticker: symbol.String(),
		Date:   polygonmodels.Date(date),
	})
	if err != nil {
		return 0, fmt.Errorf("GetDailyClose: failed to fetch close for %s on %s: %w", symbol, date.Format("2006-01-02"), err)
	}

	return resp.Close, nil
}

// FetchDailyBars pulls adjusted daily aggregates for a symbol, oldest first.
func (s *MarketDataService) FetchDailyBars(ctx context.Context, symbol models.StockSymbol, from, to time.Time) ([]models.DailyBar, error) {
	tracer := otel.Tracer("MarketDataService")
	ctx, span := tracer.Start(ctx, "FetchDailyBars")
	defer span.End()

	params := polygonmodels.ListAggsParams{
		Ticker:     symbol.String(),
		Multiplier: 1,
		Timespan:   "day",
		From:       polygonmodels.Millis(from),
		To:         polygonmodels.Millis(to),
	}.WithOrder(polygonmodels.Asc).WithAdjusted(true)

	iter := s.Client.ListAggs(ctx, params)

	var bars []models.DailyBar
	for iter.Next() {
		item := iter.Item()
		bars = append(bars, models.DailyBar{
			Timestamp: time.Time(item.Timestamp),
			Open:      item.Open,
			High:      item.High,
			Low:       item.Low,
			Close:     item.Close,
			Volume:    item.Volume,
			VWAP:      item.VWAP,
		})
	}

	if iter.Err() != nil {
		return nil, fmt.Errorf("FetchDailyBars: failed to fetch aggregates for %s: %w", symbol, iter.Err())
	}

	return bars, nil
}

// GetPreviousClose fetches the prior trading day's bar for a symbol.
func (s *MarketDataService) GetPreviousClose(ctx context.Context, symbol models.StockSymbol) (*models.DailyBar, error) {
	resp, err := s.Client.GetPreviousCloseAgg(ctx, polygonmodels.GetPreviousCloseAggParams{
		Ticker: symbol.String(),
	}.WithAdjusted(true))
	if err != nil {
		return nil, fmt.Errorf("GetPreviousClose: failed to fetch previous close for %s: %w", symbol, err)
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("GetPreviousClose: no results for %s", symbol)
	}

	item := resp.Results[0]
	return &models.DailyBar{
		Timestamp: time.Time(item.Timestamp),
		Open:      item.Open,
		High:      item.High,
		Low:       item.Low,
		Close:     item.Close,
		Volume:    item.Volume,
		VWAP:      item.VWAP,
	}, nil
}

// GetMarketStatus reports whether the market is currently open.
func (s *MarketDataService) GetMarketStatus(ctx context.Context) (string, error) {
	resp, err := s.Client.GetMarketStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("GetMarketStatus: failed to fetch market status: %w", err)
	}

	return resp.Market, nil
}
