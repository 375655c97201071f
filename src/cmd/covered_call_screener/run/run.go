package run

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

// MarketData is the slice of the market data service the screener needs.
// Satisfied by *services.MarketDataService.
type MarketData interface {
	FetchAvailableExpirations(ctx context.Context, symbol models.StockSymbol, maxDays int, now time.Time, loc *time.Location) ([]time.Time, error)
	FetchOptionChainSnapshot(ctx context.Context, symbol models.StockSymbol, query services.ChainQuery) ([]models.OptionSnapshot, error)
	ResolveSpot(ctx context.Context, chain []models.OptionSnapshot, symbol models.StockSymbol) (float64, error)
	GetDailyClose(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, error)
}

type FindArgs struct {
	Symbol       string
	Days         int
	Rank         string
	Limit        int
	ProfilesPath string
	OutDir       string
}

type FindResult struct {
	RunID       string
	Expirations []time.Time
	Spot        float64
	Candidates  []*models.CoveredCallCandidate
	OutFile     string
}

// Find screens one underlying's call chain at every expiration within the
// horizon, merges the candidates, and writes the ranked set to CSV.
func Find(ctx context.Context, svc MarketData, args FindArgs) (FindResult, error) {
	criteria := models.RankCriteria(args.Rank)
	if err := criteria.Validate(); err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}

	loc, err := utils.MarketLocation()
	if err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}

	now := time.Now().In(loc)
	symbol := models.NewStockSymbol(args.Symbol)

	expirations, err := svc.FetchAvailableExpirations(ctx, symbol, args.Days, now, loc)
	if err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}
	if len(expirations) == 0 {
		return FindResult{}, fmt.Errorf("Find: no listed expirations for %s within %d days", symbol, args.Days)
	}

	callType := models.Call
	fetchChain := func(exp time.Time) ([]models.OptionSnapshot, error) {
		return svc.FetchOptionChainSnapshot(ctx, symbol, services.ChainQuery{
			ContractType: &callType,
			ExpirationEQ: &exp,
		})
	}

	// Spot and filters come from the nearest expiration's chain and apply
	// to every expiration in the window.
	firstChain, err := fetchChain(expirations[0])
	if err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}

	spot, err := svc.ResolveSpot(ctx, firstChain, symbol)
	if err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}

	profile, err := resolveProfile(args.ProfilesPath, symbol, spot)
	if err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}

	runID := uuid.NewString()

	var all []*models.CoveredCallCandidate
	for i, expiration := range expirations {
		chain := firstChain
		if i > 0 {
			chain, err = fetchChain(expiration)
			if err != nil {
				log.Warnf("Find: skipping expiration %s: %v", expiration.Format("2006-01-02"), err)
				continue
			}
		}

		candidates := services.ScreenCoveredCalls(chain, services.CoveredCallScreenArgs{
			Symbol:     symbol,
			Spot:       spot,
			Expiration: expiration,
			Filters:    profile,
			Now:        now,
			Loc:        loc,
			RunID:      runID,
		})

		all = append(all, candidates...)
	}

	ranked := services.RankCoveredCalls(all, criteria, args.Limit)

	result := FindResult{
		RunID:       runID,
		Expirations: expirations,
		Spot:        spot,
		Candidates:  ranked,
	}

	if args.OutDir != "" && len(ranked) > 0 {
		fname := fmt.Sprintf("covered_calls_%s_%s.csv", symbol, now.Format("20060102_150405"))
		outFile, err := utils.ExportToCsv(ranked, args.OutDir, fname)
		if err != nil {
			return FindResult{}, fmt.Errorf("Find: %w", err)
		}

		result.OutFile = outFile
	}

	return result, nil
}

func resolveProfile(path string, symbol models.StockSymbol, spot float64) (models.FilterProfile, error) {
	if path == "" {
		return models.DefaultFilterProfile(symbol, spot), nil
	}

	profiles, err := models.LoadFilterProfiles(path)
	if err != nil {
		return models.FilterProfile{}, err
	}

	return profiles.ResolveFilterProfile(symbol, spot), nil
}

type PnLArgs struct {
	CsvPath string
}

type PnLResult struct {
	Rows    []*models.CoveredCallPnL
	Summary models.PnLSummary
	OutFile string
}

// PnL marks a previously exported screen against expiration-day closes and
// writes the settled rows beside the input.
func PnL(ctx context.Context, svc MarketData, args PnLArgs) (PnLResult, error) {
	rows, err := utils.ImportFromCsv[*models.CoveredCallCandidate](args.CsvPath)
	if err != nil {
		return PnLResult{}, fmt.Errorf("PnL: %w", err)
	}

	marked, err := services.MarkCoveredCallPnL(ctx, rows, svc.GetDailyClose)
	if err != nil {
		return PnLResult{}, fmt.Errorf("PnL: %w", err)
	}

	pnls := make([]*float64, 0, len(marked))
	for _, m := range marked {
		pnls = append(pnls, m.PnLPerShare)
	}

	outFile, err := utils.ExportToCsv(marked, path.Dir(args.CsvPath), utils.SettledCsvName(args.CsvPath, "_pnl"))
	if err != nil {
		return PnLResult{}, fmt.Errorf("PnL: %w", err)
	}

	return PnLResult{
		Rows:    marked,
		Summary: models.Summarize(pnls),
		OutFile: outFile,
	}, nil
}
