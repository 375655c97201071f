package run

import (
	"context"
	"fmt"
	"path"
	"sort"
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
	FetchOptionChainSnapshot(ctx context.Context, symbol models.StockSymbol, query services.ChainQuery) ([]models.OptionSnapshot, error)
	ResolveSpot(ctx context.Context, chain []models.OptionSnapshot, symbol models.StockSymbol) (float64, error)
	FetchRealizedVol(ctx context.Context, symbol models.StockSymbol, lookbackDays int, now time.Time) (float64, error)
	GetDailyClose(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, error)
}

// hasUpcomingEarnings is swapped in tests to keep the screen off the network.
var hasUpcomingEarnings = services.HasUpcomingEarnings

type FindArgs struct {
	Symbol string
	Days   int
	APIKey string

	MinCredit float64
	MaxRisk   float64
	MinProb   float64
	MinVolume int
	MinOI     int

	Rank   string
	Limit  int
	OutDir string
}

type FindResult struct {
	RunID       string
	Expirations []time.Time
	Spot        float64
	HasEarnings bool
	Condors     []*models.IronCondor
	OutFile     string
}

const realizedVolLookbackDays = 30

// Find enumerates, filters and ranks iron condors on one underlying across
// every expiration within the horizon.
func Find(ctx context.Context, svc MarketData, args FindArgs) (FindResult, error) {
	criteria := services.CondorRankCriteria(args.Rank)
	if err := criteria.Validate(); err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}

	loc, err := utils.MarketLocation()
	if err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}

	now := time.Now().In(loc)
	symbol := models.NewStockSymbol(args.Symbol)

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, args.Days)

	chain, err := svc.FetchOptionChainSnapshot(ctx, symbol, services.ChainQuery{
		ExpirationGTE: &start,
		ExpirationLTE: &end,
	})
	if err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}
	if len(chain) == 0 {
		return FindResult{}, fmt.Errorf("Find: no listed contracts for %s within %d days", symbol, args.Days)
	}

	spot, err := svc.ResolveSpot(ctx, chain, symbol)
	if err != nil {
		return FindResult{}, fmt.Errorf("Find: %w", err)
	}

	fallbackVol, err := svc.FetchRealizedVol(ctx, symbol, realizedVolLookbackDays, now)
	if err != nil {
		log.Warnf("Find: no realized vol for %s: %v", symbol, err)
		fallbackVol = 0
	}

	hasEarnings := hasUpcomingEarnings(args.APIKey, symbol, now, end)
	if hasEarnings {
		log.Warnf("%s has earnings before %s; premium reflects event risk", symbol, end.Format("2006-01-02"))
	}

	runID := uuid.NewString()
	expirations := chainExpirations(chain)

	var all []*models.IronCondor
	for _, expiration := range expirations {
		condors := services.BuildIronCondors(chainForExpiration(chain, expiration), services.CondorScreenArgs{
			Symbol:          symbol,
			Spot:            spot,
			Expiration:      expiration,
			Now:             now,
			Loc:             loc,
			RunID:           runID,
			MinVolume:       args.MinVolume,
			MinOpenInterest: args.MinOI,
			FallbackVol:     fallbackVol,
		})

		all = append(all, condors...)
	}

	for _, ic := range all {
		ic.HasEarnings = hasEarnings
	}

	filtered := services.FilterIronCondors(all, services.CondorFilters{
		MinNetCredit:   args.MinCredit,
		MaxRisk:        args.MaxRisk,
		MinProbability: args.MinProb,
	})

	ranked := services.RankIronCondors(filtered, criteria, args.Limit)

	result := FindResult{
		RunID:       runID,
		Expirations: expirations,
		Spot:        spot,
		HasEarnings: hasEarnings,
		Condors:     ranked,
	}

	if args.OutDir != "" && len(ranked) > 0 {
		fname := fmt.Sprintf("iron_condors_%s_%s.csv", symbol, now.Format("20060102_150405"))
		outFile, err := utils.ExportToCsv(ranked, args.OutDir, fname)
		if err != nil {
			return FindResult{}, fmt.Errorf("Find: %w", err)
		}

		result.OutFile = outFile
	}

	return result, nil
}

func chainExpirations(chain []models.OptionSnapshot) []time.Time {
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

	return expirations
}

func chainForExpiration(chain []models.OptionSnapshot, expiration time.Time) []models.OptionSnapshot {
	day := expiration.Format("2006-01-02")

	rows := make([]models.OptionSnapshot, 0, len(chain))
	for _, o := range chain {
		if o.Expiration.Format("2006-01-02") == day {
			rows = append(rows, o)
		}
	}

	return rows
}

type PnLArgs struct {
	CsvPath string
}

type PnLResult struct {
	Rows    []*models.CondorPnL
	Summary models.PnLSummary
	OutFile string
}

// PnL settles a previously exported condor screen against expiration closes
// and writes the settled rows beside the input.
func PnL(ctx context.Context, svc MarketData, args PnLArgs) (PnLResult, error) {
	rows, err := utils.ImportFromCsv[*models.IronCondor](args.CsvPath)
	if err != nil {
		return PnLResult{}, fmt.Errorf("PnL: %w", err)
	}

	marked, err := services.MarkCondorPnL(ctx, rows, svc.GetDailyClose)
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
