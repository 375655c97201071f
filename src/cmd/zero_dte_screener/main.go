package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

type ScreenArgs struct {
	GoEnv        string
	Symbol       string
	Rank         string
	Limit        int
	ProfilesPath string
	OutDir       string

	// Explicit filter overrides. Negative values mean "use the profile".
	MinOTMPct      float64
	MaxOTMPct      float64
	MinBid         float64
	MinOI          int
	MaxSpreadToMid float64
}

type ScreenResult struct {
	RunID      string
	Spot       float64
	Candidates []*models.CoveredCallCandidate
	OutFile    string
}

var rootCmd = &cobra.Command{
	Use:   "zero_dte_screener",
	Short: "Screen same-day-expiration covered calls and mark them after the close",
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen an underlying's chain expiring today",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		rank, _ := cmd.Flags().GetString("rank")
		limit, _ := cmd.Flags().GetInt("limit")
		profiles, _ := cmd.Flags().GetString("profiles")
		outDir, _ := cmd.Flags().GetString("outDir")
		minOTM, _ := cmd.Flags().GetFloat64("min-otm")
		maxOTM, _ := cmd.Flags().GetFloat64("max-otm")
		minBid, _ := cmd.Flags().GetFloat64("min-bid")
		minOI, _ := cmd.Flags().GetInt("min-oi")
		maxSpread, _ := cmd.Flags().GetFloat64("max-spread")

		result, err := Screen(context.Background(), ScreenArgs{
			GoEnv:          goEnv,
			Symbol:         symbol,
			Rank:           rank,
			Limit:          limit,
			ProfilesPath:   profiles,
			OutDir:         outDir,
			MinOTMPct:      minOTM,
			MaxOTMPct:      maxOTM,
			MinBid:         minBid,
			MinOI:          minOI,
			MaxSpreadToMid: maxSpread,
		})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		if len(result.Candidates) == 0 {
			log.Warnf("No 0-DTE candidates for %s today", symbol)
			return
		}

		fmt.Printf("%s @ %s, run %s\n", symbol, utils.Dollars(result.Spot), result.RunID)
		fmt.Println(renderCandidates(result.Candidates))

		if result.OutFile != "" {
			fmt.Printf("Results written to %s\n", result.OutFile)
		}
	},
}

func Screen(ctx context.Context, args ScreenArgs) (ScreenResult, error) {
	svc := newService(args.GoEnv)

	criteria := models.RankCriteria(args.Rank)
	if err := criteria.Validate(); err != nil {
		return ScreenResult{}, fmt.Errorf("Screen: %w", err)
	}

	loc, err := utils.MarketLocation()
	if err != nil {
		return ScreenResult{}, fmt.Errorf("Screen: %w", err)
	}

	now := time.Now().In(loc)
	symbol := models.NewStockSymbol(args.Symbol)

	minutesLeft := utils.MinutesToClose(now, now, loc)
	if minutesLeft <= 0 {
		log.Warn("Market is closed; today's chain has expired")
	} else {
		log.Infof("%.0f minutes to the close", minutesLeft)
	}

	expiration := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	callType := models.Call
	chain, err := svc.FetchOptionChainSnapshot(ctx, symbol, services.ChainQuery{
		ContractType: &callType,
		ExpirationEQ: &expiration,
	})
	if err != nil {
		return ScreenResult{}, fmt.Errorf("Screen: %w", err)
	}

	spot, err := svc.ResolveSpot(ctx, chain, symbol)
	if err != nil {
		return ScreenResult{}, fmt.Errorf("Screen: %w", err)
	}

	profile, err := resolveProfile(args, symbol, spot)
	if err != nil {
		return ScreenResult{}, fmt.Errorf("Screen: %w", err)
	}

	runID := uuid.NewString()

	candidates := services.ScreenCoveredCalls(chain, services.CoveredCallScreenArgs{
		Symbol:     symbol,
		Spot:       spot,
		Expiration: expiration,
		Filters:    profile,
		Now:        now,
		Loc:        loc,
		RunID:      runID,
	})

	ranked := services.RankCoveredCalls(candidates, criteria, args.Limit)

	result := ScreenResult{
		RunID:      runID,
		Spot:       spot,
		Candidates: ranked,
	}

	if args.OutDir != "" && len(ranked) > 0 {
		fname := fmt.Sprintf("zero_dte_%s_%s.csv", symbol, now.Format("20060102_150405"))
		outFile, err := utils.ExportToCsv(ranked, args.OutDir, fname)
		if err != nil {
			return ScreenResult{}, fmt.Errorf("Screen: %w", err)
		}

		result.OutFile = outFile
	}

	return result, nil
}

// resolveProfile starts from the YAML or built-in profile and lays the
// explicit flag overrides on top.
func resolveProfile(args ScreenArgs, symbol models.StockSymbol, spot float64) (models.FilterProfile, error) {
	var profile models.FilterProfile

	if args.ProfilesPath != "" {
		profiles, err := models.LoadFilterProfiles(args.ProfilesPath)
		if err != nil {
			return models.FilterProfile{}, err
		}

		profile = profiles.ResolveFilterProfile(symbol, spot)
	} else {
		profile = models.DefaultFilterProfile(symbol, spot)
	}

	if args.MinOTMPct >= 0 {
		profile.MinOTMPct = args.MinOTMPct
	}
	if args.MaxOTMPct >= 0 {
		profile.MaxOTMPct = args.MaxOTMPct
	}
	if args.MinBid >= 0 {
		profile.MinBid = args.MinBid
	}
	if args.MinOI >= 0 {
		profile.MinOpenInterest = args.MinOI
	}
	if args.MaxSpreadToMid >= 0 {
		profile.MaxSpreadToMid = args.MaxSpreadToMid
	}

	return profile, nil
}

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Mark a 0-DTE screen against the settlement close",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		csvPath, err := cmd.Flags().GetString("csv")
		if err != nil {
			log.Fatalf("error getting csv: %v", err)
		}

		closeOverride, _ := cmd.Flags().GetFloat64("close")

		if err := Mark(context.Background(), goEnv, csvPath, closeOverride); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func Mark(ctx context.Context, goEnv string, csvPath string, closeOverride float64) error {
	rows, err := utils.ImportFromCsv[*models.CoveredCallCandidate](csvPath)
	if err != nil {
		return fmt.Errorf("Mark: %w", err)
	}

	if len(rows) == 0 {
		return fmt.Errorf("Mark: no rows in %s", csvPath)
	}

	closePrice := closeOverride
	if closePrice <= 0 {
		expiration, err := time.Parse("2006-01-02", rows[0].Expiration)
		if err != nil {
			return fmt.Errorf("Mark: invalid expiration %q: %w", rows[0].Expiration, err)
		}

		closePrice, err = newService(goEnv).GetDailyClose(ctx, rows[0].Underlying, expiration)
		if err != nil {
			return fmt.Errorf("Mark: %w", err)
		}
	}

	marked := services.MarkRealizedPnL(rows, closePrice)

	pnls := make([]*float64, 0, len(marked))
	for _, m := range marked {
		pnls = append(pnls, m.PnLPerShare)
	}

	summary := models.Summarize(pnls)

	outFile, err := utils.ExportToCsv(marked, path.Dir(csvPath), utils.SettledCsvName(csvPath, "_marked"))
	if err != nil {
		return fmt.Errorf("Mark: %w", err)
	}

	fmt.Printf("Settlement close: %s\n", utils.Dollars(closePrice))
	fmt.Println(renderPnL(marked))
	fmt.Printf("Trades: %d marked of %d, winners: %d (%.1f%%), total PnL: %s, average: %s\n",
		summary.MarkedTrades, summary.TotalTrades, summary.ProfitableTrades,
		summary.WinRate, utils.Dollars(summary.TotalPnL), utils.Dollars(summary.AveragePnL))
	fmt.Printf("Marked rows written to %s\n", outFile)

	return nil
}

func newService(goEnv string) *services.MarketDataService {
	projectsDir := os.Getenv("PROJECTS_DIR")
	if projectsDir == "" {
		log.Fatalf("missing PROJECTS_DIR environment variable")
	}

	if err := utils.InitEnvironmentVariables(projectsDir, goEnv); err != nil {
		log.Fatalf("error loading environment variables: %v", err)
	}

	apiKey, err := utils.RequireEnv("POLYGON_API_KEY")
	if err != nil {
		log.Fatalf("%v", err)
	}

	return services.NewMarketDataService(apiKey)
}

func renderCandidates(candidates []*models.CoveredCallCandidate) string {
	header := []string{"Strike", "Bid", "Mid", "Delta", "OI", "Yield", "Breakeven", "PoP", "Score"}

	var rows [][]string
	for _, c := range candidates {
		delta := "-"
		if c.Delta != nil {
			delta = fmt.Sprintf("%.3f", *c.Delta)
		}

		pop := "-"
		if c.PoP != nil {
			pop = utils.Percent(*c.PoP)
		}

		rows = append(rows, []string{
			utils.Dollars(c.Strike),
			utils.Dollars(c.Bid),
			utils.Dollars(c.Mid),
			delta,
			fmt.Sprintf("%d", c.OpenInterest),
			utils.Percent(c.PremiumYield),
			utils.Dollars(c.Breakeven),
			pop,
			fmt.Sprintf("%.3f", c.ScoreAggressive),
		})
	}

	return utils.RenderTable(header, rows)
}

func renderPnL(rows []*models.CoveredCallPnL) string {
	header := []string{"Ticker", "Strike", "Premium", "Close", "Assigned", "PnL/Share"}

	var out [][]string
	for _, r := range rows {
		closePrice, assigned, pnl := "-", "-", "-"
		if r.ClosePrice != nil {
			closePrice = utils.Dollars(*r.ClosePrice)
		}
		if r.Assigned != nil {
			assigned = fmt.Sprintf("%t", *r.Assigned)
		}
		if r.PnLPerShare != nil {
			pnl = utils.Dollars(*r.PnLPerShare)
		}

		out = append(out, []string{
			r.Ticker,
			utils.Dollars(r.Strike),
			utils.Dollars(r.Premium),
			closePrice,
			assigned,
			pnl,
		})
	}

	return utils.RenderTable(header, out)
}

func main() {
	rootCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")

	screenCmd.Flags().String("symbol", "", "Underlying ticker to screen.")
	screenCmd.Flags().String("rank", string(models.RankByAggressive), "Ranking criteria.")
	screenCmd.Flags().Int("limit", 15, "Maximum candidates to show.")
	screenCmd.Flags().String("profiles", "", "Optional YAML filter profile file.")
	screenCmd.Flags().String("outDir", "", "The directory to write the output to.")
	screenCmd.Flags().Float64("min-otm", -1, "Minimum OTM fraction, e.g. 0.01. Negative uses the profile.")
	screenCmd.Flags().Float64("max-otm", -1, "Maximum OTM fraction. Negative uses the profile.")
	screenCmd.Flags().Float64("min-bid", -1, "Minimum bid in dollars. Negative uses the profile.")
	screenCmd.Flags().Int("min-oi", -1, "Minimum open interest. Negative uses the profile.")
	screenCmd.Flags().Float64("max-spread", -1, "Maximum spread-to-mid fraction. Negative uses the profile.")
	screenCmd.MarkFlagRequired("symbol")

	markCmd.Flags().String("csv", "", "Path to a previously exported screen CSV.")
	markCmd.Flags().Float64("close", 0, "Explicit settlement close. Zero fetches the official close.")
	markCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(markCmd)

	rootCmd.Execute()
}
