package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
	"github.com/rwalsh-trading/marketscope/src/services/agent"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

type RunArgs struct {
	GoEnv     string
	Symbols   []string
	Lookback  int
	OutDir    string
	Narrative bool
}

type RunResult struct {
	Report    *services.EquityReport
	Narrative string
	OutFile   string
}

var runCmd = &cobra.Command{
	Use:   "equity_report",
	Short: "Build a comparative daily-return report across equities",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		symbols, err := cmd.Flags().GetStringSlice("symbols")
		if err != nil {
			log.Fatalf("error getting symbols: %v", err)
		}

		lookback, _ := cmd.Flags().GetInt("lookback")
		outDir, _ := cmd.Flags().GetString("outDir")
		narrative, _ := cmd.Flags().GetBool("narrative")

		result, err := Run(RunArgs{
			GoEnv:     goEnv,
			Symbols:   symbols,
			Lookback:  lookback,
			OutDir:    outDir,
			Narrative: narrative,
		})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		report := result.Report
		fmt.Printf("Equity report %s to %s\n", report.From.Format("2006-01-02"), report.To.Format("2006-01-02"))
		fmt.Println(renderStats(report.Stats))

		if len(report.Correlations) > 0 {
			fmt.Println(renderCorrelations(report.Correlations))
		}

		if result.Narrative != "" {
			fmt.Println(result.Narrative)
		}

		if result.OutFile != "" {
			fmt.Printf("Results written to %s\n", result.OutFile)
		}
	},
}

func Run(args RunArgs) (RunResult, error) {
	projectsDir := os.Getenv("PROJECTS_DIR")
	if projectsDir == "" {
		log.Fatalf("missing PROJECTS_DIR environment variable")
	}

	if err := utils.InitEnvironmentVariables(projectsDir, args.GoEnv); err != nil {
		log.Fatalf("error loading environment variables: %v", err)
	}

	apiKey, err := utils.RequireEnv("POLYGON_API_KEY")
	if err != nil {
		log.Fatalf("%v", err)
	}

	if len(args.Symbols) < 2 {
		return RunResult{}, fmt.Errorf("Run: need at least 2 symbols, got %d", len(args.Symbols))
	}

	symbols := make([]models.StockSymbol, 0, len(args.Symbols))
	for _, s := range args.Symbols {
		symbols = append(symbols, models.NewStockSymbol(s))
	}

	ctx := context.Background()
	svc := services.NewMarketDataService(apiKey)

	report, err := svc.BuildEquityReport(ctx, symbols, args.Lookback, time.Now())
	if err != nil {
		return RunResult{}, fmt.Errorf("Run: %w", err)
	}

	result := RunResult{Report: report}

	if args.Narrative {
		narrative, err := narrate(ctx, report)
		if err != nil {
			log.Warnf("Run: narrative skipped: %v", err)
		} else {
			result.Narrative = narrative
		}
	}

	if args.OutDir != "" {
		fname := fmt.Sprintf("equity_report_%s.csv", time.Now().Format("20060102_150405"))
		outFile, err := utils.ExportToCsv(report.Stats, args.OutDir, fname)
		if err != nil {
			return RunResult{}, fmt.Errorf("Run: %w", err)
		}

		result.OutFile = outFile
	}

	return result, nil
}

const narrativePrompt = `You are an equity analyst. Given the JSON statistics below, write a short comparative narrative: relative performance, volatility, drawdowns and how correlated the names are. Three paragraphs at most, no bullet lists.`

func narrate(ctx context.Context, report *services.EquityReport) (string, error) {
	client, err := agent.NewOpenAIClient()
	if err != nil {
		return "", fmt.Errorf("narrate: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"from":         report.From.Format("2006-01-02"),
		"to":           report.To.Format("2006-01-02"),
		"stats":        report.Stats,
		"correlations": report.Correlations,
	})
	if err != nil {
		return "", fmt.Errorf("narrate: %w", err)
	}

	resp, err := client.Complete(ctx, &agent.Request{
		SystemPrompt: narrativePrompt,
		Messages: []agent.Message{
			{Role: agent.RoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrate: %w", err)
	}

	return resp.Content, nil
}

func renderStats(stats []models.EquityStats) string {
	header := []string{"Symbol", "First", "Last", "Return", "Ann. Vol", "Max DD", "Avg Volume", "Days"}

	var rows [][]string
	for _, s := range stats {
		rows = append(rows, []string{
			s.Symbol.String(),
			utils.Dollars(s.FirstClose),
			utils.Dollars(s.LastClose),
			utils.Percent(s.TotalReturn),
			utils.Percent(s.AnnualizedVol),
			utils.Percent(s.MaxDrawdown),
			fmt.Sprintf("%.0f", s.AverageVolume),
			fmt.Sprintf("%d", s.TradingDays),
		})
	}

	return utils.RenderTable(header, rows)
}

func renderCorrelations(correlations []models.PairCorrelation) string {
	header := []string{"Pair", "Correlation"}

	var rows [][]string
	for _, c := range correlations {
		rows = append(rows, []string{
			fmt.Sprintf("%s / %s", c.A, c.B),
			fmt.Sprintf("%.3f", c.Correlation),
		})
	}

	return utils.RenderTable(header, rows)
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().StringSlice("symbols", []string{}, "Equity tickers to compare, e.g. AAPL,MSFT,GOOGL.")
	runCmd.PersistentFlags().Int("lookback", 90, "Calendar days of history.")
	runCmd.PersistentFlags().String("outDir", "", "The directory to write the output to.")
	runCmd.PersistentFlags().Bool("narrative", false, "Append an LLM-written comparative narrative.")

	runCmd.MarkPersistentFlagRequired("symbols")

	runCmd.Execute()
}
