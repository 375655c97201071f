package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rwalsh-trading/marketscope/src/cmd/covered_call_screener/run"
	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

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

var rootCmd = &cobra.Command{
	Use:   "covered_call_screener",
	Short: "Screen call chains for sellable covered calls and settle past screens",
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Screen an underlying's call chain for covered call candidates",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		days, _ := cmd.Flags().GetInt("days")
		rank, _ := cmd.Flags().GetString("rank")
		limit, _ := cmd.Flags().GetInt("limit")
		profiles, _ := cmd.Flags().GetString("profiles")
		outDir, _ := cmd.Flags().GetString("outDir")

		svc := newService(goEnv)

		result, err := run.Find(context.Background(), svc, run.FindArgs{
			Symbol:       symbol,
			Days:         days,
			Rank:         rank,
			Limit:        limit,
			ProfilesPath: profiles,
			OutDir:       outDir,
		})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		if len(result.Candidates) == 0 {
			log.Warnf("No covered call candidates for %s across %d expirations", symbol, len(result.Expirations))
			return
		}

		fmt.Printf("%s @ %s, %d expirations within %d days, run %s\n", symbol, utils.Dollars(result.Spot), len(result.Expirations), days, result.RunID)
		fmt.Println(renderCandidates(result.Candidates))

		if result.OutFile != "" {
			fmt.Printf("Results written to %s\n", result.OutFile)
		}
	},
}

var pnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "Settle a previously exported screen against expiration closes",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		csvPath, err := cmd.Flags().GetString("csv")
		if err != nil {
			log.Fatalf("error getting csv: %v", err)
		}

		svc := newService(goEnv)

		result, err := run.PnL(context.Background(), svc, run.PnLArgs{CsvPath: csvPath})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		fmt.Println(renderPnL(result.Rows))
		printSummary(result.Summary)
		fmt.Printf("Settled rows written to %s\n", result.OutFile)
	},
}

func renderCandidates(candidates []*models.CoveredCallCandidate) string {
	header := []string{"Strike", "Bid", "Mid", "Delta", "OI", "Yield", "Breakeven", "Max Profit", "PoP", "Score"}

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
			strconv.Itoa(c.OpenInterest),
			utils.Percent(c.PremiumYield),
			utils.Dollars(c.Breakeven),
			utils.Dollars(c.MaxProfit),
			pop,
			fmt.Sprintf("%.3f", c.ScoreBalanced),
		})
	}

	return utils.RenderTable(header, rows)
}

func renderPnL(rows []*models.CoveredCallPnL) string {
	header := []string{"Ticker", "Expiration", "Strike", "Premium", "Close", "Assigned", "PnL/Share"}

	var out [][]string
	for _, r := range rows {
		closePrice, assigned, pnl := "-", "-", "-"
		if r.ClosePrice != nil {
			closePrice = utils.Dollars(*r.ClosePrice)
		}
		if r.Assigned != nil {
			assigned = strconv.FormatBool(*r.Assigned)
		}
		if r.PnLPerShare != nil {
			pnl = utils.Dollars(*r.PnLPerShare)
		}

		out = append(out, []string{
			r.Ticker,
			r.Expiration,
			utils.Dollars(r.Strike),
			utils.Dollars(r.Premium),
			closePrice,
			assigned,
			pnl,
		})
	}

	return utils.RenderTable(header, out)
}

func printSummary(s models.PnLSummary) {
	fmt.Printf("Trades: %d marked of %d, winners: %d (%.1f%%), total PnL: %s, average: %s\n",
		s.MarkedTrades, s.TotalTrades, s.ProfitableTrades, s.WinRate, utils.Dollars(s.TotalPnL), utils.Dollars(s.AveragePnL))
}

func main() {
	rootCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")

	findCmd.Flags().String("symbol", "", "Underlying ticker to screen.")
	findCmd.Flags().Int("days", 30, "Target days to expiration.")
	findCmd.Flags().String("rank", string(models.RankByBalanced), "Ranking criteria: premium, probability, balanced, max_profit, expected_value, profitable, aggressive.")
	findCmd.Flags().Int("limit", 15, "Maximum candidates to show.")
	findCmd.Flags().String("profiles", "", "Optional YAML filter profile file.")
	findCmd.Flags().String("outDir", "", "The directory to write the output to.")
	findCmd.MarkFlagRequired("symbol")

	pnlCmd.Flags().String("csv", "", "Path to a previously exported screen CSV.")
	pnlCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(pnlCmd)

	rootCmd.Execute()
}
