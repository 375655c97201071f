package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rwalsh-trading/marketscope/src/cmd/condor_screener/run"
	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

func setup(goEnv string) (*services.MarketDataService, string) {
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

	return services.NewMarketDataService(apiKey), apiKey
}

var rootCmd = &cobra.Command{
	Use:   "condor_screener",
	Short: "Screen option chains for iron condors and settle past screens",
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Enumerate and rank iron condors on an underlying",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		days, _ := cmd.Flags().GetInt("days")
		minCredit, _ := cmd.Flags().GetFloat64("min-credit")
		maxRisk, _ := cmd.Flags().GetFloat64("max-risk")
		minProb, _ := cmd.Flags().GetFloat64("min-prob")
		minVolume, _ := cmd.Flags().GetInt("min-volume")
		minOI, _ := cmd.Flags().GetInt("min-oi")
		rank, _ := cmd.Flags().GetString("rank")
		limit, _ := cmd.Flags().GetInt("limit")
		outDir, _ := cmd.Flags().GetString("outDir")

		svc, apiKey := setup(goEnv)

		result, err := run.Find(context.Background(), svc, run.FindArgs{
			Symbol:    symbol,
			Days:      days,
			APIKey:    apiKey,
			MinCredit: minCredit,
			MaxRisk:   maxRisk,
			MinProb:   minProb,
			MinVolume: minVolume,
			MinOI:     minOI,
			Rank:      rank,
			Limit:     limit,
			OutDir:    outDir,
		})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		if len(result.Condors) == 0 {
			log.Warnf("No iron condors for %s across %d expirations pass the filters", symbol, len(result.Expirations))
			return
		}

		fmt.Printf("%s @ %s, %d expirations within %d days, run %s\n", symbol, utils.Dollars(result.Spot), len(result.Expirations), days, result.RunID)
		fmt.Println(renderCondors(result.Condors))

		if result.OutFile != "" {
			fmt.Printf("Results written to %s\n", result.OutFile)
		}
	},
}

var pnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "Settle a previously exported condor screen against expiration closes",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		csvPath, err := cmd.Flags().GetString("csv")
		if err != nil {
			log.Fatalf("error getting csv: %v", err)
		}

		svc, _ := setup(goEnv)

		result, err := run.PnL(context.Background(), svc, run.PnLArgs{CsvPath: csvPath})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		fmt.Println(renderPnL(result.Rows))

		s := result.Summary
		fmt.Printf("Trades: %d marked of %d, winners: %d (%.1f%%), total PnL: %s, average: %s\n",
			s.MarkedTrades, s.TotalTrades, s.ProfitableTrades, s.WinRate, utils.Dollars(s.TotalPnL), utils.Dollars(s.AveragePnL))
		fmt.Printf("Settled rows written to %s\n", result.OutFile)
	},
}

func renderCondors(condors []*models.IronCondor) string {
	header := []string{"Put Buy", "Put Sell", "Call Sell", "Call Buy", "Credit", "Max Loss", "R/R", "PoP", "Profit Zone"}

	var rows [][]string
	for _, ic := range condors {
		pop := "-"
		if ic.PoP != nil {
			pop = utils.Percent(*ic.PoP)
		}

		rows = append(rows, []string{
			utils.Dollars(ic.PutBuyStrike),
			utils.Dollars(ic.PutSellStrike),
			utils.Dollars(ic.CallSellStrike),
			utils.Dollars(ic.CallBuyStrike),
			utils.Dollars(ic.NetCredit),
			utils.Dollars(ic.MaxLoss),
			fmt.Sprintf("%.2f", ic.RiskReward),
			pop,
			fmt.Sprintf("%s - %s", utils.Dollars(ic.ProfitZoneLower), utils.Dollars(ic.ProfitZoneUpper)),
		})
	}

	return utils.RenderTable(header, rows)
}

func renderPnL(rows []*models.CondorPnL) string {
	header := []string{"Underlying", "Expiration", "Strikes", "Credit", "Close", "In Zone", "PnL/Share"}

	var out [][]string
	for _, r := range rows {
		closePrice, inZone, pnl := "-", "-", "-"
		if r.ClosePrice != nil {
			closePrice = utils.Dollars(*r.ClosePrice)
		}
		if r.InProfitZone != nil {
			inZone = fmt.Sprintf("%t", *r.InProfitZone)
		}
		if r.PnLPerShare != nil {
			pnl = utils.Dollars(*r.PnLPerShare)
		}

		out = append(out, []string{
			r.Underlying.String(),
			r.Expiration,
			fmt.Sprintf("%.0f/%.0f/%.0f/%.0f", r.PutBuyStrike, r.PutSellStrike, r.CallSellStrike, r.CallBuyStrike),
			utils.Dollars(r.NetCredit),
			closePrice,
			inZone,
			pnl,
		})
	}

	return utils.RenderTable(header, out)
}

func main() {
	rootCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")

	findCmd.Flags().String("symbol", "", "Underlying ticker to screen.")
	findCmd.Flags().Int("days", 30, "Target days to expiration.")
	findCmd.Flags().Float64("min-credit", 0.30, "Minimum net credit per share.")
	findCmd.Flags().Float64("max-risk", 0, "Maximum loss per share. Zero disables the cut.")
	findCmd.Flags().Float64("min-prob", 0, "Minimum probability of profit, percent. Zero disables the cut.")
	findCmd.Flags().Int("min-volume", 0, "Minimum per-leg volume. Zero uses the default.")
	findCmd.Flags().Int("min-oi", 0, "Minimum per-leg open interest. Zero uses the default.")
	findCmd.Flags().String("rank", string(services.CondorRankByCredit), "Ranking criteria: credit, probability, risk_reward.")
	findCmd.Flags().Int("limit", 15, "Maximum condors to show.")
	findCmd.Flags().String("outDir", "", "The directory to write the output to.")
	findCmd.MarkFlagRequired("symbol")

	pnlCmd.Flags().String("csv", "", "Path to a previously exported condor CSV.")
	pnlCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(pnlCmd)

	rootCmd.Execute()
}
