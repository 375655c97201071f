package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

type RunArgs struct {
	GoEnv      string
	Symbols    []string
	WithQuotes bool
}

type logHandler struct{}

func (h *logHandler) OnTrade(symbol models.StockSymbol, price float64, size float64, ts time.Time) {
	log.WithFields(log.Fields{
		"symbol": symbol,
		"price":  price,
		"size":   size,
		"ts":     ts.Format("15:04:05.000"),
	}).Info("trade")
}

func (h *logHandler) OnQuote(symbol models.StockSymbol, bid float64, ask float64, ts time.Time) {
	log.WithFields(log.Fields{
		"symbol": symbol,
		"bid":    bid,
		"ask":    ask,
		"ts":     ts.Format("15:04:05.000"),
	}).Info("quote")
}

var runCmd = &cobra.Command{
	Use:   "live_quotes",
	Short: "Stream real-time trades and quotes to the terminal",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		symbols, err := cmd.Flags().GetStringSlice("symbols")
		if err != nil {
			log.Fatalf("error getting symbols: %v", err)
		}

		withQuotes, _ := cmd.Flags().GetBool("quotes")

		if err := Run(RunArgs{
			GoEnv:      goEnv,
			Symbols:    symbols,
			WithQuotes: withQuotes,
		}); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func Run(args RunArgs) error {
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

	symbols := make([]models.StockSymbol, 0, len(args.Symbols))
	for _, s := range args.Symbols {
		symbols = append(symbols, models.NewStockSymbol(s))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("live_quotes: streaming %d symbols, ctrl-c to stop", len(symbols))

	if err := services.RunTradeStream(ctx, apiKey, symbols, args.WithQuotes, &logHandler{}); err != nil {
		return err
	}

	log.Info("live_quotes: stream closed")
	return nil
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().StringSlice("symbols", []string{}, "Tickers to stream, e.g. AAPL,TSLA.")
	runCmd.PersistentFlags().Bool("quotes", false, "Also stream NBBO quotes.")

	runCmd.MarkPersistentFlagRequired("symbols")

	runCmd.Execute()
}
