package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rwalsh-trading/marketscope/src/services"
	"github.com/rwalsh-trading/marketscope/src/services/agent"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

type RunArgs struct {
	GoEnv     string
	ServerURL string
	MaxRounds int
	Question  string
}

var runCmd = &cobra.Command{
	Use:   "market_chat",
	Short: "Ask questions about stocks and options in plain English",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, _ := cmd.Flags().GetString("go-env")
		serverURL, _ := cmd.Flags().GetString("server-url")
		maxRounds, _ := cmd.Flags().GetInt("max-rounds")
		question, _ := cmd.Flags().GetString("question")

		if err := Run(RunArgs{
			GoEnv:     goEnv,
			ServerURL: serverURL,
			MaxRounds: maxRounds,
			Question:  question,
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

	client, err := agent.NewOpenAIClient()
	if err != nil {
		log.Fatalf("%v", err)
	}

	toolbox, err := buildToolbox(args.ServerURL)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var opts []agent.Option
	if args.MaxRounds > 0 {
		opts = append(opts, agent.WithMaxToolRounds(args.MaxRounds))
	}

	chat := agent.NewAgent(client, toolbox, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// one-shot mode
	if args.Question != "" {
		answer, err := chat.Ask(ctx, args.Question)
		if err != nil {
			return fmt.Errorf("Run: %w", err)
		}

		fmt.Println(answer)
		return nil
	}

	return repl(ctx, chat, client)
}

func buildToolbox(serverURL string) (*agent.Toolbox, error) {
	if serverURL != "" {
		log.Infof("market_chat: tools served by %s", serverURL)
		return agent.NewHTTPToolbox(serverURL, nil), nil
	}

	apiKey, err := utils.RequireEnv("POLYGON_API_KEY")
	if err != nil {
		return nil, err
	}

	return agent.NewServiceToolbox(services.NewMarketDataService(apiKey)), nil
}

func repl(ctx context.Context, chat *agent.Agent, client agent.Client) error {
	fmt.Printf("Connected to %s (%s). Ask about stocks and options; 'reset' clears history, 'exit' quits.\n", client.Name(), client.Model())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			chat.Reset()
			fmt.Println("History cleared.")
			continue
		}

		answer, err := chat.Ask(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			log.Errorf("market_chat: %v", err)
			continue
		}

		fmt.Println(answer)
	}

	return scanner.Err()
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().String("server-url", "", "Base URL of a running market_data_server. Empty runs tools in-process.")
	runCmd.PersistentFlags().Int("max-rounds", 0, "Maximum tool-call rounds per question. Zero uses the default.")
	runCmd.PersistentFlags().String("question", "", "Ask one question and exit instead of starting the REPL.")

	runCmd.Execute()
}
