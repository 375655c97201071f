package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
)

const (
	ToolGetLastTrade     = "get_last_trade"
	ToolGetPreviousClose = "get_previous_close"
	ToolGetDailyAggs     = "get_daily_aggs"
	ToolGetOptionChain   = "get_option_chain"
	ToolGetMarketStatus  = "get_market_status"
)

const (
	defaultAggsDays          = 30
	defaultChainMaxContracts = 250
)

// ToolExecutor runs a single tool call and returns the result payload the
// model will read, always JSON.
type ToolExecutor func(ctx context.Context, args json.RawMessage) (string, error)

type Tool struct {
	Definition ToolDefinition
	Run        ToolExecutor
}

// Toolbox is the set of market data tools offered to the model on each
// completion request.
type Toolbox struct {
	order []string
	tools map[string]Tool
}

func newToolbox() *Toolbox {
	return &Toolbox{
		tools: make(map[string]Tool),
	}
}

func (b *Toolbox) add(t Tool) {
	if _, found := b.tools[t.Definition.Name]; !found {
		b.order = append(b.order, t.Definition.Name)
	}

	b.tools[t.Definition.Name] = t
}

func (b *Toolbox) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(b.order))
	for _, name := range b.order {
		defs = append(defs, b.tools[name].Definition)
	}

	return defs
}

func (b *Toolbox) Run(ctx context.Context, call ToolCall) (string, error) {
	tool, found := b.tools[call.Name]
	if !found {
		return "", fmt.Errorf("Toolbox.Run: unknown tool %q", call.Name)
	}

	return tool.Run(ctx, call.Arguments)
}

func toolDefinitions() []ToolDefinition {
	symbolProp := map[string]any{
		"type":        "string",
		"description": "Stock ticker symbol, e.g. AAPL",
	}

	return []ToolDefinition{
		{
			Name:        ToolGetLastTrade,
			Description: "Fetch the most recent trade price for a stock symbol.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"symbol": symbolProp,
				},
				"required": []string{"symbol"},
			},
		},
		{
			Name:        ToolGetPreviousClose,
			Description: "Fetch the previous trading day's OHLCV bar for a stock symbol.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"symbol": symbolProp,
				},
				"required": []string{"symbol"},
			},
		},
		{
			Name:        ToolGetDailyAggs,
			Description: "Fetch adjusted daily OHLCV bars for a stock symbol over a trailing window.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"symbol": symbolProp,
					"days": map[string]any{
						"type":        "integer",
						"description": "Trailing calendar days of history to fetch, default 30",
					},
				},
				"required": []string{"symbol"},
			},
		},
		{
			Name:        ToolGetOptionChain,
			Description: "Fetch an option chain snapshot for an underlying: per-contract quotes, greeks, open interest and volume.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"symbol": symbolProp,
					"contract_type": map[string]any{
						"type":        "string",
						"enum":        []string{"call", "put"},
						"description": "Restrict the chain to calls or puts, default both",
					},
					"expiration": map[string]any{
						"type":        "string",
						"description": "Restrict the chain to one expiration, YYYY-MM-DD",
					},
					"max_contracts": map[string]any{
						"type":        "integer",
						"description": "Cap on contracts returned, default 250",
					},
				},
				"required": []string{"symbol"},
			},
		},
		{
			Name:        ToolGetMarketStatus,
			Description: "Fetch the current US equity market status (open, closed, extended-hours).",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

// NewServiceToolbox wires the tool definitions to a MarketDataService so
// tool calls execute in-process against Polygon.
func NewServiceToolbox(svc *services.MarketDataService) *Toolbox {
	box := newToolbox()

	runners := map[string]ToolExecutor{
		ToolGetLastTrade:     serviceLastTrade(svc),
		ToolGetPreviousClose: servicePreviousClose(svc),
		ToolGetDailyAggs:     serviceDailyAggs(svc),
		ToolGetOptionChain:   serviceOptionChain(svc),
		ToolGetMarketStatus:  serviceMarketStatus(svc),
	}

	for _, def := range toolDefinitions() {
		box.add(Tool{
			Definition: def,
			Run:        runners[def.Name],
		})
	}

	return box
}

func serviceLastTrade(svc *services.MarketDataService) ToolExecutor {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var req models.LastTradeRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return "", fmt.Errorf("serviceLastTrade: invalid arguments: %w", err)
		}

		symbol := models.NewStockSymbol(req.Symbol)
		price, err := svc.GetLastTradePrice(ctx, symbol)
		if err != nil {
			return "", fmt.Errorf("serviceLastTrade: %w", err)
		}

		return marshalResult(models.LastTradeResponse{
			Symbol: symbol,
			Price:  price,
		})
	}
}

func servicePreviousClose(svc *services.MarketDataService) ToolExecutor {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var req models.PreviousCloseRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return "", fmt.Errorf("servicePreviousClose: invalid arguments: %w", err)
		}

		symbol := models.NewStockSymbol(req.Symbol)
		bar, err := svc.GetPreviousClose(ctx, symbol)
		if err != nil {
			return "", fmt.Errorf("servicePreviousClose: %w", err)
		}

		return marshalResult(models.PreviousCloseResponse{
			Symbol: symbol,
			Bar:    *bar,
		})
	}
}

func serviceDailyAggs(svc *services.MarketDataService) ToolExecutor {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var req models.DailyAggsRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return "", fmt.Errorf("serviceDailyAggs: invalid arguments: %w", err)
		}

		if req.Days <= 0 {
			req.Days = defaultAggsDays
		}

		symbol := models.NewStockSymbol(req.Symbol)
		to := time.Now()
		from := to.AddDate(0, 0, -req.Days)

		bars, err := svc.FetchDailyBars(ctx, symbol, from, to)
		if err != nil {
			return "", fmt.Errorf("serviceDailyAggs: %w", err)
		}

		return marshalResult(models.DailyAggsResponse{
			Symbol: symbol,
			Bars:   bars,
		})
	}
}

func serviceOptionChain(svc *services.MarketDataService) ToolExecutor {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var req models.ChainSnapshotRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return "", fmt.Errorf("serviceOptionChain: invalid arguments: %w", err)
		}

		if req.MaxContracts <= 0 {
			req.MaxContracts = defaultChainMaxContracts
		}

		query := services.ChainQuery{
			MaxContracts: req.MaxContracts,
		}

		if req.ContractType != "" {
			contractType := models.OptionType(strings.ToLower(req.ContractType))
			if err := contractType.Validate(); err != nil {
				return "", fmt.Errorf("serviceOptionChain: %w", err)
			}

			query.ContractType = &contractType
		}

		if req.Expiration != "" {
			expiration, err := time.Parse("2006-01-02", req.Expiration)
			if err != nil {
				return "", fmt.Errorf("serviceOptionChain: invalid expiration %q: %w", req.Expiration, err)
			}

			query.ExpirationEQ = &expiration
		}

		symbol := models.NewStockSymbol(req.Symbol)
		chain, err := svc.FetchOptionChainSnapshot(ctx, symbol, query)
		if err != nil {
			return "", fmt.Errorf("serviceOptionChain: %w", err)
		}

		spot, err := svc.ResolveSpot(ctx, chain, symbol)
		if err != nil {
			spot = 0
		}

		return marshalResult(models.ChainSnapshotResponse{
			Symbol:    symbol,
			Spot:      spot,
			Contracts: chain,
		})
	}
}

func serviceMarketStatus(svc *services.MarketDataService) ToolExecutor {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		status, err := svc.GetMarketStatus(ctx)
		if err != nil {
			return "", fmt.Errorf("serviceMarketStatus: %w", err)
		}

		return marshalResult(models.MarketStatusResponse{
			Market: status,
		})
	}
}

func marshalResult(v any) (string, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshalResult: %w", err)
	}

	return string(bytes), nil
}

// NewHTTPToolbox wires the tool definitions to a running market data tool
// server so tool calls execute as HTTP requests against it.
func NewHTTPToolbox(baseURL string, client *http.Client) *Toolbox {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	base := strings.TrimRight(baseURL, "/")
	box := newToolbox()

	routes := map[string]string{
		ToolGetLastTrade:     "/trades/last",
		ToolGetPreviousClose: "/aggs/previous-close",
		ToolGetDailyAggs:     "/aggs/daily",
		ToolGetOptionChain:   "/options/chain",
		ToolGetMarketStatus:  "/market/status",
	}

	for _, def := range toolDefinitions() {
		def := def
		box.add(Tool{
			Definition: def,
			Run:        httpTool(client, base+routes[def.Name], def.Name),
		})
	}

	return box
}

func httpTool(client *http.Client, endpoint string, name string) ToolExecutor {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		values, err := queryValues(name, args)
		if err != nil {
			return "", err
		}

		target := endpoint
		if encoded := values.Encode(); encoded != "" {
			target += "?" + encoded
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return "", fmt.Errorf("httpTool: failed to build request for %s: %w", name, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("httpTool: %s request failed: %w", name, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("httpTool: failed to read %s response: %w", name, err)
		}

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("httpTool: %s returned %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
		}

		return string(body), nil
	}
}

func queryValues(name string, args json.RawMessage) (url.Values, error) {
	values := url.Values{}

	switch name {
	case ToolGetLastTrade:
		var req models.LastTradeRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("queryValues: invalid %s arguments: %w", name, err)
		}

		values.Set("symbol", req.Symbol)

	case ToolGetPreviousClose:
		var req models.PreviousCloseRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("queryValues: invalid %s arguments: %w", name, err)
		}

		values.Set("symbol", req.Symbol)

	case ToolGetDailyAggs:
		var req models.DailyAggsRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("queryValues: invalid %s arguments: %w", name, err)
		}

		values.Set("symbol", req.Symbol)
		if req.Days > 0 {
			values.Set("days", strconv.Itoa(req.Days))
		}

	case ToolGetOptionChain:
		var req models.ChainSnapshotRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("queryValues: invalid %s arguments: %w", name, err)
		}

		values.Set("symbol", req.Symbol)
		if req.ContractType != "" {
			values.Set("contract_type", req.ContractType)
		}
		if req.Expiration != "" {
			values.Set("expiration", req.Expiration)
		}
		if req.MaxContracts > 0 {
			values.Set("max_contracts", strconv.Itoa(req.MaxContracts))
		}

	case ToolGetMarketStatus:
		// no arguments

	default:
		return nil, fmt.Errorf("queryValues: unknown tool %q", name)
	}

	return values, nil
}
