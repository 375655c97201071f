package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolDefinitions(t *testing.T) {
	defs := toolDefinitions()
	assert.Len(t, defs, 5)

	names := make(map[string]bool, len(defs))
	for _, def := range defs {
		names[def.Name] = true
		assert.NotEmpty(t, def.Description)
		assert.Equal(t, "object", def.Parameters["type"])
	}

	for _, want := range []string{
		ToolGetLastTrade, ToolGetPreviousClose, ToolGetDailyAggs,
		ToolGetOptionChain, ToolGetMarketStatus,
	} {
		assert.True(t, names[want], want)
	}
}

func TestHTTPToolbox(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()

		switch r.URL.Path {
		case "/trades/last":
			w.Write([]byte(`{"symbol":"AAPL","price":230.10}`))
		case "/aggs/daily":
			w.Write([]byte(`{"symbol":"AAPL","bars":[]}`))
		case "/market/status":
			w.Write([]byte(`{"market":"open"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"type":"boom","message":"backend unavailable"}`))
		}
	}))
	defer server.Close()

	box := NewHTTPToolbox(server.URL, server.Client())

	t.Run("symbol rides the query string", func(t *testing.T) {
		result, err := box.Run(context.Background(), ToolCall{
			Name:      ToolGetLastTrade,
			Arguments: json.RawMessage(`{"symbol":"AAPL"}`),
		})
		assert.NoError(t, err)
		assert.Equal(t, "/trades/last", gotPath)
		assert.Equal(t, []string{"AAPL"}, gotQuery["symbol"])
		assert.Contains(t, result, "230.1")
	})

	t.Run("optional args only when set", func(t *testing.T) {
		_, err := box.Run(context.Background(), ToolCall{
			Name:      ToolGetDailyAggs,
			Arguments: json.RawMessage(`{"symbol":"AAPL","days":60}`),
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"60"}, gotQuery["days"])

		_, err = box.Run(context.Background(), ToolCall{
			Name:      ToolGetDailyAggs,
			Arguments: json.RawMessage(`{"symbol":"AAPL"}`),
		})
		assert.NoError(t, err)
		_, hasDays := gotQuery["days"]
		assert.False(t, hasDays)
	})

	t.Run("market status takes no arguments", func(t *testing.T) {
		result, err := box.Run(context.Background(), ToolCall{
			Name:      ToolGetMarketStatus,
			Arguments: json.RawMessage(`{}`),
		})
		assert.NoError(t, err)
		assert.Contains(t, result, "open")
	})

	t.Run("server error becomes a tool error", func(t *testing.T) {
		_, err := box.Run(context.Background(), ToolCall{
			Name:      ToolGetOptionChain,
			Arguments: json.RawMessage(`{"symbol":"AAPL"}`),
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "backend unavailable")
	})
}

func TestQueryValues(t *testing.T) {
	t.Run("chain args map to query params", func(t *testing.T) {
		values, err := queryValues(ToolGetOptionChain, json.RawMessage(
			`{"symbol":"SPY","contract_type":"call","expiration":"2026-09-18","max_contracts":100}`))
		assert.NoError(t, err)
		assert.Equal(t, "SPY", values.Get("symbol"))
		assert.Equal(t, "call", values.Get("contract_type"))
		assert.Equal(t, "2026-09-18", values.Get("expiration"))
		assert.Equal(t, "100", values.Get("max_contracts"))
	})

	t.Run("unknown tool errors", func(t *testing.T) {
		_, err := queryValues("nope", json.RawMessage(`{}`))
		assert.Error(t, err)
	})

	t.Run("malformed arguments error", func(t *testing.T) {
		_, err := queryValues(ToolGetLastTrade, json.RawMessage(`{`))
		assert.Error(t, err)
	})
}
