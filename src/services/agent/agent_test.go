package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scriptedClient replays canned responses and records every request.
type scriptedClient struct {
	responses []*Response
	requests  []*Request
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, request *Request) (*Response, error) {
	c.requests = append(c.requests, request)

	if c.calls >= len(c.responses) {
		return nil, fmt.Errorf("scriptedClient: no response for call %d", c.calls)
	}

	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func (c *scriptedClient) Name() string  { return "scripted" }
func (c *scriptedClient) Model() string { return "scripted-1" }

func echoToolbox(t *testing.T) *Toolbox {
	t.Helper()

	box := newToolbox()
	box.add(Tool{
		Definition: ToolDefinition{
			Name:        "echo",
			Description: "echoes its arguments",
			Parameters:  map[string]any{"type": "object"},
		},
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			return string(args), nil
		},
	})
	box.add(Tool{
		Definition: ToolDefinition{
			Name:        "broken",
			Description: "always fails",
			Parameters:  map[string]any{"type": "object"},
		},
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", fmt.Errorf("exchange is down")
		},
	})

	return box
}

func TestAgentAsk(t *testing.T) {
	t.Run("plain answer needs one round", func(t *testing.T) {
		client := &scriptedClient{responses: []*Response{{Content: "AAPL closed at $230.10"}}}
		a := NewAgent(client, echoToolbox(t))

		answer, err := a.Ask(context.Background(), "where did AAPL close?")
		assert.NoError(t, err)
		assert.Equal(t, "AAPL closed at $230.10", answer)
		assert.Equal(t, 1, client.calls)

		// tool definitions ride along on the request
		assert.Len(t, client.requests[0].Tools, 2)
	})

	t.Run("tool call round trips through the toolbox", func(t *testing.T) {
		client := &scriptedClient{responses: []*Response{
			{ToolCalls: []ToolCall{{ID: "call-1", Name: "echo", Arguments: json.RawMessage(`{"symbol":"AAPL"}`)}}},
			{Content: "done"},
		}}
		a := NewAgent(client, echoToolbox(t))

		answer, err := a.Ask(context.Background(), "price of AAPL")
		assert.NoError(t, err)
		assert.Equal(t, "done", answer)

		// second request carries user, assistant tool-call, and tool result
		second := client.requests[1]
		assert.Len(t, second.Messages, 3)
		assert.Equal(t, RoleTool, second.Messages[2].Role)
		assert.Equal(t, "call-1", second.Messages[2].ToolCallID)
		assert.Equal(t, `{"symbol":"AAPL"}`, second.Messages[2].Content)
	})

	t.Run("tool failure is surfaced to the model, not fatal", func(t *testing.T) {
		client := &scriptedClient{responses: []*Response{
			{ToolCalls: []ToolCall{{ID: "call-1", Name: "broken", Arguments: json.RawMessage(`{}`)}}},
			{Content: "sorry, the data source failed"},
		}}
		a := NewAgent(client, echoToolbox(t))

		answer, err := a.Ask(context.Background(), "anything")
		assert.NoError(t, err)
		assert.Equal(t, "sorry, the data source failed", answer)

		toolMsg := client.requests[1].Messages[2]
		assert.Contains(t, toolMsg.Content, "exchange is down")
	})

	t.Run("round limit stops a tool loop", func(t *testing.T) {
		loop := &Response{ToolCalls: []ToolCall{{ID: "c", Name: "echo", Arguments: json.RawMessage(`{}`)}}}
		client := &scriptedClient{responses: []*Response{loop, loop, loop}}
		a := NewAgent(client, echoToolbox(t), WithMaxToolRounds(2))

		_, err := a.Ask(context.Background(), "loop forever")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "tool rounds")
	})

	t.Run("empty question is rejected", func(t *testing.T) {
		a := NewAgent(&scriptedClient{}, echoToolbox(t))
		_, err := a.Ask(context.Background(), "   ")
		assert.Error(t, err)
	})

	t.Run("history persists across turns until reset", func(t *testing.T) {
		client := &scriptedClient{responses: []*Response{
			{Content: "first"},
			{Content: "second"},
		}}
		a := NewAgent(client, echoToolbox(t))

		_, err := a.Ask(context.Background(), "one")
		assert.NoError(t, err)
		_, err = a.Ask(context.Background(), "two")
		assert.NoError(t, err)

		// user+assistant from turn one, then the new user turn
		assert.Len(t, client.requests[1].Messages, 3)

		a.Reset()
		assert.Nil(t, a.history)
	})
}

func TestToolboxRunUnknownTool(t *testing.T) {
	box := echoToolbox(t)
	_, err := box.Run(context.Background(), ToolCall{Name: "nope"})
	assert.Error(t, err)
}

func TestToolboxDefinitionsKeepOrder(t *testing.T) {
	box := echoToolbox(t)
	defs := box.Definitions()
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "broken", defs[1].Name)
}
