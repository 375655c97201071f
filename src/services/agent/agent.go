package agent

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

const defaultMaxToolRounds = 8

const defaultSystemPrompt = `You are a market data assistant. You answer questions about US stocks and options using the tools provided. Always fetch live data with a tool before answering a question about prices, bars, option chains or market status. Report prices in dollars with two decimal places. If a tool fails, say so and answer with what you have.`

// Agent runs a bounded tool-calling conversation: it forwards the model's
// tool calls to the toolbox and feeds results back until the model answers
// in plain text or the round limit is hit.
type Agent struct {
	client        Client
	toolbox       *Toolbox
	systemPrompt  string
	maxToolRounds int

	history []Message
}

type Option func(*Agent)

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

func WithMaxToolRounds(rounds int) Option {
	return func(a *Agent) {
		a.maxToolRounds = rounds
	}
}

func NewAgent(client Client, toolbox *Toolbox, opts ...Option) *Agent {
	agent := &Agent{
		client:        client,
		toolbox:       toolbox,
		systemPrompt:  defaultSystemPrompt,
		maxToolRounds: defaultMaxToolRounds,
	}

	for _, opt := range opts {
		opt(agent)
	}

	return agent
}

// Ask sends one user turn through the loop and returns the model's final
// text answer. Conversation history is kept across calls so follow-up
// questions can reference earlier answers.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("Agent.Ask: empty question")
	}

	a.history = append(a.history, Message{
		Role:    RoleUser,
		Content: question,
	})

	for round := 0; round <= a.maxToolRounds; round++ {
		resp, err := a.client.Complete(ctx, &Request{
			SystemPrompt: a.systemPrompt,
			Messages:     a.history,
			Tools:        a.toolbox.Definitions(),
		})
		if err != nil {
			return "", fmt.Errorf("Agent.Ask: completion failed: %w", err)
		}

		a.history = append(a.history, Message{
			Role:      RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		for _, call := range resp.ToolCalls {
			a.history = append(a.history, a.runToolCall(ctx, call))
		}
	}

	return "", fmt.Errorf("Agent.Ask: no final answer after %d tool rounds", a.maxToolRounds)
}

// Reset drops the conversation history.
func (a *Agent) Reset() {
	a.history = nil
}

func (a *Agent) runToolCall(ctx context.Context, call ToolCall) Message {
	log.WithFields(log.Fields{
		"tool": call.Name,
		"args": string(call.Arguments),
	}).Debug("Agent: executing tool call")

	result, err := a.toolbox.Run(ctx, call)
	if err != nil {
		log.WithError(err).WithField("tool", call.Name).Warn("Agent: tool call failed")

		// surfaced to the model as a result so the loop can recover
		result = fmt.Sprintf(`{"error": %q}`, err.Error())
	}

	return Message{
		Role:       RoleTool,
		Content:    result,
		ToolCallID: call.ID,
	}
}
