// Package agent runs the multi-step reasoning loop: the LLM is given the
// tool registry and iterates call/result rounds until it produces a final
// answer or the iteration budget runs out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/coopco/helmsman/internal/providers"
	"github.com/coopco/helmsman/internal/tools"
)

// Loop drives the provider + tool iteration.
type Loop struct {
	provider     providers.Provider
	tools        *tools.Registry
	model        string
	maxTokens    int
	temperature  float64
	maxIter      int
	systemPrompt string
}

// Config holds all dependencies and settings for a Loop.
type Config struct {
	Provider      providers.Provider
	Tools         *tools.Registry
	Model         string
	MaxTokens     int
	Temperature   float64
	MaxIterations int
	SystemPrompt  string
}

// NewLoop creates a Loop from the given config.
func NewLoop(cfg Config) *Loop {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 12
	}
	return &Loop{
		provider:     cfg.Provider,
		tools:        cfg.Tools,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		maxIter:      maxIter,
		systemPrompt: cfg.SystemPrompt,
	}
}

// Run executes the reasoning loop for a single message and returns the
// final text answer.
func (l *Loop) Run(ctx context.Context, message string) (string, error) {
	runID := uuid.NewString()[:8]
	slog.Debug("agent: run started", "run", runID)

	toolDefs := toProviderTools(l.tools.Definitions())
	messages := []providers.Message{{Role: "user", Content: message}}

	for i := 0; i < l.maxIter; i++ {
		req := providers.ChatRequest{
			Model:        l.model,
			Messages:     messages,
			Tools:        toolDefs,
			MaxTokens:    l.maxTokens,
			Temperature:  l.temperature,
			SystemPrompt: l.systemPrompt,
		}

		resp, err := l.provider.Chat(ctx, req)
		if err != nil {
			return "", fmt.Errorf("provider chat error: %w", err)
		}

		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			slog.Debug("agent: run finished", "run", runID, "iterations", i+1)
			return resp.Content, nil
		}

		for _, tc := range resp.ToolCalls {
			slog.Debug("agent: executing tool", "run", runID, "name", tc.Name, "id", tc.ID)
			result := l.tools.Execute(ctx, tc.Name, json.RawMessage(tc.Arguments))
			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	// Budget exhausted: return the last assistant content if any.
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "assistant" && messages[i].Content != "" {
			slog.Warn("agent: iteration budget exhausted", "run", runID, "max", l.maxIter)
			return messages[i].Content, nil
		}
	}
	return "", fmt.Errorf("max iterations (%d) reached without a final response", l.maxIter)
}

// toProviderTools converts tool registry definitions to provider tool format.
func toProviderTools(defs []tools.ToolDefinition) []providers.ToolDef {
	result := make([]providers.ToolDef, len(defs))
	for i, d := range defs {
		result[i] = providers.ToolDef{
			Type: d.Type,
			Function: providers.FunctionDef{
				Name:        d.Function.Name,
				Description: d.Function.Description,
				Parameters:  d.Function.Parameters,
			},
		}
	}
	return result
}
