// Package llm talks to the generative-model endpoint and turns its
// free-text output into trustworthy typed values.
//
// The endpoint is OpenAI-compatible and serves a single model in two
// modes: a fast/structured mode (default) used by decompose, judge and
// synthesize, and a chain-of-thought mode whose output may contain a
// <think>...</think> block that the parser strips before JSON extraction.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/veridex/internal/model"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one role-tagged entry in a conversation
type Message struct {
	Role       string
	Content    string
	Name       string // tool name on tool-result messages
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON arguments
}

// ToolSpec describes a tool offered to the model. Every veridex tool
// takes a single "query" string argument.
type ToolSpec struct {
	Name        string
	Description string
}

// CompletionRequest is a single call to the model endpoint
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	Tools       []ToolSpec
	// Reasoning selects chain-of-thought mode. The response may then
	// contain a <think> block that callers must strip before parsing.
	Reasoning bool
}

// Completion is the model's reply: either text content or tool calls
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// Client is the generative-model endpoint
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// OpenAIClient implements Client against any OpenAI-compatible server
// (llama.cpp, vLLM, OpenAI itself).
type OpenAIClient struct {
	client *openai.Client
	config model.LLMConfig
}

// NewOpenAIClient creates a client for the configured endpoint
func NewOpenAIClient(cfg model.LLMConfig) *OpenAIClient {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "not-needed" // local servers ignore the key
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Complete sends one chat completion request
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	if req.Reasoning {
		// Thinking mode burns tokens on the reasoning block before the
		// answer; give it room.
		maxTokens *= 2
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    c.convertMessages(req),
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}

	for _, spec := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The search query or URL",
						},
					},
					"required": []string{"query"},
				},
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in model response")
	}

	msg := resp.Choices[0].Message
	out := &Completion{Content: strings.TrimSpace(msg.Content)}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func (c *OpenAIClient) convertMessages(req CompletionRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for i, m := range req.Messages {
		cm := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		// Qwen-style soft switch: structured mode suppresses the
		// chain-of-thought block via the /no_think control token.
		if i == 0 && m.Role == RoleSystem && !req.Reasoning {
			cm.Content = m.Content + "\n/no_think"
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		msgs = append(msgs, cm)
	}
	return msgs
}
