package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EndpointConfig configures one named LM endpoint against an
// OpenAI-compatible chat-completions API — the same shape the
// ambient stack's LLMConfig uses for its local-model integration.
type EndpointConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// HTTPClient implements Client against an OpenAI-compatible
// /v1/chat/completions endpoint, with one EndpointConfig per role.
// Tool-calling uses the API's native tool_calls mechanism: each
// response either carries a final message or a list of tool calls,
// which are dispatched and fed back as tool-role messages until the
// model returns a final answer or maxSteps is exhausted.
type HTTPClient struct {
	Endpoints map[Endpoint]EndpointConfig
	HTTP      *http.Client
}

// NewHTTPClient returns a client configured with primary and support
// endpoints.
func NewHTTPClient(primary, support EndpointConfig) *HTTPClient {
	return &HTTPClient{
		Endpoints: map[Endpoint]EndpointConfig{Primary: primary, Support: support},
		HTTP:      &http.Client{},
	}
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Tools       []apiTool     `json:"tools,omitempty"`
}

type apiTool struct {
	Type     string   `json:"type"`
	Function apiToolF `json:"function"`
}

type apiToolF struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	// Some reasoning-capable providers return this alongside content.
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// Call implements llm.Client.
func (c *HTTPClient) Call(ctx context.Context, endpoint Endpoint, prompt string, tools []Tool, handler ToolHandler, maxSteps int) (Result, error) {
	cfg, ok := c.Endpoints[endpoint]
	if !ok {
		return Result{}, fmt.Errorf("no endpoint configured for %q", endpoint)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	messages := []chatMessage{{Role: "user", Content: prompt}}
	apiTools := toAPITools(tools)

	steps := 0
	for {
		resp, err := c.doChat(ctx, cfg, messages, apiTools)
		if err != nil {
			return Result{}, err
		}
		if len(resp.Choices) == 0 {
			return Result{}, fmt.Errorf("llm: empty choices in response")
		}
		choice := resp.Choices[0]

		if len(choice.Message.ToolCalls) == 0 || handler == nil || steps >= maxSteps {
			var reasoning *string
			if resp.ReasoningContent != "" {
				r := resp.ReasoningContent
				reasoning = &r
			}
			return Result{Text: choice.Message.Content, Reasoning: reasoning}, nil
		}

		messages = append(messages, choice.Message)
		for _, tc := range choice.Message.ToolCalls {
			if steps >= maxSteps {
				break
			}
			var args map[string]any
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)

			observation, err := handler(ctx, ToolCall{Name: tc.Function.Name, Args: args})
			if err != nil {
				observation = fmt.Sprintf("error: %v", err)
			}
			messages = append(messages, chatMessage{Role: "tool", ToolCallID: tc.ID, Content: observation})
			steps++
		}
	}
}

func toAPITools(tools []Tool) []apiTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]apiTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, apiTool{
			Type: "function",
			Function: apiToolF{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema,
			},
		})
	}
	return out
}

func (c *HTTPClient) doChat(ctx context.Context, cfg EndpointConfig, messages []chatMessage, tools []apiTool) (*chatResponse, error) {
	reqBody := chatRequest{
		Model:       cfg.Model,
		Messages:    messages,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Tools:       tools,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm: %s returned %d: %s", cfg.BaseURL, resp.StatusCode, string(body))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("llm: cannot decode response: %w", err)
	}
	return &out, nil
}
