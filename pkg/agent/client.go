// Package agent answers free-form questions by driving an
// OpenAI-compatible chat model through the same data operations the
// direct commands use. The model decides which tools to call; the
// executor applies them in order against the live session.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"igstat/pkg/config"
	"igstat/pkg/errors"
	"igstat/pkg/logger"
)

// ChatMessage is a single conversation turn. Tool results carry the
// id of the call they answer.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and raw JSON arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool is a function schema advertised to the model.
type Tool struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec describes one callable tool.
type FunctionSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []ChatMessage `json:"messages"`
	Tools      []Tool        `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg  *config.LLMConfig
	http *http.Client
	log  logger.Logger
}

// NewClient builds a chat client from config.
func NewClient(cfg *config.LLMConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// Model returns the configured model id.
func (c *Client) Model() string { return c.cfg.Model }

// SetModel switches the model for subsequent completions.
func (c *Client) SetModel(model string) { c.cfg.Model = model }

// CreateChatCompletion sends one completion request and returns the
// assistant message, which may carry tool calls instead of content.
func (c *Client) CreateChatCompletion(ctx context.Context, messages []ChatMessage, tools []Tool) (*ChatMessage, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New(errors.ErrorTypeUnauthorized, "no LLM API key configured; set OPENROUTER_API_KEY")
	}

	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
		reqBody.ToolChoice = "auto"
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.HTTPReferer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.HTTPReferer)
	}
	if c.cfg.AppTitle != "" {
		req.Header.Set("X-Title", c.cfg.AppTitle)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "LLM request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "read LLM response: %v", err)
	}

	if resp.StatusCode >= 400 {
		return nil, chatStatusError(resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Newf(errors.ErrorTypeMalformedResponse, "parse LLM response: %v", err)
	}
	if parsed.Error != nil {
		return nil, errors.Newf(errors.ErrorTypeServerError, "LLM API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.ErrorTypeMalformedResponse, "LLM returned no choices")
	}

	message := parsed.Choices[0].Message
	return &message, nil
}

func chatStatusError(status int, body []byte) error {
	detail := ""
	var payload chatResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		detail = payload.Error.Message
	}

	var t errors.ErrorType
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		t = errors.ErrorTypeUnauthorized
	case status == http.StatusTooManyRequests:
		t = errors.ErrorTypeRateLimited
	case status >= 500:
		t = errors.ErrorTypeServerError
	default:
		t = errors.ErrorTypeUnknown
	}
	if detail == "" {
		detail = fmt.Sprintf("LLM HTTP %d", status)
	}
	e := errors.New(t, detail)
	e.Code = status
	return e
}
