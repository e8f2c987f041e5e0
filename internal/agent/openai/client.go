// Package openai 把 chat completions 接口适配为 agent.Caller。
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agentchat/internal/agent"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/tidwall/gjson"
)

const DefaultModel = "gpt-4o-mini"

type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	History      *agent.SessionHistory
}

type Client struct {
	api     *openai.Client
	model   string
	system  string
	history *agent.SessionHistory
}

var _ agent.Caller = (*Client)(nil)

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, agent.ErrMissingToken
	}
	cfg := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg = append(cfg, option.WithBaseURL(strings.TrimRight(normalizeBaseURL(base), "/")))
	}
	client := openai.NewClient(cfg...)

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	history := opts.History
	if history == nil {
		history = agent.NewSessionHistory(0)
	}
	return &Client{
		api:     &client,
		model:   model,
		system:  strings.TrimSpace(opts.SystemPrompt),
		history: history,
	}, nil
}

// Call sends the session transcript plus message. API status errors come
// back as agent-reported failures; transport errors are returned.
func (c *Client) Call(ctx context.Context, message, _ string, opts agent.Options) (agent.Result, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: c.buildMessages(opts.SessionID, message),
	}
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr != nil {
			return agent.Failed(statusReason(apiErr.StatusCode, apiErr.RawJSON()), ""), nil
		}
		return agent.Result{}, err
	}
	if len(resp.Choices) == 0 {
		return agent.Failed("no completion choices returned", ""), nil
	}
	text := resp.Choices[0].Message.Content
	c.history.Record(opts.SessionID, message, text)
	return agent.Succeeded(text), nil
}

func (c *Client) buildMessages(session, message string) []openai.ChatCompletionMessageParamUnion {
	past := c.history.Messages(session)
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(past)+2)
	if c.system != "" {
		out = append(out, openai.SystemMessage(c.system))
	}
	for _, msg := range past {
		switch msg.Role {
		case agent.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		case agent.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return append(out, openai.UserMessage(message))
}

// statusReason 优先使用接口返回的 message 字段。
func statusReason(status int, raw string) string {
	raw = strings.TrimSpace(raw)
	for _, path := range []string{"message", "error.message"} {
		if v := gjson.Get(raw, path); v.Type == gjson.String && v.Str != "" {
			return fmt.Sprintf("http_%d: %s", status, v.Str)
		}
	}
	if raw != "" {
		return fmt.Sprintf("http_%d: %s", status, raw)
	}
	return fmt.Sprintf("http_%d", status)
}
