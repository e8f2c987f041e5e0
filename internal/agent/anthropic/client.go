// Package anthropic 把 Messages 接口适配为 agent.Caller。
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agentchat/internal/agent"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
)

type Options struct {
	Token        string
	BaseURL      string
	Model        string
	SystemPrompt string
	History      *agent.SessionHistory
}

type Client struct {
	api     *anthropic.Client
	model   anthropic.Model
	system  string
	history *agent.SessionHistory
}

var _ agent.Caller = (*Client)(nil)

func New(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, agent.ErrMissingToken
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(token),
	}
	if base := normalizeBaseURL(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	client := anthropic.NewClient(reqOpts...)

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
		model:   anthropic.Model(model),
		system:  strings.TrimSpace(opts.SystemPrompt),
		history: history,
	}, nil
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/messages")
	if strings.HasSuffix(base, "/v1") {
		base = strings.TrimSuffix(base, "/v1")
		base = strings.TrimRight(base, "/")
	}
	return base
}

// BaseURL exposes the normalized endpoint root, used by ping.
func BaseURL(raw string) string {
	if base := normalizeBaseURL(raw); base != "" {
		return base
	}
	return "https://api.anthropic.com"
}

func (c *Client) Call(ctx context.Context, message, _ string, opts agent.Options) (agent.Result, error) {
	msg, err := c.api.Messages.New(ctx, c.buildParams(opts.SessionID, message))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr != nil {
			return agent.Failed(statusReason(apiErr.StatusCode, apiErr.RawJSON()), ""), nil
		}
		return agent.Result{}, err
	}
	text := strings.TrimSpace(extractText(msg.Content))
	c.history.Record(opts.SessionID, message, text)
	return agent.Succeeded(text), nil
}

func (c *Client) buildParams(session, message string) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	if c.system != "" {
		system = append(system, anthropic.TextBlockParam{Text: c.system})
	}
	past := c.history.Messages(session)
	messages := make([]anthropic.MessageParam, 0, len(past)+1)
	for _, msg := range past {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		switch msg.Role {
		case agent.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: text})
		case agent.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	return params
}

func extractText(blocks []anthropic.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(v.Text)
		}
	}
	return sb.String()
}

func statusReason(status int, raw string) string {
	raw = strings.TrimSpace(raw)
	for _, path := range []string{"error.message", "message"} {
		if v := gjson.Get(raw, path); v.Type == gjson.String && v.Str != "" {
			return fmt.Sprintf("http_%d: %s", status, v.Str)
		}
	}
	if raw != "" {
		return fmt.Sprintf("http_%d: %s", status, raw)
	}
	return fmt.Sprintf("http_%d", status)
}
