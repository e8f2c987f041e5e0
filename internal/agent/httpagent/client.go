// Package httpagent 通过 JSON over HTTP 调用远端 agent 推理接口。
package httpagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agentchat/internal/agent"
	"agentchat/internal/logger"

	"github.com/tidwall/gjson"
)

var log = logger.Named("httpagent")

const maxBodyBytes = 4 << 20

type Options struct {
	URL     string
	Token   string
	UserID  string
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

type Client struct {
	url    string
	token  string
	userID string
	http   *http.Client
}

var _ agent.Caller = (*Client)(nil)

type request struct {
	Message   string `json:"message"`
	AgentID   string `json:"agent_id"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

func New(opts Options) (*Client, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, agent.ErrMissingURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		url:    url,
		token:  strings.TrimSpace(opts.Token),
		userID: strings.TrimSpace(opts.UserID),
		http:   hc,
	}, nil
}

// Call posts one turn. A non-2xx reply whose body names an error is an
// agent-reported failure; anything else that goes wrong is returned as error.
func (c *Client) Call(ctx context.Context, message, agentID string, opts agent.Options) (agent.Result, error) {
	payload, err := json.Marshal(request{
		Message:   message,
		AgentID:   agentID,
		SessionID: opts.SessionID,
		UserID:    c.userID,
	})
	if err != nil {
		return agent.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return agent.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("x-api-key", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return agent.Result{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return agent.Result{}, fmt.Errorf("read agent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if res, ok := failureFromBody(body); ok {
			log.WithField("status", resp.StatusCode).Warn("agent reported failure")
			return res, nil
		}
		return agent.Result{}, fmt.Errorf("http_%d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var res agent.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return agent.Result{}, fmt.Errorf("decode agent response: %w", err)
	}
	return res, nil
}

func failureFromBody(body []byte) (agent.Result, bool) {
	if !gjson.ValidBytes(body) {
		return agent.Result{}, false
	}
	reason := gjson.GetBytes(body, "error")
	message := gjson.GetBytes(body, "message")
	if reason.Type != gjson.String && message.Type != gjson.String {
		return agent.Result{}, false
	}
	res := agent.Result{Response: json.RawMessage(body)}
	if reason.Type == gjson.String {
		res.Error = reason.Str
	}
	return res, true
}
