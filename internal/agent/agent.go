// Package agent 定义调用远端对话 agent 的契约以及回复文本的提取规则。
package agent

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrMissingURL   = errors.New("missing agent url")
)

const (
	// AgentID 是默认对话 agent 的标识。
	AgentID   = "69980ceb5c2b0725089691c2"
	AgentName = "Chat Agent"
)

// Options carries per-call settings; SessionID lets the agent thread turns.
type Options struct {
	SessionID string
}

// Result is the structured reply of one agent call.
//
// Success=false marks a failure reported by the agent itself. Transport
// problems are returned as errors instead.
type Result struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Caller performs one agent round trip.
type Caller interface {
	Call(ctx context.Context, message, agentID string, opts Options) (Result, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, message, agentID string, opts Options) (Result, error)

func (f CallerFunc) Call(ctx context.Context, message, agentID string, opts Options) (Result, error) {
	return f(ctx, message, agentID, opts)
}
