// Package conversation 保存会话列表、当前选中会话以及每个会话内的消息。
package conversation

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status tracks two-phase commitment of a message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

const (
	// DefaultTitle is shown until the first user message names the conversation.
	DefaultTitle = "New conversation"
	// TitleLimit 标题截断长度（按字符计）。
	TitleLimit = 30
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}

// IsError reports whether the message is a failed assistant reply, the kind
// that gets a retry affordance.
func (m Message) IsError() bool {
	return m.Role == RoleAssistant && m.Status == StatusFailed
}

// Conversation is a value snapshot; mutating it does not touch the Store.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	SessionID string    `json:"session_id"`
}

func (c Conversation) DisplayTitle() string {
	if c.Title == "" {
		return DefaultTitle
	}
	return c.Title
}

// LastMessage returns the newest message, if any.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// FindMessage returns the index of the message with id, or -1.
func (c Conversation) FindMessage(id string) int {
	for i, m := range c.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// LatestFailed 返回最近一条失败的 assistant 消息。
func (c Conversation) LatestFailed() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].IsError() {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// TitleFrom derives a conversation title from the first user message.
func TitleFrom(text string) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= TitleLimit {
		return trimmed
	}
	return string(runes[:TitleLimit]) + "..."
}
