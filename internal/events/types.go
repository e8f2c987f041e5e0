// Package events 广播会话生命周期事件，供日志等旁路消费者订阅。
package events

import "time"

// EventType 描述事件类型。
type EventType string

const (
	EventTurnStarted     EventType = "turn.started"
	EventMessageAppended EventType = "message.appended"
	EventMessageRemoved  EventType = "message.removed"
	EventTurnCompleted   EventType = "turn.completed"
	// EventTurnFailed 覆盖 agent 报告失败与调用异常两种情况。
	EventTurnFailed     EventType = "turn.failed"
	EventRetryScheduled EventType = "retry.scheduled"
	EventReset          EventType = "state.reset"
)

// Event is the only message carried on the Bus. Payload depends on Type.
type Event struct {
	Type           EventType
	ConversationID string
	MessageID      string
	SessionID      string
	Timestamp      time.Time
	Payload        any
}

// MessagePayload 描述追加或移除的消息。
type MessagePayload struct {
	Role    string `json:"role"`
	Status  string `json:"status"`
	Content string `json:"content"`
}

// TurnPayload 描述一次回合的结果。
type TurnPayload struct {
	AgentID    string `json:"agent_id"`
	Text       string `json:"text,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// RetryPayload 描述一次重试计划。
type RetryPayload struct {
	Text    string `json:"text"`
	DelayMs int64  `json:"delay_ms"`
}
