package events

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"agentchat/internal/logger"
)

// DefaultLogPath 生命周期事件日志文件路径。
const DefaultLogPath = "logs/conversation.log"

// log 复用全局 logger，标记事件组件。
var log = logger.Named("events")

// NewSinkLogger opens the component log file; on failure it falls back to
// the shared logger.
func NewSinkLogger(path string) (*logger.LogEntry, io.Closer) {
	if path == "" {
		return logger.Named("conversation"), nil
	}
	entry, closer, _, err := logger.SetupComponentFile("conversation", path)
	if err != nil {
		log.Warnf("failed to set up conversation log file (%s): %v", path, err)
		return logger.Named("conversation"), nil
	}
	return entry, closer
}

// RunLogSink writes every event from bus to entry until ctx is done or the
// bus closes. It returns once the subscription ends.
func RunLogSink(ctx context.Context, bus *Bus, entry *logger.LogEntry) {
	ch := bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			logEvent(entry, evt)
		}
	}
}

func logEvent(entry *logger.LogEntry, evt Event) {
	if entry == nil {
		return
	}
	fields := logger.Fields{"type": evt.Type}
	if evt.ConversationID != "" {
		fields["conversation_id"] = evt.ConversationID
	}
	if evt.MessageID != "" {
		fields["message_id"] = evt.MessageID
	}
	if evt.SessionID != "" {
		fields["session_id"] = evt.SessionID
	}
	if payload := encodePayload(evt.Payload); payload != "" {
		fields["payload"] = payload
	}
	entry.WithFields(fields).Info("conversation event")
}

// encodePayload 字符串原样输出，其余结构编码为单行 JSON。
func encodePayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(raw)
}
