package agent

import "sync"

// DefaultHistoryLimit 每个 session 保留的最大消息数。
const DefaultHistoryLimit = 40

// SessionHistory keeps a bounded transcript per session id so model-backed
// callers can thread turns the way a remote agent would.
type SessionHistory struct {
	mu       sync.Mutex
	limit    int
	sessions map[string][]Message
}

func NewSessionHistory(limit int) *SessionHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &SessionHistory{limit: limit, sessions: make(map[string][]Message)}
}

// Messages returns a copy of the transcript for session.
func (h *SessionHistory) Messages(session string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	src := h.sessions[session]
	out := make([]Message, len(src))
	copy(out, src)
	return out
}

// Record appends a completed exchange, dropping the oldest messages over the limit.
func (h *SessionHistory) Record(session, user, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := append(h.sessions[session],
		Message{Role: RoleUser, Content: user},
		Message{Role: RoleAssistant, Content: assistant},
	)
	if over := len(msgs) - h.limit; over > 0 {
		msgs = append([]Message(nil), msgs[over:]...)
	}
	h.sessions[session] = msgs
}

// Forget drops a session transcript.
func (h *SessionHistory) Forget(session string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, session)
}
