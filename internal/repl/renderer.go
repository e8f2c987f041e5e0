package repl

import (
	"io"
	"strings"
	"sync"
	"time"

	"agentchat/internal/conversation"
	"agentchat/internal/events"
)

// Renderer turns lifecycle events from the bus into history cells. The
// user's own lines are already on screen, so only agent output, retries
// and resets produce output.
type Renderer struct {
	mu sync.Mutex

	agentName  string
	timestamps bool
	printer    Printer
	now        func() time.Time

	renderers  map[events.EventType]EventCellRenderer
	scrollback *Scrollback
}

type RendererOptions struct {
	AgentName  string
	Writer     io.Writer
	Timestamps bool
	Highlight  bool
	Now        func() time.Time
}

// EventCellRenderer handles one EventType and may emit a cell.
type EventCellRenderer interface {
	Type() events.EventType
	Handle(r *Renderer, evt events.Event)
}

func NewRenderer(opts RendererOptions) *Renderer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	name := opts.AgentName
	if name == "" {
		name = "Agent"
	}
	r := &Renderer{
		agentName:  name,
		timestamps: opts.Timestamps,
		printer:    Printer{Highlight: opts.Highlight},
		now:        now,
		renderers:  map[events.EventType]EventCellRenderer{},
		scrollback: NewScrollback(opts.Writer),
	}
	for _, rr := range defaultCellRenderers() {
		r.renderers[rr.Type()] = rr
	}
	return r
}

func (r *Renderer) RegisterRenderer(renderer EventCellRenderer) {
	if renderer == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[renderer.Type()] = renderer
}

func (r *Renderer) Handle(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rr := r.renderers[evt.Type]; rr != nil {
		rr.Handle(r, evt)
	}
}

// Append writes a cell that did not come from the bus.
func (r *Renderer) Append(cell HistoryCell) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrollback.AppendCell(cell)
}

// Replay prints a stored conversation, e.g. after switching to it.
func (r *Renderer) Replay(conv conversation.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrollback.AppendCell(noticeCell{text: "── " + conv.DisplayTitle() + " ──", color: metaColor})
	for _, m := range conv.Messages {
		if m.Role == conversation.RoleUser {
			r.scrollback.AppendCell(textCell{userLine(m.Content)})
			continue
		}
		r.scrollback.AppendCell(r.reply(m.Content, m.IsError(), m.Timestamp))
	}
}

func (r *Renderer) reply(content string, failed bool, at time.Time) replyCell {
	return replyCell{
		agentName:  r.agentName,
		content:    content,
		failed:     failed,
		at:         at,
		now:        r.now(),
		timestamps: r.timestamps,
		printer:    r.printer,
	}
}

// ThinkingText 是等待回复时显示的提示。
func ThinkingText(agentName string) string {
	return agentName + " is thinking…"
}

// --- Default cell renderers ---

func defaultCellRenderers() []EventCellRenderer {
	return []EventCellRenderer{
		turnStartedRenderer{},
		messageAppendedRenderer{},
		retryScheduledRenderer{},
		resetRenderer{},
		// message.removed / turn.completed / turn.failed 不单独输出。
	}
}

type turnStartedRenderer struct{}

func (turnStartedRenderer) Type() events.EventType { return events.EventTurnStarted }

func (turnStartedRenderer) Handle(r *Renderer, _ events.Event) {
	r.scrollback.AppendCell(noticeCell{text: ThinkingText(r.agentName), color: metaColor})
}

type messageAppendedRenderer struct{}

func (messageAppendedRenderer) Type() events.EventType { return events.EventMessageAppended }

func (messageAppendedRenderer) Handle(r *Renderer, evt events.Event) {
	msg, ok := evt.Payload.(events.MessagePayload)
	if !ok || msg.Role != string(conversation.RoleAssistant) {
		return
	}
	failed := msg.Status == string(conversation.StatusFailed)
	r.scrollback.AppendCell(r.reply(msg.Content, failed, evt.Timestamp))
}

type retryScheduledRenderer struct{}

func (retryScheduledRenderer) Type() events.EventType { return events.EventRetryScheduled }

func (retryScheduledRenderer) Handle(r *Renderer, evt events.Event) {
	plan, ok := evt.Payload.(events.RetryPayload)
	if !ok {
		return
	}
	text := strings.TrimSpace(conversation.TitleFrom(plan.Text))
	r.scrollback.AppendCell(noticeCell{text: "↻ retrying: " + text, color: noticeColor})
}

type resetRenderer struct{}

func (resetRenderer) Type() events.EventType { return events.EventReset }

func (resetRenderer) Handle(r *Renderer, _ events.Event) {
	r.scrollback.AppendCell(noticeCell{text: "all conversations were cleared", color: noticeColor})
}
