// Package chat 编排消息生命周期：发送、乐观追加、成功/失败处理与重试。
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"agentchat/internal/agent"
	"agentchat/internal/conversation"
	"agentchat/internal/events"
	"agentchat/internal/ids"
	"agentchat/internal/logger"
)

var log = logger.Named("chat")

// DefaultRetryDelay 重试前的等待时间。
const DefaultRetryDelay = 50 * time.Millisecond

const (
	StatusBusy  = "busy"
	StatusReady = "ready"
)

type Options struct {
	Store      *conversation.Store
	Caller     agent.Caller
	IDs        ids.Generator
	AgentID    string
	RetryDelay time.Duration
	Now        func() time.Time
	// Bus 可选；为 nil 时不广播事件。
	Bus *events.Bus
}

// Controller owns the send/retry lifecycle. Every method except Call must
// run on the single goroutine that owns the Store; Call only talks to the
// agent and may run anywhere.
type Controller struct {
	store      *conversation.Store
	caller     agent.Caller
	ids        ids.Generator
	agentID    string
	retryDelay time.Duration
	now        func() time.Time
	bus        *events.Bus

	mu        sync.Mutex
	flight    Flight
	seq       uint64
	busyAgent string
}

// Turn is an accepted send waiting for the agent.
type Turn struct {
	Seq            uint64
	ConversationID string
	SessionID      string
	UserMessageID  string
	Text           string
	AgentID        string
	StartedAt      time.Time
}

// Outcome is what Call hands back to Complete.
type Outcome struct {
	Turn   Turn
	Result agent.Result
	Err    error
}

// RetryPlan describes the resend that follows removing a failed message.
type RetryPlan struct {
	ConversationID string
	Text           string
	Resend         bool
	Delay          time.Duration
}

func New(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("chat: store is required")
	}
	if opts.Caller == nil {
		return nil, errors.New("chat: caller is required")
	}
	if opts.IDs == nil {
		opts.IDs = ids.UUID{}
	}
	if opts.AgentID == "" {
		opts.AgentID = agent.AgentID
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		store:      opts.Store,
		caller:     opts.Caller,
		ids:        opts.IDs,
		agentID:    opts.AgentID,
		retryDelay: opts.RetryDelay,
		now:        opts.Now,
		bus:        opts.Bus,
	}, nil
}

func (c *Controller) Store() *conversation.Store { return c.store }
func (c *Controller) AgentID() string            { return c.agentID }
func (c *Controller) RetryDelay() time.Duration  { return c.retryDelay }

// Flight returns a copy of the send token.
func (c *Controller) Flight() Flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flight
}

func (c *Controller) InFlight() bool {
	return c.Flight().State == FlightAwaiting
}

// BusyAgent returns the agent currently marked busy, or "".
func (c *Controller) BusyAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busyAgent
}

// Status is "busy" while an agent is marked busy, otherwise "ready".
func (c *Controller) Status() string {
	if c.BusyAgent() != "" {
		return StatusBusy
	}
	return StatusReady
}

// Begin accepts a send: it resolves or creates the conversation, appends the
// pending user message, names the conversation on its first message and
// takes the flight token. It reports false when the send is ignored.
func (c *Controller) Begin(text, activeID string) (Turn, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Turn{}, false
	}
	if c.InFlight() {
		log.Debug("send ignored: a request is already in flight")
		return Turn{}, false
	}

	var conv conversation.Conversation
	if activeID == "" {
		conv = c.store.Create()
	} else {
		found, ok := c.store.Get(activeID)
		if !ok {
			log.WithField("conversation_id", activeID).Warn("send ignored: conversation not found")
			return Turn{}, false
		}
		conv = found
	}
	sessionID := conv.SessionID
	if sessionID == "" {
		sessionID = conv.ID
	}

	now := c.now()
	msg := conversation.Message{
		ID:        c.ids.NewID(),
		Role:      conversation.RoleUser,
		Content:   trimmed,
		Timestamp: now,
		Status:    conversation.StatusPending,
	}
	if err := c.store.Append(conv.ID, msg); err != nil {
		log.WithError(err).Warn("send ignored: append user message")
		return Turn{}, false
	}
	if len(conv.Messages) == 0 {
		if _, err := c.store.SetTitle(conv.ID, conversation.TitleFrom(trimmed)); err != nil {
			log.WithError(err).Warn("set conversation title")
		}
	}

	c.mu.Lock()
	c.seq++
	turn := Turn{
		Seq:            c.seq,
		ConversationID: conv.ID,
		SessionID:      sessionID,
		UserMessageID:  msg.ID,
		Text:           trimmed,
		AgentID:        c.agentID,
		StartedAt:      now,
	}
	c.flight = Flight{State: FlightAwaiting, Seq: turn.Seq, ConversationID: conv.ID, StartedAt: now}
	c.busyAgent = c.agentID
	c.mu.Unlock()

	c.publish(events.Event{
		Type:           events.EventMessageAppended,
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		SessionID:      sessionID,
		Timestamp:      now,
		Payload:        messagePayload(msg),
	})
	c.publish(events.Event{
		Type:           events.EventTurnStarted,
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		SessionID:      sessionID,
		Timestamp:      now,
		Payload:        events.TurnPayload{AgentID: c.agentID},
	})
	return turn, true
}

// Call performs the agent round trip for turn. It touches no controller or
// store state and turns a panicking caller into an error outcome.
func (c *Controller) Call(ctx context.Context, turn Turn) (out Outcome) {
	out.Turn = turn
	defer func() {
		if r := recover(); r != nil {
			out.Result = agent.Result{}
			out.Err = fmt.Errorf("agent call panicked: %v", r)
		}
	}()
	out.Result, out.Err = c.caller.Call(ctx, turn.Text, turn.AgentID, agent.Options{SessionID: turn.SessionID})
	return out
}

// Complete records the outcome of a turn and always releases the flight
// token and busy marker held by that turn. It returns the assistant message
// that was appended.
func (c *Controller) Complete(out Outcome) (conversation.Message, error) {
	turn := out.Turn
	if !c.release(turn.Seq) {
		log.WithField("seq", turn.Seq).Warn("dropping stale agent outcome")
		return conversation.Message{}, fmt.Errorf("stale outcome for turn %d", turn.Seq)
	}

	now := c.now()
	reply := conversation.Message{
		ID:        c.ids.NewID(),
		Role:      conversation.RoleAssistant,
		Timestamp: now,
		Status:    conversation.StatusConfirmed,
	}
	userStatus := conversation.StatusConfirmed
	evt := events.Event{
		Type:           events.EventTurnCompleted,
		ConversationID: turn.ConversationID,
		MessageID:      reply.ID,
		SessionID:      turn.SessionID,
		Timestamp:      now,
	}
	payload := events.TurnPayload{AgentID: turn.AgentID, DurationMs: now.Sub(turn.StartedAt).Milliseconds()}

	switch {
	case out.Err != nil:
		log.WithError(out.Err).WithField("session_id", turn.SessionID).Warn("agent call failed")
		reply.Content = agent.ConnectionFailureText
		reply.Status = conversation.StatusFailed
		userStatus = conversation.StatusFailed
		evt.Type = events.EventTurnFailed
		payload.Error = out.Err.Error()
	case !out.Result.Success:
		reply.Content = agent.FailureText(out.Result)
		reply.Status = conversation.StatusFailed
		userStatus = conversation.StatusFailed
		evt.Type = events.EventTurnFailed
		payload.Error = reply.Content
	default:
		reply.Content = agent.ReplyText(out.Result)
		payload.Text = reply.Content
	}
	evt.Payload = payload

	if err := c.store.Append(turn.ConversationID, reply); err != nil {
		log.WithError(err).WithField("conversation_id", turn.ConversationID).Warn("dropping agent reply")
		return conversation.Message{}, err
	}
	if err := c.store.SetStatus(turn.ConversationID, turn.UserMessageID, userStatus); err != nil && !errors.Is(err, conversation.ErrMessageNotFound) {
		log.WithError(err).Warn("update user message status")
	}

	c.publish(events.Event{
		Type:           events.EventMessageAppended,
		ConversationID: turn.ConversationID,
		MessageID:      reply.ID,
		SessionID:      turn.SessionID,
		Timestamp:      now,
		Payload:        messagePayload(reply),
	})
	c.publish(evt)
	return reply, nil
}

// release clears the flight token if it still belongs to seq.
func (c *Controller) release(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flight.State != FlightAwaiting || c.flight.Seq != seq {
		return false
	}
	c.flight = Flight{State: FlightIdle, Seq: seq}
	c.busyAgent = ""
	return true
}

// Send runs Begin, Call and Complete in sequence. It reports false when the
// send was ignored.
func (c *Controller) Send(ctx context.Context, text, activeID string) (conversation.Message, bool) {
	turn, ok := c.Begin(text, activeID)
	if !ok {
		return conversation.Message{}, false
	}
	reply, err := c.Complete(c.Call(ctx, turn))
	if err != nil {
		return conversation.Message{}, true
	}
	return reply, true
}

// PrepareRetry removes a failed assistant message from the active
// conversation and reports what to resend: the nearest user message before
// it, if any. It reports false when messageID is not a failed reply in the
// active conversation.
func (c *Controller) PrepareRetry(messageID string) (RetryPlan, bool) {
	conv, ok := c.store.Active()
	if !ok {
		return RetryPlan{}, false
	}
	idx := conv.FindMessage(messageID)
	if idx < 0 || !conv.Messages[idx].IsError() {
		return RetryPlan{}, false
	}

	plan := RetryPlan{ConversationID: conv.ID, Delay: c.retryDelay}
	for i := idx - 1; i >= 0; i-- {
		if conv.Messages[i].Role == conversation.RoleUser {
			plan.Text = conv.Messages[i].Content
			plan.Resend = true
			break
		}
	}

	if err := c.store.RemoveMessage(conv.ID, messageID); err != nil {
		log.WithError(err).Warn("retry: remove failed message")
		return RetryPlan{}, false
	}
	now := c.now()
	c.publish(events.Event{
		Type:           events.EventMessageRemoved,
		ConversationID: conv.ID,
		MessageID:      messageID,
		SessionID:      conv.SessionID,
		Timestamp:      now,
	})
	if plan.Resend {
		c.publish(events.Event{
			Type:           events.EventRetryScheduled,
			ConversationID: conv.ID,
			SessionID:      conv.SessionID,
			Timestamp:      now,
			Payload:        events.RetryPayload{Text: plan.Text, DelayMs: plan.Delay.Milliseconds()},
		})
	}
	return plan, true
}

// Retry removes the failed message and, after the retry delay, resends the
// preceding user text. It reports whether a resend was accepted.
func (c *Controller) Retry(ctx context.Context, messageID string) (conversation.Message, bool) {
	plan, ok := c.PrepareRetry(messageID)
	if !ok || !plan.Resend || ctx.Err() != nil {
		return conversation.Message{}, false
	}
	timer := time.NewTimer(plan.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return conversation.Message{}, false
	case <-timer.C:
	}
	return c.Send(ctx, plan.Text, plan.ConversationID)
}

// Reset discards every conversation and releases the flight token. An
// outcome still on its way for the old flight is dropped by Complete.
func (c *Controller) Reset() {
	c.store.Reset()
	c.mu.Lock()
	c.flight = Flight{State: FlightIdle, Seq: c.seq}
	c.busyAgent = ""
	c.mu.Unlock()
	c.publish(events.Event{Type: events.EventReset, Timestamp: c.now()})
}

func (c *Controller) publish(evt events.Event) {
	if c.bus != nil {
		c.bus.Publish(evt)
	}
}

func messagePayload(m conversation.Message) events.MessagePayload {
	return events.MessagePayload{Role: string(m.Role), Status: string(m.Status), Content: m.Content}
}
