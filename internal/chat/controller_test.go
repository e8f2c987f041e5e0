package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"agentchat/internal/agent"
	"agentchat/internal/conversation"
	"agentchat/internal/events"
	"agentchat/internal/ids"
)

type call struct {
	message string
	agentID string
	session string
}

// scriptedCaller 按顺序返回预设结果并记录每次调用。
type scriptedCaller struct {
	mu      sync.Mutex
	calls   []call
	results []agent.Result
	errs    []error
	panicOn int
}

func (s *scriptedCaller) Call(_ context.Context, message, agentID string, opts agent.Options) (agent.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{message: message, agentID: agentID, session: opts.SessionID})
	n := len(s.calls)
	if s.panicOn == n {
		panic("caller exploded")
	}
	var res agent.Result
	var err error
	if n-1 < len(s.results) {
		res = s.results[n-1]
	} else {
		res = agent.Succeeded("ok")
	}
	if n-1 < len(s.errs) {
		err = s.errs[n-1]
	}
	return res, err
}

func (s *scriptedCaller) Calls() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func newController(t *testing.T, caller agent.Caller, bus *events.Bus) *Controller {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := conversation.NewStore(conversation.Options{IDs: ids.NewSequence("c"), Now: clock})
	ctrl, err := New(Options{
		Store:      store,
		Caller:     caller,
		IDs:        ids.NewSequence("m"),
		RetryDelay: time.Millisecond,
		Now:        clock,
		Bus:        bus,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ctrl
}

func contents(conv conversation.Conversation) []string {
	var out []string
	for _, m := range conv.Messages {
		out = append(out, string(m.Role)+":"+m.Content)
	}
	return out
}

func TestSendCreatesConversationWhenNoneActive(t *testing.T) {
	caller := &scriptedCaller{results: []agent.Result{{Success: true, Response: raw(`{"result":{"response_text":"X"}}`)}}}
	ctrl := newController(t, caller, nil)

	reply, ok := ctrl.Send(context.Background(), "  hello  ", "")
	if !ok {
		t.Fatalf("Send() ignored")
	}
	if reply.Content != "X" || reply.Status != conversation.StatusConfirmed || reply.IsError() {
		t.Fatalf("reply = %#v", reply)
	}

	store := ctrl.Store()
	if store.Len() != 1 {
		t.Fatalf("conversations = %d, want 1", store.Len())
	}
	conv, ok := store.Active()
	if !ok {
		t.Fatalf("no active conversation after implicit create")
	}
	if got := strings.Join(contents(conv), "|"); got != "user:hello|assistant:X" {
		t.Fatalf("messages = %q", got)
	}
	if conv.Messages[0].Status != conversation.StatusConfirmed {
		t.Fatalf("user status = %q, want confirmed", conv.Messages[0].Status)
	}
	if conv.Title != "hello" {
		t.Fatalf("title = %q, want %q", conv.Title, "hello")
	}
	calls := caller.Calls()
	if len(calls) != 1 || calls[0].message != "hello" || calls[0].agentID != agent.AgentID || calls[0].session != conv.SessionID {
		t.Fatalf("calls = %#v (session %q)", calls, conv.SessionID)
	}
	if ctrl.InFlight() || ctrl.BusyAgent() != "" || ctrl.Status() != StatusReady {
		t.Fatalf("flags not cleared: flight=%v busy=%q", ctrl.Flight(), ctrl.BusyAgent())
	}
}

func TestSendIgnoresBlankText(t *testing.T) {
	caller := &scriptedCaller{}
	ctrl := newController(t, caller, nil)
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, ok := ctrl.Send(context.Background(), text, ""); ok {
			t.Fatalf("Send(%q) accepted", text)
		}
	}
	if ctrl.Store().Len() != 0 || len(caller.Calls()) != 0 {
		t.Fatalf("blank send had side effects")
	}
}

func TestSendUnknownConversationIgnored(t *testing.T) {
	caller := &scriptedCaller{}
	ctrl := newController(t, caller, nil)
	if _, ok := ctrl.Send(context.Background(), "hi", "ghost"); ok {
		t.Fatalf("Send to unknown conversation accepted")
	}
	if ctrl.InFlight() || len(caller.Calls()) != 0 {
		t.Fatalf("unknown conversation send had side effects")
	}
}

func TestTitleSetOnceFromFirstMessage(t *testing.T) {
	ctrl := newController(t, &scriptedCaller{}, nil)
	long := "Hello world, this is a long message exceeding thirty characters"
	ctx := context.Background()
	ctrl.Send(ctx, long, "")
	active := ctrl.Store().ActiveID()
	ctrl.Send(ctx, "a later message", active)

	conv, _ := ctrl.Store().Get(active)
	if want := long[:30] + "..."; conv.Title != want {
		t.Fatalf("title = %q, want %q", conv.Title, want)
	}
	if len(conv.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(conv.Messages))
	}
}

func TestSendUsesExistingConversationSession(t *testing.T) {
	caller := &scriptedCaller{}
	ctrl := newController(t, caller, nil)
	conv := ctrl.Store().Create()
	ctrl.Send(context.Background(), "hi", conv.ID)
	if got := caller.Calls()[0].session; got != conv.SessionID {
		t.Fatalf("session = %q, want %q", got, conv.SessionID)
	}
}

func TestFailureResults(t *testing.T) {
	cases := []struct {
		name string
		res  agent.Result
		err  error
		want string
	}{
		{name: "error field", res: agent.Result{Error: "Z"}, want: "Z"},
		{name: "response message", res: agent.Result{Response: raw(`{"message":"M"}`)}, want: "M"},
		{name: "generic", res: agent.Result{}, want: agent.GenericFailureText},
		{name: "exception", err: errors.New("dial tcp: refused"), want: agent.ConnectionFailureText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			caller := &scriptedCaller{results: []agent.Result{tc.res}, errs: []error{tc.err}}
			ctrl := newController(t, caller, nil)
			reply, ok := ctrl.Send(context.Background(), "A", "")
			if !ok {
				t.Fatalf("Send() ignored")
			}
			if reply.Content != tc.want || !reply.IsError() {
				t.Fatalf("reply = %#v, want failed %q", reply, tc.want)
			}
			conv, _ := ctrl.Store().Active()
			if conv.Messages[0].Status != conversation.StatusFailed {
				t.Fatalf("user status = %q, want failed", conv.Messages[0].Status)
			}
			if ctrl.InFlight() || ctrl.BusyAgent() != "" {
				t.Fatalf("flags not cleared after failure")
			}
			// 失败后仍可继续发送
			if _, ok := ctrl.Send(context.Background(), "again", conv.ID); !ok {
				t.Fatalf("send after failure ignored")
			}
		})
	}
}

func TestPanickingCallerBecomesConnectionFailure(t *testing.T) {
	caller := &scriptedCaller{panicOn: 1}
	ctrl := newController(t, caller, nil)
	reply, ok := ctrl.Send(context.Background(), "A", "")
	if !ok || reply.Content != agent.ConnectionFailureText || !reply.IsError() {
		t.Fatalf("reply = %#v, ok %v", reply, ok)
	}
	if ctrl.InFlight() {
		t.Fatalf("flight not released after panic")
	}
}

func TestSingleFlightAcrossConversations(t *testing.T) {
	ctrl := newController(t, &scriptedCaller{}, nil)
	turn, ok := ctrl.Begin("first", "")
	if !ok {
		t.Fatalf("Begin() ignored")
	}
	if !ctrl.InFlight() || ctrl.Status() != StatusBusy || ctrl.BusyAgent() != agent.AgentID {
		t.Fatalf("flight not taken: %#v", ctrl.Flight())
	}
	other := ctrl.Store().Create()
	if _, ok := ctrl.Begin("second", other.ID); ok {
		t.Fatalf("second Begin accepted while in flight")
	}
	if conv, _ := ctrl.Store().Get(other.ID); len(conv.Messages) != 0 {
		t.Fatalf("ignored send appended a message")
	}
	conv, _ := ctrl.Store().Get(turn.ConversationID)
	if conv.Messages[0].Status != conversation.StatusPending {
		t.Fatalf("optimistic message status = %q, want pending", conv.Messages[0].Status)
	}

	if _, err := ctrl.Complete(ctrl.Call(context.Background(), turn)); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, ok := ctrl.Begin("second", other.ID); !ok {
		t.Fatalf("Begin after completion ignored")
	}
}

func TestCompleteAfterConversationDeleted(t *testing.T) {
	ctrl := newController(t, &scriptedCaller{}, nil)
	turn, _ := ctrl.Begin("hi", "")
	if err := ctrl.Store().Delete(turn.ConversationID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := ctrl.Complete(ctrl.Call(context.Background(), turn))
	if !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Fatalf("Complete() error = %v, want ErrConversationNotFound", err)
	}
	if ctrl.InFlight() || ctrl.BusyAgent() != "" {
		t.Fatalf("flags not cleared when conversation vanished")
	}
}

func TestResetDropsStaleOutcome(t *testing.T) {
	ctrl := newController(t, &scriptedCaller{}, nil)
	stale, _ := ctrl.Begin("old", "")
	outcome := ctrl.Call(context.Background(), stale)
	ctrl.Reset()
	if ctrl.Store().Len() != 0 || ctrl.InFlight() {
		t.Fatalf("Reset left state behind")
	}
	fresh, ok := ctrl.Begin("new", "")
	if !ok {
		t.Fatalf("Begin after reset ignored")
	}
	if _, err := ctrl.Complete(outcome); err == nil {
		t.Fatalf("stale outcome was applied")
	}
	if !ctrl.InFlight() || ctrl.Flight().Seq != fresh.Seq {
		t.Fatalf("stale outcome released the new flight: %#v", ctrl.Flight())
	}
}

func TestRetryResendsPrecedingUserText(t *testing.T) {
	caller := &scriptedCaller{results: []agent.Result{{Error: "boom"}}}
	ctrl := newController(t, caller, nil)
	ctx := context.Background()
	failed, _ := ctrl.Send(ctx, "A", "")

	reply, ok := ctrl.Retry(ctx, failed.ID)
	if !ok {
		t.Fatalf("Retry() did not resend")
	}
	if reply.Content != "ok" {
		t.Fatalf("retry reply = %q, want ok", reply.Content)
	}
	calls := caller.Calls()
	if len(calls) != 2 || calls[1].message != "A" {
		t.Fatalf("calls = %#v", calls)
	}
	conv, _ := ctrl.Store().Active()
	for _, m := range conv.Messages {
		if m.ID == failed.ID {
			t.Fatalf("failed message still present")
		}
	}
	if got := strings.Join(contents(conv), "|"); got != "user:A|user:A|assistant:ok" {
		t.Fatalf("messages = %q", got)
	}
}

func TestRetryWithoutUserMessageOnlyRemoves(t *testing.T) {
	caller := &scriptedCaller{}
	ctrl := newController(t, caller, nil)
	conv := ctrl.Store().Create()
	failed := conversation.Message{ID: "err1", Role: conversation.RoleAssistant, Content: "x", Status: conversation.StatusFailed}
	if err := ctrl.Store().Append(conv.ID, failed); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	plan, ok := ctrl.PrepareRetry("err1")
	if !ok || plan.Resend {
		t.Fatalf("PrepareRetry() = %#v, %v; want removal without resend", plan, ok)
	}
	if _, ok := ctrl.Retry(context.Background(), "err1"); ok {
		t.Fatalf("second Retry() resent")
	}
	got, _ := ctrl.Store().Get(conv.ID)
	if len(got.Messages) != 0 {
		t.Fatalf("messages = %#v, want none", got.Messages)
	}
	if len(caller.Calls()) != 0 {
		t.Fatalf("retry without user message called the agent")
	}
}

func TestPrepareRetryRejectsNonFailedMessages(t *testing.T) {
	ctrl := newController(t, &scriptedCaller{}, nil)
	reply, _ := ctrl.Send(context.Background(), "A", "")
	if _, ok := ctrl.PrepareRetry(reply.ID); ok {
		t.Fatalf("PrepareRetry accepted a confirmed reply")
	}
	if _, ok := ctrl.PrepareRetry("missing"); ok {
		t.Fatalf("PrepareRetry accepted an unknown id")
	}
	conv, _ := ctrl.Store().Active()
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(conv.Messages))
	}
}

func TestRetryHonoursContext(t *testing.T) {
	caller := &scriptedCaller{results: []agent.Result{{Error: "boom"}}}
	ctrl := newController(t, caller, nil)
	failed, _ := ctrl.Send(context.Background(), "A", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := ctrl.Retry(ctx, failed.ID); ok {
		t.Fatalf("Retry() resent after cancellation")
	}
	if len(caller.Calls()) != 1 {
		t.Fatalf("calls = %d, want 1", len(caller.Calls()))
	}
}

func TestLifecycleEvents(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe()
	caller := &scriptedCaller{results: []agent.Result{{Error: "boom"}}}
	ctrl := newController(t, caller, bus)
	ctx := context.Background()
	failed, _ := ctrl.Send(ctx, "A", "")
	ctrl.Retry(ctx, failed.ID)
	bus.Close()

	var got []string
	for evt := range ch {
		got = append(got, string(evt.Type))
	}
	want := []string{
		"message.appended", "turn.started", "message.appended", "turn.failed",
		"message.removed", "retry.scheduled",
		"message.appended", "turn.started", "message.appended", "turn.completed",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{Caller: &scriptedCaller{}}); err == nil {
		t.Fatalf("New() without store succeeded")
	}
	if _, err := New(Options{Store: conversation.NewStore(conversation.Options{})}); err == nil {
		t.Fatalf("New() without caller succeeded")
	}
	ctrl, err := New(Options{Store: conversation.NewStore(conversation.Options{}), Caller: &scriptedCaller{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ctrl.RetryDelay() != DefaultRetryDelay || ctrl.AgentID() != agent.AgentID {
		t.Fatalf("defaults = %v %q", ctrl.RetryDelay(), ctrl.AgentID())
	}
}
