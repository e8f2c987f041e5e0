package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"agentchat/internal/agent"
	"agentchat/internal/chat"
	"agentchat/internal/conversation"
	"agentchat/internal/events"
	"agentchat/internal/features"
	"agentchat/internal/ids"
	"agentchat/internal/tui/slash"
)

// scriptedInput 依次返回预设行，之后返回 io.EOF。
type scriptedInput struct {
	lines   []string
	history []string
	closed  bool
}

func (s *scriptedInput) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) AppendHistory(item string) { s.history = append(s.history, item) }
func (s *scriptedInput) Close() error              { s.closed = true; return nil }

type fakeCaller struct {
	mu      sync.Mutex
	results []agent.Result
	errs    []error
	calls   int
}

func (f *fakeCaller) Call(context.Context, string, string, agent.Options) (agent.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	i := f.calls - 1
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], err
	}
	return agent.Succeeded("ok"), err
}

type harness struct {
	session *Session
	input   *scriptedInput
	out     *bytes.Buffer
	store   *conversation.Store
	dir     string
}

func newHarness(t *testing.T, caller agent.Caller, lines ...string) *harness {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	bus := events.NewBus()
	store := conversation.NewStore(conversation.Options{IDs: ids.NewSequence("c"), Now: clock})
	ctl, err := chat.New(chat.Options{
		Store:      store,
		Caller:     caller,
		IDs:        ids.NewSequence("m"),
		RetryDelay: time.Millisecond,
		Now:        clock,
		Bus:        bus,
	})
	if err != nil {
		t.Fatalf("chat.New() error = %v", err)
	}
	in := &scriptedInput{lines: lines}
	out := &bytes.Buffer{}
	dir := t.TempDir()
	s, err := New(Options{
		Controller: ctl,
		Bus:        bus,
		AgentName:  "Chat Agent",
		Features:   features.NewSet(nil),
		ExportDir:  dir,
		Input:      in,
		Output:     out,
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &harness{session: s, input: in, out: out, store: store, dir: dir}
}

func (h *harness) run(t *testing.T) string {
	t.Helper()
	if err := h.session.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return stripANSI(h.out.String())
}

func TestNewRequiresControllerAndBus(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without controller")
	}
	store := conversation.NewStore(conversation.Options{})
	ctl, err := chat.New(chat.Options{Store: store, Caller: agent.EchoCaller{}})
	if err != nil {
		t.Fatalf("chat.New() error = %v", err)
	}
	if _, err := New(Options{Controller: ctl, Input: &scriptedInput{}}); err == nil {
		t.Fatalf("expected error without bus")
	}
}

func TestSessionSendPrintsThinkingAndReply(t *testing.T) {
	h := newHarness(t, &fakeCaller{results: []agent.Result{agent.Succeeded("**hi** there")}}, "hello", "/quit", "never read")
	out := h.run(t)

	for _, want := range []string{"Chat with Chat Agent", "/starter:help", ThinkingText("Chat Agent"), "hi there"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**") {
		t.Fatalf("reply should be rendered, got:\n%s", out)
	}
	if !h.input.closed {
		t.Fatalf("input should be closed")
	}
	if len(h.input.lines) != 1 {
		t.Fatalf("/quit should stop reading, remaining %v", h.input.lines)
	}
	if got := strings.Join(h.input.history, ","); got != "hello,/quit" {
		t.Fatalf("history = %q", got)
	}
	conv, ok := h.store.Active()
	if !ok || len(conv.Messages) != 2 {
		t.Fatalf("conversation = %+v", conv)
	}
}

func TestSessionRetryResendsFailedTurn(t *testing.T) {
	caller := &fakeCaller{errs: []error{errors.New("dial tcp: refused")}}
	h := newHarness(t, caller, "ping", "/retry")
	out := h.run(t)

	for _, want := range []string{agent.ConnectionFailureText, RetryHint, "↻ retrying: ping", "ok"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if caller.calls != 2 {
		t.Fatalf("calls = %d, want 2", caller.calls)
	}
	conv, _ := h.store.Active()
	if _, failed := conv.LatestFailed(); failed {
		t.Fatalf("failed reply should be gone: %+v", conv.Messages)
	}
}

func TestSessionRetryWithNothingFailed(t *testing.T) {
	h := newHarness(t, &fakeCaller{}, "/retry", "hello", "/retry")
	out := h.run(t)
	if !strings.Contains(out, "no active conversation") || !strings.Contains(out, "nothing to retry") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSessionStarterSendsText(t *testing.T) {
	h := newHarness(t, &fakeCaller{}, "/"+slash.Starters[1].Token())
	out := h.run(t)
	if !strings.Contains(out, "› "+slash.Starters[1].Text) {
		t.Fatalf("starter text not shown:\n%s", out)
	}
	conv, ok := h.store.Active()
	if !ok || conv.Messages[0].Content != slash.Starters[1].Text {
		t.Fatalf("conversation = %+v", conv)
	}
}

func TestSessionUnknownCommand(t *testing.T) {
	h := newHarness(t, &fakeCaller{}, "/nope")
	out := h.run(t)
	if !strings.Contains(out, slash.UnknownCommandMessage) {
		t.Fatalf("missing unknown command notice:\n%s", out)
	}
	if h.store.Len() != 0 {
		t.Fatalf("unknown command must not create conversations")
	}
}

func TestSessionDemoAndChats(t *testing.T) {
	h := newHarness(t, &fakeCaller{}, "/demo", "/chats", "/chats 2", "/chats 99")
	out := h.run(t)

	convs := h.store.List()
	if len(convs) < 2 {
		t.Fatalf("demo should load samples, got %d", len(convs))
	}
	if got, want := h.store.ActiveID(), convs[1].ID; got != want {
		t.Fatalf("active = %q, want %q", got, want)
	}
	for _, want := range []string{"sample conversations loaded", "/chats N switches conversation", "── " + convs[1].DisplayTitle() + " ──", "no conversation #99"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestSessionNewAndDelete(t *testing.T) {
	h := newHarness(t, &fakeCaller{}, "/new", "/delete", "/delete")
	out := h.run(t)
	if h.store.Len() != 0 {
		t.Fatalf("conversations = %d, want 0", h.store.Len())
	}
	for _, want := range []string{"started New conversation", "conversation deleted", "no active conversation"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestSessionExport(t *testing.T) {
	h := newHarness(t, &fakeCaller{}, "save me", "/export", "/export yaml")
	out := h.run(t)
	matches, err := filepath.Glob(filepath.Join(h.dir, "*.md"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("exports = %v, err = %v", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "save me") {
		t.Fatalf("export missing message:\n%s", data)
	}
	if !strings.Contains(out, `unsupported export format "yaml"`) {
		t.Fatalf("missing format error:\n%s", out)
	}
}

func TestSessionPanicResetsState(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { panic("clipboard exploded") }
	t.Cleanup(func() { writeClipboard = orig })

	h := newHarness(t, &fakeCaller{}, "hi", "/copy", "/status")
	out := h.run(t)

	for _, want := range []string{"something went wrong: clipboard exploded", "all conversations were cleared", "0 conversations"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if h.store.Len() != 0 {
		t.Fatalf("store should be empty after reset")
	}
}

func TestSessionStopsOnCancelledContext(t *testing.T) {
	h := newHarness(t, &fakeCaller{}, "hello")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.session.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.store.Len() != 0 {
		t.Fatalf("cancelled session should not send")
	}
}
