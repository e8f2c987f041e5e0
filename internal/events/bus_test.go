package events

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"agentchat/internal/logger"

	"github.com/sirupsen/logrus"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Publish(Event{Type: EventTurnStarted, ConversationID: "c1"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case evt := <-ch:
			if evt.Type != EventTurnStarted || evt.ConversationID != "c1" {
				t.Fatalf("event = %#v", evt)
			}
		default:
			t.Fatalf("subscriber did not receive event")
		}
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus()
	_ = bus.Subscribe()
	for i := 0; i < DefaultBuffer+5; i++ {
		bus.Publish(Event{Type: EventMessageAppended})
	}
	if got := bus.Dropped(); got != 5 {
		t.Fatalf("Dropped() = %d, want 5", got)
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Close()
	bus.Publish(Event{Type: EventTurnStarted})
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("Subscribe after Close should return a closed channel")
	}
	var nilBus *Bus
	nilBus.Publish(Event{})
}

func TestRunLogSinkWritesJSONPayload(t *testing.T) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetFormatter(logger.PlainFormatter{})
	l.SetOutput(buf)
	entry := logrus.NewEntry(l).WithField("component", "conversation")

	bus := NewBus()
	done := make(chan struct{})
	go func() {
		RunLogSink(context.Background(), bus, entry)
		close(done)
	}()
	// 等待订阅建立
	deadline := time.Now().Add(time.Second)
	for {
		bus.mu.Lock()
		n := len(bus.subs)
		bus.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("sink never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	bus.Publish(Event{
		Type:           EventTurnCompleted,
		ConversationID: "c1",
		SessionID:      "s1",
		Payload:        TurnPayload{AgentID: "a1", Text: "pong"},
	})
	bus.Close()
	<-done

	out := buf.String()
	if !strings.Contains(out, "[conversation] [type=turn.completed] [conv=c1] conversation event") {
		t.Fatalf("missing event line, got %q", out)
	}
	if !strings.Contains(out, `payload={"agent_id":"a1","text":"pong"}`) {
		t.Fatalf("missing json payload, got %q", out)
	}
	if !strings.Contains(out, "session_id=s1") {
		t.Fatalf("missing session id, got %q", out)
	}
}

func TestEncodePayload(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{in: nil, want: ""},
		{in: "  raw  ", want: "raw"},
		{in: RetryPayload{Text: "A", DelayMs: 50}, want: `{"text":"A","delay_ms":50}`},
	}
	for _, tc := range cases {
		if got := encodePayload(tc.in); got != tc.want {
			t.Fatalf("encodePayload(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
