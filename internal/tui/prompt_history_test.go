package tui

import (
	"fmt"
	"testing"
)

func TestPromptHistoryBrowseRestoresDraft(t *testing.T) {
	var h promptHistory
	h.Add("first")
	h.Add("second")

	got, ok := h.Prev("draft")
	if !ok || got != "second" {
		t.Fatalf("Prev() = %q, %v, want %q", got, ok, "second")
	}
	got, _ = h.Prev("ignored")
	if got != "first" {
		t.Fatalf("Prev() = %q, want %q", got, "first")
	}
	got, _ = h.Prev("ignored")
	if got != "first" {
		t.Fatalf("Prev() at oldest = %q, want %q", got, "first")
	}
	got, _ = h.Next()
	if got != "second" {
		t.Fatalf("Next() = %q, want %q", got, "second")
	}
	got, _ = h.Next()
	if got != "draft" {
		t.Fatalf("Next() past newest = %q, want draft", got)
	}
	if h.Browsing() {
		t.Fatalf("Browsing() = true after returning to draft")
	}
	if _, ok := h.Next(); ok {
		t.Fatalf("Next() when not browsing should report false")
	}
}

func TestPromptHistorySkipsBlankAndDuplicates(t *testing.T) {
	var h promptHistory
	h.Add("  ")
	h.Add("same")
	h.Add("same ")
	if len(h.entries) != 1 {
		t.Fatalf("entries = %q, want one entry", h.entries)
	}
}

func TestPromptHistoryLimit(t *testing.T) {
	var h promptHistory
	for i := 0; i < promptHistoryLimit+5; i++ {
		h.Add(fmt.Sprintf("p%d", i))
	}
	if len(h.entries) != promptHistoryLimit {
		t.Fatalf("entries = %d, want %d", len(h.entries), promptHistoryLimit)
	}
	if h.entries[0] != "p5" {
		t.Fatalf("oldest = %q, want p5", h.entries[0])
	}
}
