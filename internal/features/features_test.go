package features

import (
	"reflect"
	"testing"
)

func TestSpecsLookup(t *testing.T) {
	if !IsKnown(SyntaxHighlight) || IsKnown("undo") {
		t.Fatalf("IsKnown mismatch")
	}
	if got := StageFor(AltScreen); got != StageBeta {
		t.Fatalf("StageFor(alt_screen) = %q, want beta", got)
	}
	if got := StageFor("missing"); got != StageExperimental {
		t.Fatalf("StageFor(missing) = %q, want experimental", got)
	}
	if !DefaultEnabled(Timestamps) || DefaultEnabled(DemoOnStart) || DefaultEnabled("missing") {
		t.Fatalf("DefaultEnabled mismatch")
	}
}

func TestSetOverrides(t *testing.T) {
	s := NewSet(map[string]bool{
		SyntaxHighlight: false,
		DemoOnStart:     true,
		"bogus":         true,
	})
	if s.Enabled(SyntaxHighlight) || !s.Enabled(DemoOnStart) || !s.Enabled(Timestamps) || s.Enabled("bogus") {
		t.Fatalf("Enabled mismatch: %v", s.EnabledKeys())
	}
	want := []string{DemoOnStart, Timestamps}
	if got := s.EnabledKeys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("EnabledKeys() = %v, want %v", got, want)
	}
}
