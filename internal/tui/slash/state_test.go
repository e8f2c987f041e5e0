package slash

import (
	"strings"
	"testing"
)

func TestSyncInputOpensOnSlashToken(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/ret", CursorLine: 0, CursorColumn: 4})
	if !state.Open() {
		t.Fatalf("expected slash popup to open")
	}
	if len(state.matches) == 0 || state.matches[0].item.Command != CommandRetry {
		t.Fatalf("first match = %+v, want /retry", state.matches)
	}
}

func TestSyncInputOpensOnBareSlash(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/", CursorLine: 0, CursorColumn: 1})
	if !state.Open() {
		t.Fatalf("expected slash popup to open on bare slash")
	}
	if got, want := len(state.matches), len(builtinItems())+len(Starters); got != want {
		t.Fatalf("matches = %d, want %d", got, want)
	}
}

func TestSyncInputIgnoresPathsAndBlocked(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/usr/bin", CursorColumn: 8})
	if state.Open() {
		t.Fatalf("path-like input should not open the popup")
	}
	state.SyncInput(Input{Value: "/new", CursorColumn: 4, Blocked: true})
	if state.Open() {
		t.Fatalf("blocked input should not open the popup")
	}
}

func TestHandleKeyTabCompletesBuiltin(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/exp", CursorLine: 0, CursorColumn: 4})
	action, handled := state.HandleKey("tab")
	if !handled {
		t.Fatalf("expected tab handled")
	}
	if action.Kind != ActionInsert {
		t.Fatalf("expected insert action, got %v", action.Kind)
	}
	if strings.TrimSpace(action.NewValue) != "/export" {
		t.Fatalf("unexpected inserted value: %q", action.NewValue)
	}
	if action.CursorColumn != len("/export ") {
		t.Fatalf("CursorColumn = %d, want %d", action.CursorColumn, len("/export "))
	}
}

func TestHandleKeyEnterDispatchesCommand(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/delete", CursorLine: 0, CursorColumn: 7})
	action, handled := state.HandleKey("enter")
	if !handled {
		t.Fatalf("expected enter handled")
	}
	if action.Kind != ActionSubmitCommand || action.Command != CommandDelete {
		t.Fatalf("unexpected action %+v", action)
	}
	if state.Open() {
		t.Fatalf("popup should close after submit")
	}
}

func TestStarterMatchesByName(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/brainstorm", CursorColumn: 11})
	action, handled := state.HandleKey("enter")
	if !handled {
		t.Fatalf("expected enter handled")
	}
	if action.Kind != ActionSubmitStarter || action.SubmitText != "Help me brainstorm ideas" {
		t.Fatalf("unexpected action %+v", action)
	}
}

func TestStarterTabInsertsText(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/starter:help", CursorColumn: 13})
	action, _ := state.HandleKey("tab")
	if action.Kind != ActionInsert || action.NewValue != "What can you help me with?" {
		t.Fatalf("unexpected action %+v", action)
	}
}

func TestResolveSubmit(t *testing.T) {
	state := NewState(Options{})
	cases := []struct {
		value   string
		kind    ActionKind
		command Command
		args    string
	}{
		{value: "/export json", kind: ActionSubmitCommand, command: CommandExport, args: "json"},
		{value: "/NEW", kind: ActionSubmitCommand, command: CommandNew},
		{value: "hello there", kind: ActionNone},
		{value: "/", kind: ActionNone},
		{value: "/nope", kind: ActionError},
		{value: "/starter:interesting", kind: ActionSubmitStarter},
	}
	for _, tc := range cases {
		action := state.ResolveSubmit(tc.value)
		if action.Kind != tc.kind || action.Command != tc.command || action.Args != tc.args {
			t.Fatalf("ResolveSubmit(%q) = %+v, want kind %v command %q args %q", tc.value, action, tc.kind, tc.command, tc.args)
		}
	}
}

func TestViewShowsSelection(t *testing.T) {
	state := NewState(Options{MaxLines: 3})
	state.SyncInput(Input{Value: "/", CursorColumn: 1})
	for i := 0; i < 4; i++ {
		state.HandleKey("down")
	}
	view := state.View(60)
	if !strings.Contains(view, "/demo") {
		t.Fatalf("view should scroll to the selected item, got %q", view)
	}
	if strings.Contains(view, "/new") {
		t.Fatalf("view should not show items above the window, got %q", view)
	}
}

func TestHelpListsCommandsAndStarters(t *testing.T) {
	lines := Help()
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"/retry", "/export", "/starter:brainstorm"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("Help() missing %q", want)
		}
	}
}
