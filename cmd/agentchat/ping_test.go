package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agentchat/internal/config"
)

func clearAgentEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AGENTCHAT_PROVIDER", "AGENTCHAT_URL", "AGENTCHAT_TOKEN", "AGENTCHAT_MODEL"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunPingHTTPProvider(t *testing.T) {
	clearAgentEnv(t)
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			http.Error(w, "missing auth", http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"response":{"result":{"response_text":"pong"}}}`))
	}))
	t.Cleanup(srv.Close)

	cfgPath := writeConfig(t, "provider = \"http\"\nurl = \""+srv.URL+"\"\ntoken = \"test-key\"\nagent_id = \"a-1\"\n")
	var out bytes.Buffer
	if err := runPing(rootArgs{}, []string{"--config", cfgPath, "--timeout", "5"}, &out); err != nil {
		t.Fatalf("runPing error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "ok (http): pong" {
		t.Fatalf("output = %q", out.String())
	}
	if got["message"] != "ping" || got["agent_id"] != "a-1" {
		t.Fatalf("request = %v", got)
	}
	if sid, _ := got["session_id"].(string); sid == "" {
		t.Fatalf("expected session_id in request: %v", got)
	}
}

func TestRunPingReportsAgentFailure(t *testing.T) {
	clearAgentEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"agent is busy"}`))
	}))
	t.Cleanup(srv.Close)

	cfgPath := writeConfig(t, "provider = \"http\"\nurl = \""+srv.URL+"\"\n")
	err := runPing(rootArgs{}, []string{"--config", cfgPath}, &bytes.Buffer{})
	if err == nil || err.Error() != "agent is busy" {
		t.Fatalf("err = %v, want agent is busy", err)
	}
}

func TestRunPingEchoProvider(t *testing.T) {
	clearAgentEnv(t)
	cfgPath := writeConfig(t, "provider = \"echo\"\n")
	var out bytes.Buffer
	if err := runPing(rootArgs{}, []string{"--config", cfgPath, "--message", "hello"}, &out); err != nil {
		t.Fatalf("runPing error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "ok (echo): echo: hello" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestBuildCallerFallsBackToEcho(t *testing.T) {
	cases := []struct {
		name     string
		provider string
		want     string
	}{
		{name: "http without url", provider: "http", want: "echo"},
		{name: "openai without key", provider: "openai", want: "echo"},
		{name: "anthropic without token", provider: "anthropic", want: "echo"},
		{name: "unknown", provider: "carrier-pigeon", want: "echo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearAgentEnv(t)
			caller, got := buildCaller(config.Config{Provider: tc.provider})
			if caller == nil || got != tc.want {
				t.Fatalf("buildCaller(%q) = %v, %q", tc.provider, caller, got)
			}
		})
	}
}
