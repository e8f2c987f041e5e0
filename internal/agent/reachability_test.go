package agent

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestCheckReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	open := fmt.Sprintf("http://127.0.0.1:%d/chat", ln.Addr().(*net.TCPAddr).Port)

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	refused := fmt.Sprintf("http://127.0.0.1:%d/chat", closed.Addr().(*net.TCPAddr).Port)
	_ = closed.Close()

	cases := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "empty is skipped", url: ""},
		{name: "listening", url: open},
		{name: "refused", url: refused, wantErr: true},
		{name: "invalid", url: "://bad", wantErr: true},
		{name: "no host", url: "http://", wantErr: true},
		{name: "bad scheme", url: "ftp://example.com", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			err := CheckReachable(ctx, tc.url)
			if (err != nil) != tc.wantErr {
				t.Fatalf("CheckReachable(%q) error = %v, wantErr %v", tc.url, err, tc.wantErr)
			}
		})
	}
}
