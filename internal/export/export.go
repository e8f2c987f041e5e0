// Package export 将会话写出为 JSON 或 Markdown 文件（只写不读）。
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentchat/internal/conversation"
)

type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "md", "markdown" and "json"; empty means Markdown.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q", raw)
}

type record struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	SessionID  string                 `json:"session_id"`
	CreatedAt  time.Time              `json:"created_at"`
	ExportedAt time.Time              `json:"exported_at"`
	Messages   []conversation.Message `json:"messages"`
}

func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".agentchat", "exports"), nil
}

func WriteJSON(w io.Writer, conv conversation.Conversation, now time.Time) error {
	rec := record{
		ID:         conv.ID,
		Title:      conv.DisplayTitle(),
		SessionID:  conv.SessionID,
		CreatedAt:  conv.CreatedAt,
		ExportedAt: now,
		Messages:   conv.Messages,
	}
	if rec.Messages == nil {
		rec.Messages = []conversation.Message{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// WriteMarkdown writes a readable transcript; assistant content is kept as
// the raw markdown the agent produced.
func WriteMarkdown(w io.Writer, conv conversation.Conversation, agentName string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", conv.DisplayTitle())
	fmt.Fprintf(&b, "_Started %s_\n", conv.CreatedAt.Format("2006-01-02 15:04"))
	for _, m := range conv.Messages {
		who := "You"
		if m.Role == conversation.RoleAssistant {
			who = agentName
		}
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "**%s** · %s", who, m.Timestamp.Format("15:04"))
		if m.Status == conversation.StatusFailed {
			b.WriteString(" · failed")
		}
		b.WriteString("\n\n")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Save writes conv under dir (DefaultDir when empty) and returns the path.
func Save(dir string, conv conversation.Conversation, format Format, agentName string, now time.Time) (string, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fileName(conv.ID)+"."+string(format))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatJSON:
		err = WriteJSON(f, conv, now)
	default:
		err = WriteMarkdown(f, conv, agentName)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// fileName 去掉路径分隔符等不安全字符。
func fileName(id string) string {
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
	if id == "" {
		return "conversation"
	}
	return id
}
