// Package demo 提供内置的示例会话，用于演示开关。
package demo

import (
	_ "embed"
	"fmt"
	"time"

	"agentchat/internal/conversation"

	"gopkg.in/yaml.v3"
)

//go:embed samples.yaml
var samplesYAML []byte

type sampleFile struct {
	Conversations []sampleConversation `yaml:"conversations"`
}

type sampleConversation struct {
	ID        string          `yaml:"id"`
	Title     string          `yaml:"title"`
	SessionID string          `yaml:"session_id"`
	Age       string          `yaml:"age"`
	Messages  []sampleMessage `yaml:"messages"`
}

type sampleMessage struct {
	ID      string `yaml:"id"`
	Role    string `yaml:"role"`
	Age     string `yaml:"age"`
	Content string `yaml:"content"`
}

// Samples returns the built-in conversations, newest first, with timestamps
// placed relative to now.
func Samples(now time.Time) ([]conversation.Conversation, error) {
	return parse(samplesYAML, now)
}

func parse(data []byte, now time.Time) ([]conversation.Conversation, error) {
	var file sampleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	out := make([]conversation.Conversation, 0, len(file.Conversations))
	for _, sc := range file.Conversations {
		createdAt, err := ago(now, sc.Age)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", sc.ID, err)
		}
		conv := conversation.Conversation{
			ID:        sc.ID,
			Title:     sc.Title,
			SessionID: sc.SessionID,
			CreatedAt: createdAt,
			Messages:  make([]conversation.Message, 0, len(sc.Messages)),
		}
		for _, sm := range sc.Messages {
			ts, err := ago(now, sm.Age)
			if err != nil {
				return nil, fmt.Errorf("sample %s/%s: %w", sc.ID, sm.ID, err)
			}
			role := conversation.Role(sm.Role)
			if role != conversation.RoleUser && role != conversation.RoleAssistant {
				return nil, fmt.Errorf("sample %s/%s: unknown role %q", sc.ID, sm.ID, sm.Role)
			}
			conv.Messages = append(conv.Messages, conversation.Message{
				ID:        sm.ID,
				Role:      role,
				Content:   sm.Content,
				Timestamp: ts,
				Status:    conversation.StatusConfirmed,
			})
		}
		out = append(out, conv)
	}
	return out, nil
}

func ago(now time.Time, age string) (time.Time, error) {
	if age == "" {
		return now, nil
	}
	d, err := time.ParseDuration(age)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}

// Toggle loads the samples into store (active = first sample) when on, and
// empties the store when off.
func Toggle(store *conversation.Store, on bool, now time.Time) error {
	if !on {
		return store.Replace(nil, "")
	}
	samples, err := Samples(now)
	if err != nil {
		return err
	}
	active := ""
	if len(samples) > 0 {
		active = samples[0].ID
	}
	return store.Replace(samples, active)
}
