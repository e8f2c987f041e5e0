// Package ids 生成会话、消息与 session 关联所用的不透明标识。
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces unique opaque identifiers.
type Generator interface {
	NewID() string
}

// UUID generates random v4 identifiers.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence 生成可预测的 id，用于测试与示例数据。
type Sequence struct {
	Prefix string

	mu   sync.Mutex
	next int
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{Prefix: prefix}
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("%s%d", s.Prefix, s.next)
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }
