package events

import "sync"

// DefaultBuffer 每个订阅者的缓存大小。
const DefaultBuffer = 32

// Bus is a non-blocking pub-sub for lifecycle events. A subscriber that
// falls behind loses events instead of stalling the publisher.
type Bus struct {
	mu      sync.Mutex
	subs    []chan Event
	buffer  int
	dropped int
	closed  bool
}

func NewBus() *Bus {
	return &Bus{buffer: DefaultBuffer}
}

func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	ch := make(chan Event, b.buffer)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.dropped++
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		close(ch)
	}
	b.closed = true
}
