package conversation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"agentchat/internal/ids"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrDuplicateMessage     = errors.New("duplicate message id")
)

type Options struct {
	IDs ids.Generator
	Now func() time.Time
}

// Store holds conversations newest-first plus the active selection.
//
// Each conversation keeps its messages in an arena addressed through an
// id index; removal tombstones the slot and the arena is compacted once
// tombstones outnumber live messages. All reads return copies.
type Store struct {
	mu      sync.RWMutex
	ids     ids.Generator
	now     func() time.Time
	threads []*thread
	byID    map[string]*thread
	active  string
}

type slot struct {
	msg  Message
	dead bool
}

type thread struct {
	id        string
	title     string
	sessionID string
	createdAt time.Time
	slots     []slot
	index     map[string]int
	live      int
}

func NewStore(opts Options) *Store {
	if opts.IDs == nil {
		opts.IDs = ids.UUID{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		ids:  opts.IDs,
		now:  opts.Now,
		byID: make(map[string]*thread),
	}
}

// Create prepends a new untitled conversation and makes it active.
func (s *Store) Create() Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	th := &thread{
		id:        s.ids.NewID(),
		sessionID: s.ids.NewID(),
		createdAt: s.now(),
		index:     make(map[string]int),
	}
	s.threads = append([]*thread{th}, s.threads...)
	s.byID[th.id] = th
	s.active = th.id
	return th.snapshot()
}

// Delete removes a conversation. Deleting the active one clears the selection.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrConversationNotFound)
	}
	delete(s.byID, id)
	for i, th := range s.threads {
		if th.id == id {
			s.threads = append(s.threads[:i], s.threads[i+1:]...)
			break
		}
	}
	if s.active == id {
		s.active = ""
	}
	return nil
}

// SetActive selects a conversation; an empty id clears the selection.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.active = ""
		return nil
	}
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("select %s: %w", id, ErrConversationNotFound)
	}
	s.active = id
	return nil
}

func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Store) Active() (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	th, ok := s.byID[s.active]
	if !ok {
		return Conversation{}, false
	}
	return th.snapshot(), true
}

func (s *Store) Get(id string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	th, ok := s.byID[id]
	if !ok {
		return Conversation{}, false
	}
	return th.snapshot(), true
}

// List returns all conversations, newest first.
func (s *Store) List() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conversation, 0, len(s.threads))
	for _, th := range s.threads {
		out = append(out, th.snapshot())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}

// Append adds msg at the end of the conversation.
func (s *Store) Append(conversationID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.byID[conversationID]
	if !ok {
		return fmt.Errorf("append to %s: %w", conversationID, ErrConversationNotFound)
	}
	if _, dup := th.index[msg.ID]; dup {
		return fmt.Errorf("append %s: %w", msg.ID, ErrDuplicateMessage)
	}
	th.index[msg.ID] = len(th.slots)
	th.slots = append(th.slots, slot{msg: msg})
	th.live++
	return nil
}

// RemoveMessage removes one message, keeping the order of the rest.
func (s *Store) RemoveMessage(conversationID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.byID[conversationID]
	if !ok {
		return fmt.Errorf("remove from %s: %w", conversationID, ErrConversationNotFound)
	}
	pos, ok := th.index[messageID]
	if !ok {
		return fmt.Errorf("remove %s: %w", messageID, ErrMessageNotFound)
	}
	th.slots[pos] = slot{dead: true}
	delete(th.index, messageID)
	th.live--
	if len(th.slots)-th.live > th.live {
		th.compact()
	}
	return nil
}

// SetStatus updates message metadata; content is never touched.
func (s *Store) SetStatus(conversationID, messageID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.byID[conversationID]
	if !ok {
		return fmt.Errorf("status on %s: %w", conversationID, ErrConversationNotFound)
	}
	pos, ok := th.index[messageID]
	if !ok {
		return fmt.Errorf("status %s: %w", messageID, ErrMessageNotFound)
	}
	th.slots[pos].msg.Status = status
	return nil
}

// SetTitle names the conversation once; later calls report false and keep
// the existing title.
func (s *Store) SetTitle(conversationID, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.byID[conversationID]
	if !ok {
		return false, fmt.Errorf("title %s: %w", conversationID, ErrConversationNotFound)
	}
	if th.title != "" || title == "" {
		return false, nil
	}
	th.title = title
	return true, nil
}

// Replace swaps the whole list and the active selection in one step.
// activeID must be empty or name one of convs.
func (s *Store) Replace(convs []Conversation, activeID string) error {
	threads := make([]*thread, 0, len(convs))
	byID := make(map[string]*thread, len(convs))
	for _, c := range convs {
		if _, dup := byID[c.ID]; dup {
			return fmt.Errorf("replace: duplicate conversation %s", c.ID)
		}
		th := fromSnapshot(c)
		threads = append(threads, th)
		byID[th.id] = th
	}
	if activeID != "" {
		if _, ok := byID[activeID]; !ok {
			return fmt.Errorf("replace: active %s: %w", activeID, ErrConversationNotFound)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = threads
	s.byID = byID
	s.active = activeID
	return nil
}

// Reset discards every conversation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = nil
	s.byID = make(map[string]*thread)
	s.active = ""
}

func fromSnapshot(c Conversation) *thread {
	th := &thread{
		id:        c.ID,
		title:     c.Title,
		sessionID: c.SessionID,
		createdAt: c.CreatedAt,
		slots:     make([]slot, 0, len(c.Messages)),
		index:     make(map[string]int, len(c.Messages)),
	}
	for _, m := range c.Messages {
		if _, dup := th.index[m.ID]; dup {
			continue
		}
		th.index[m.ID] = len(th.slots)
		th.slots = append(th.slots, slot{msg: m})
		th.live++
	}
	return th
}

func (th *thread) snapshot() Conversation {
	msgs := make([]Message, 0, th.live)
	for _, sl := range th.slots {
		if !sl.dead {
			msgs = append(msgs, sl.msg)
		}
	}
	return Conversation{
		ID:        th.id,
		Title:     th.title,
		Messages:  msgs,
		CreatedAt: th.createdAt,
		SessionID: th.sessionID,
	}
}

func (th *thread) compact() {
	slots := make([]slot, 0, th.live)
	index := make(map[string]int, th.live)
	for _, sl := range th.slots {
		if sl.dead {
			continue
		}
		index[sl.msg.ID] = len(slots)
		slots = append(slots, sl)
	}
	th.slots = slots
	th.index = index
}
