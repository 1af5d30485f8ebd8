package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/promptly-ai/chat-gateway/internal/model"
)

// MemoryStore is an in-memory Store used in tests and local runs
// without Postgres. It mirrors GormStore's semantics, including the
// conditional daily reset.
type MemoryStore struct {
	mu            sync.RWMutex
	profiles      map[string]*model.Profile
	conversations map[string]*model.Conversation
	messages      map[string][]model.Message
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:      make(map[string]*model.Profile),
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]model.Message),
	}
}

// GetProfile returns the profile for a user.
func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// CreateProfile inserts a new profile.
func (s *MemoryStore) CreateProfile(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.profiles[p.ID] = &cp
	return nil
}

// ResetDailyQuota zeroes the counter iff the stored reset date differs
// from today.
func (s *MemoryStore) ResetDailyQuota(_ context.Context, userID, today string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return false, nil
	}
	if p.DailyPromptsResetDate == today {
		return false, nil
	}
	p.DailyPromptsUsed = 0
	p.DailyPromptsResetDate = today
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

// IncrementDailyQuota adds one to the daily counter.
func (s *MemoryStore) IncrementDailyQuota(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.DailyPromptsUsed++
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// CreateConversation inserts a new conversation.
func (s *MemoryStore) CreateConversation(_ context.Context, c *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.conversations[c.ID] = &cp
	return nil
}

// GetConversation returns a conversation owned by the user.
func (s *MemoryStore) GetConversation(_ context.Context, userID, conversationID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[conversationID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *MemoryStore) ListConversations(_ context.Context, userID string) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Conversation
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// RenameConversation updates the title of an owned conversation.
func (s *MemoryStore) RenameConversation(_ context.Context, userID, conversationID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	c.Title = title
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteConversation removes an owned conversation and its messages.
func (s *MemoryStore) DeleteConversation(_ context.Context, userID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(s.conversations, conversationID)
	delete(s.messages, conversationID)
	return nil
}

// AppendMessage inserts a message.
func (s *MemoryStore) AppendMessage(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

// ListMessages returns a conversation's messages in creation order.
func (s *MemoryStore) ListMessages(_ context.Context, conversationID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
