// Package store provides durable persistence for profiles,
// conversations, and messages.
package store

import (
	"context"
	"errors"

	"github.com/promptly-ai/chat-gateway/internal/model"
)

// ErrNotFound is returned when a record does not exist or is not owned
// by the caller.
var ErrNotFound = errors.New("store: not found")

// Store defines persistence operations for the chat gateway.
//
// ResetDailyQuota and IncrementDailyQuota are single-statement
// conditional updates so concurrent requests racing on the same
// counter cannot lose writes.
type Store interface {
	// profiles
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	CreateProfile(ctx context.Context, p *model.Profile) error

	// ResetDailyQuota zeroes the counter iff the stored reset date
	// differs from today. Returns true when a reset was applied.
	ResetDailyQuota(ctx context.Context, userID, today string) (bool, error)

	// IncrementDailyQuota adds one to the daily counter.
	IncrementDailyQuota(ctx context.Context, userID string) error

	// conversations
	CreateConversation(ctx context.Context, c *model.Conversation) error
	GetConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	RenameConversation(ctx context.Context, userID, conversationID, title string) error
	DeleteConversation(ctx context.Context, userID, conversationID string) error

	// messages
	AppendMessage(ctx context.Context, m *model.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}
