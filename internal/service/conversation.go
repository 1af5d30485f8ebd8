package service

import (
	"context"

	"github.com/promptly-ai/chat-gateway/internal/model"
	"github.com/promptly-ai/chat-gateway/internal/store"
	"github.com/promptly-ai/chat-gateway/pkg/logger"
)

// ConversationService handles conversation management: the sidebar
// operations (list, rename, delete) and transcript retrieval. All
// operations are scoped to the owning user.
type ConversationService struct {
	store  store.Store
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(s store.Store, log *logger.Logger) *ConversationService {
	return &ConversationService{store: s, logger: log}
}

// List retrieves the user's conversations, newest first.
func (s *ConversationService) List(ctx context.Context, userID string) (*model.ListConversationsResponse, error) {
	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.ListConversationsResponse{
		Conversations: convs,
		Total:         len(convs),
	}, nil
}

// Get retrieves a conversation owned by the user.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	return s.store.GetConversation(ctx, userID, conversationID)
}

// Rename updates a conversation's title.
func (s *ConversationService) Rename(ctx context.Context, userID, conversationID, title string) error {
	return s.store.RenameConversation(ctx, userID, conversationID, title)
}

// Delete removes a conversation and its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	return s.store.DeleteConversation(ctx, userID, conversationID)
}

// Messages returns a conversation's transcript in creation order,
// after verifying ownership.
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID string) (*model.ListMessagesResponse, error) {
	if _, err := s.store.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &model.ListMessagesResponse{
		Messages: msgs,
		Total:    len(msgs),
	}, nil
}
