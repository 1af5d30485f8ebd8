package model

import (
	"time"
)

// Conversation is a chat thread owned by a user. It is created lazily
// on the first exchange when the client has no conversation selected.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TitleMaxLen is the number of leading characters of the opening
// prompt used as the conversation title.
const TitleMaxLen = 50

// DeriveTitle builds a conversation title from the opening user prompt.
func DeriveTitle(query string) string {
	runes := []rune(query)
	if len(runes) > TitleMaxLen {
		return string(runes[:TitleMaxLen])
	}
	return query
}

// RenameConversationRequest is the request to rename a conversation.
type RenameConversationRequest struct {
	Title string `json:"title"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
