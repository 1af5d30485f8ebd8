package model

// ChatTurn is a prior turn supplied by the client in the request body.
// The web client keeps its transcript locally and replays it; for
// authenticated callers a conversation ID can be sent instead and the
// server loads history from the store.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query            string     `json:"query"`
	Messages         []ChatTurn `json:"messages,omitempty"`
	ConversationID   string     `json:"conversation_id,omitempty"`
	AIMode           string     `json:"aiMode,omitempty"`
	SelectedLanguage string     `json:"selectedLanguage,omitempty"`
	Stream           bool       `json:"stream,omitempty"`
}

// ChatResponse is the non-streaming success body of POST /chat.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id,omitempty"`
	Persisted      *bool  `json:"persisted,omitempty"`
}

// QuotaDeniedResponse is the 403 body returned when the request gate
// rejects a prompt. Reason is machine-checkable so the client can show
// an upgrade prompt instead of a generic error.
type QuotaDeniedResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}
