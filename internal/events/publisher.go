// Package events publishes chat lifecycle events for downstream
// consumers (analytics, billing). Publishing is fire-and-forget and
// never affects the request outcome.
package events

import (
	"context"
	"time"
)

// ExchangeCompleted is emitted after a successful model exchange.
type ExchangeCompleted struct {
	UserID         string    `json:"user_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Mode           string    `json:"mode"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	TokensIn       int       `json:"tokens_in"`
	TokensOut      int       `json:"tokens_out"`
	LatencyMs      int64     `json:"latency_ms"`
	Streamed       bool      `json:"streamed"`
	CompletedAt    time.Time `json:"completed_at"`
}

// QuotaDenied is emitted when the request gate rejects a prompt.
type QuotaDenied struct {
	UserID   string    `json:"user_id"`
	Tier     string    `json:"tier"`
	Used     int       `json:"used"`
	Reason   string    `json:"reason"`
	DeniedAt time.Time `json:"denied_at"`
}

// Publisher emits chat lifecycle events.
type Publisher interface {
	PublishExchangeCompleted(ctx context.Context, evt *ExchangeCompleted)
	PublishQuotaDenied(ctx context.Context, evt *QuotaDenied)
	Close()
}

// NopPublisher discards all events. Used when no NATS URL is
// configured.
type NopPublisher struct{}

var _ Publisher = (*NopPublisher)(nil)

func (NopPublisher) PublishExchangeCompleted(context.Context, *ExchangeCompleted) {}
func (NopPublisher) PublishQuotaDenied(context.Context, *QuotaDenied)             {}
func (NopPublisher) Close()                                                       {}
