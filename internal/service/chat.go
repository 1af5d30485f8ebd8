// Package service provides business logic for the chat gateway.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promptly-ai/chat-gateway/internal/events"
	"github.com/promptly-ai/chat-gateway/internal/llm"
	"github.com/promptly-ai/chat-gateway/internal/model"
	"github.com/promptly-ai/chat-gateway/internal/prompt"
	"github.com/promptly-ai/chat-gateway/internal/quota"
	"github.com/promptly-ai/chat-gateway/internal/store"
	"github.com/promptly-ai/chat-gateway/pkg/logger"
	"github.com/promptly-ai/chat-gateway/pkg/metrics"
)

// ErrClientGone is returned when the client disconnected mid-stream.
// The truncated exchange is not counted or persisted unless partial
// persistence is enabled.
var ErrClientGone = errors.New("service: client disconnected")

// ChatOptions configures the chat pipeline.
type ChatOptions struct {
	HistoryWindow         int
	LLMTimeout            time.Duration
	MaxOutputTokens       int
	PersistPartialStreams bool
}

// ChatService runs the quota-gated chat request pipeline: resolve
// ledger state, gate, invoke the model, then increment and record.
type ChatService struct {
	store     store.Store
	llmClient llm.Client
	ledger    *quota.Ledger
	gate      *quota.Gate
	events    events.Publisher
	logger    *logger.Logger
	opts      ChatOptions
}

// NewChatService creates a new chat service. llmClient may be nil when
// no upstream credential is configured; requests then fail with a
// configuration error instead of at startup.
func NewChatService(
	s store.Store,
	llmClient llm.Client,
	ledger *quota.Ledger,
	gate *quota.Gate,
	pub events.Publisher,
	log *logger.Logger,
	opts ChatOptions,
) *ChatService {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = prompt.DefaultHistoryWindow
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 45 * time.Second
	}
	return &ChatService{
		store:     s,
		llmClient: llmClient,
		ledger:    ledger,
		gate:      gate,
		events:    pub,
		logger:    log,
		opts:      opts,
	}
}

// ChatResult is the outcome of a successful exchange.
type ChatResult struct {
	Response       string
	ConversationID string

	// Persisted is nil for anonymous callers (nothing to persist),
	// otherwise whether the exchange was durably recorded.
	Persisted *bool
}

// exchange carries per-request pipeline state.
type exchange struct {
	caller         quota.Caller
	profile        *model.Profile
	mode           prompt.Mode
	conversationID string
	query          string
	req            *llm.CompletionRequest
}

// Send runs the pipeline in single-shot mode.
func (s *ChatService) Send(ctx context.Context, caller quota.Caller, req *model.ChatRequest) (*ChatResult, error) {
	ex, err := s.prepare(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.invoke(ctx, ex, nil)
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, ex, resp, false), nil
}

// SendStream runs the pipeline in streaming mode, forwarding each text
// chunk to onChunk. The ledger increment and persistence happen exactly
// once, after the final chunk; a client disconnect mid-stream skips
// both unless partial persistence is enabled.
func (s *ChatService) SendStream(ctx context.Context, caller quota.Caller, req *model.ChatRequest, onChunk llm.StreamCallback) (*ChatResult, error) {
	ex, err := s.prepare(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	var partial strings.Builder
	resp, err := s.invoke(ctx, ex, func(chunk string, index int) error {
		partial.WriteString(chunk)
		return onChunk(chunk, index)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			if s.opts.PersistPartialStreams && partial.Len() > 0 {
				// The caller's context is dead; detach for the writes.
				s.finish(context.WithoutCancel(ctx), ex, &llm.CompletionResponse{
					Content: partial.String(),
					Model:   ex.req.Model,
				}, true)
			}
			return nil, ErrClientGone
		}
		return nil, err
	}

	return s.finish(ctx, ex, resp, true), nil
}

// prepare resolves the profile, applies the daily reset, and evaluates
// the gate before any model cost is incurred.
func (s *ChatService) prepare(ctx context.Context, caller quota.Caller, req *model.ChatRequest) (*exchange, error) {
	ex := &exchange{
		caller:         caller,
		mode:           prompt.ParseMode(req.AIMode),
		conversationID: req.ConversationID,
		query:          req.Query,
	}

	if caller.Authenticated {
		profile, err := s.store.GetProfile(ctx, caller.UserID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Token refers to a user without a profile row. Serve the
			// request ungated, as the original app does for profiles
			// that have not been provisioned yet.
			s.logger.Warn("no profile for authenticated user", zap.String("user_id", caller.UserID))
		case err != nil:
			return nil, err
		default:
			if err := s.ledger.CheckAndReset(ctx, profile); err != nil {
				return nil, err
			}
			decision := s.gate.Evaluate(caller, profile)
			if !decision.Allowed {
				metrics.QuotaDenialsTotal.WithLabelValues(string(profile.Tier)).Inc()
				metrics.ChatRequestsTotal.WithLabelValues(string(ex.mode), "denied").Inc()
				s.events.PublishQuotaDenied(ctx, &events.QuotaDenied{
					UserID:   profile.ID,
					Tier:     string(profile.Tier),
					Used:     profile.DailyPromptsUsed,
					Reason:   decision.Reason,
					DeniedAt: time.Now().UTC(),
				})
				return nil, quota.ErrLimitReached
			}
			ex.profile = profile
		}
	}

	history, err := s.history(ctx, ex, req)
	if err != nil {
		return nil, err
	}

	ex.req = &llm.CompletionRequest{
		SystemInstruction: prompt.SystemInstruction(ex.mode, req.SelectedLanguage),
		Messages:          prompt.BuildContext(history, req.Query, s.opts.HistoryWindow),
		MaxTokens:         s.opts.MaxOutputTokens,
	}
	return ex, nil
}

// history returns the prior turns for context assembly. When the
// client names a conversation it owns, the server-side transcript is
// authoritative; otherwise the client-supplied turns are used.
func (s *ChatService) history(ctx context.Context, ex *exchange, req *model.ChatRequest) ([]model.ChatTurn, error) {
	if req.ConversationID == "" || !ex.caller.Authenticated {
		return req.Messages, nil
	}

	if _, err := s.store.GetConversation(ctx, ex.caller.UserID, req.ConversationID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	return prompt.TurnsFromMessages(msgs), nil
}

// invoke executes the upstream model call under the request timeout.
func (s *ChatService) invoke(ctx context.Context, ex *exchange, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	if s.llmClient == nil {
		return nil, llm.ErrMissingAPIKey
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()

	start := time.Now()
	var resp *llm.CompletionResponse
	var err error
	if callback != nil {
		resp, err = s.llmClient.CompleteStream(callCtx, ex.req, callback)
	} else {
		resp, err = s.llmClient.Complete(callCtx, ex.req)
	}
	if err != nil {
		err = llm.Classify(err)
		if !errors.Is(err, context.Canceled) {
			metrics.RecordLLMRequest(s.llmClient.Name(), ex.req.Model, "error", time.Since(start).Seconds(), 0, 0)
			metrics.ChatRequestsTotal.WithLabelValues(string(ex.mode), "error").Inc()
			s.logger.Error("model invocation failed",
				zap.String("mode", string(ex.mode)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.RecordLLMRequest(s.llmClient.Name(), resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	metrics.ChatRequestsTotal.WithLabelValues(string(ex.mode), "success").Inc()
	return resp, nil
}

// finish runs the post-success hook: increment the ledger once, record
// the exchange, and emit the completion event. Persistence is best
// effort; failures are logged and surfaced as persisted=false without
// touching the already-delivered response.
func (s *ChatService) finish(ctx context.Context, ex *exchange, resp *llm.CompletionResponse, streamed bool) *ChatResult {
	result := &ChatResult{
		Response:       resp.Content,
		ConversationID: ex.conversationID,
	}

	if ex.caller.Authenticated {
		if ex.profile != nil {
			if err := s.ledger.Increment(ctx, ex.profile); err != nil {
				s.logger.Warn("quota increment failed",
					zap.String("user_id", ex.profile.ID),
					zap.Error(err),
				)
			}
		}

		persisted := s.recordExchange(ctx, ex, resp.Content, result)
		result.Persisted = &persisted
	}

	s.events.PublishExchangeCompleted(ctx, &events.ExchangeCompleted{
		UserID:         ex.caller.UserID,
		ConversationID: result.ConversationID,
		Mode:           string(ex.mode),
		Provider:       s.llmClient.Name(),
		Model:          resp.Model,
		TokensIn:       resp.TokensIn,
		TokensOut:      resp.TokensOut,
		LatencyMs:      resp.LatencyMs,
		Streamed:       streamed,
		CompletedAt:    time.Now().UTC(),
	})

	return result
}

// recordExchange lazily creates the conversation and appends both
// turns. Returns whether everything was durably written.
func (s *ChatService) recordExchange(ctx context.Context, ex *exchange, answer string, result *ChatResult) bool {
	if ex.conversationID == "" {
		conv := &model.Conversation{
			ID:        uuid.Must(uuid.NewV7()).String(),
			UserID:    ex.caller.UserID,
			Title:     model.DeriveTitle(ex.query),
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.store.CreateConversation(ctx, conv); err != nil {
			s.warnPersist(ex, "create conversation", err)
			return false
		}
		metrics.ConversationsTotal.Inc()
		ex.conversationID = conv.ID
		result.ConversationID = conv.ID
	}

	now := time.Now().UTC()
	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: ex.conversationID,
		Role:           model.RoleUser,
		Content:        ex.query,
		CreatedAt:      now,
	}
	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: ex.conversationID,
		Role:           model.RoleAssistant,
		Content:        answer,
		// Strictly after the user turn so creation order is stable.
		CreatedAt: now.Add(time.Millisecond),
	}

	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		s.warnPersist(ex, "append user turn", err)
		return false
	}
	if err := s.store.AppendMessage(ctx, assistantMsg); err != nil {
		s.warnPersist(ex, "append assistant turn", err)
		return false
	}
	return true
}

func (s *ChatService) warnPersist(ex *exchange, op string, err error) {
	metrics.PersistenceFailuresTotal.Inc()
	s.logger.Warn("exchange persistence failed",
		zap.String("op", op),
		zap.String("user_id", ex.caller.UserID),
		zap.String("conversation_id", ex.conversationID),
		zap.Error(err),
	)
}
