package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/promptly-ai/chat-gateway/internal/llm"
	"github.com/promptly-ai/chat-gateway/internal/middleware"
	"github.com/promptly-ai/chat-gateway/internal/model"
	"github.com/promptly-ai/chat-gateway/internal/quota"
	"github.com/promptly-ai/chat-gateway/internal/service"
	"github.com/promptly-ai/chat-gateway/internal/store"
	"github.com/promptly-ai/chat-gateway/pkg/logger"
	"github.com/promptly-ai/chat-gateway/pkg/metrics"
)

// ChatHandler handles the chat pipeline endpoint.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger

	freeDailyLimit int
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService, log *logger.Logger, freeDailyLimit int) *ChatHandler {
	return &ChatHandler{
		chatService:    chatSvc,
		logger:         log,
		freeDailyLimit: freeDailyLimit,
	}
}

// Chat handles POST /chat. The caller may be authenticated or
// anonymous; with "stream": true the response body is plain text
// chunks, otherwise a JSON envelope.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	caller := quota.Caller{
		UserID:        middleware.GetUserID(ctx),
		Authenticated: middleware.IsAuthenticated(ctx),
	}

	if req.Stream {
		h.stream(w, r, caller, &req)
		return
	}

	result, err := h.chatService.Send(ctx, caller, &req)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ChatResponse{
		Response:       result.Response,
		ConversationID: result.ConversationID,
		Persisted:      result.Persisted,
	})
}

// stream writes the model output as flushed plain-text chunks with no
// per-chunk envelope. Errors after the first chunk can only be logged;
// the status line is already gone.
func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request, caller quota.Caller, req *model.ChatRequest) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.StreamsActive.Inc()
	defer metrics.StreamsActive.Dec()

	started := false
	result, err := h.chatService.SendStream(ctx, caller, req, func(chunk string, _ int) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := fmt.Fprint(w, chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	if err != nil {
		if errors.Is(err, service.ErrClientGone) {
			h.logger.Info("client disconnected mid-stream",
				zap.String("user_id", caller.UserID),
			)
			return
		}
		if !started {
			h.writeChatError(w, err)
			return
		}
		h.logger.Error("stream failed after first chunk", zap.Error(err))
		return
	}

	// A lazily-created conversation can't be reported in the streamed
	// body; clients that track history server-side send a
	// conversation_id up front or use the non-streaming shape.
	if result.Persisted != nil && !*result.Persisted {
		h.logger.Warn("streamed exchange not persisted", zap.String("user_id", caller.UserID))
	}
}

// writeChatError maps pipeline errors onto the HTTP failure taxonomy.
func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quota.ErrLimitReached):
		writeJSON(w, http.StatusForbidden, &model.QuotaDeniedResponse{
			Error:  fmt.Sprintf("Limit Reached. You have used your %d free daily prompts.", h.freeDailyLimit),
			Reason: quota.ReasonLimitReached,
		})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, llm.ErrMissingAPIKey):
		writeError(w, http.StatusInternalServerError, "Gemini API key not found. Please add GEMINI_API_KEY to your environment variables.")
	case errors.Is(err, llm.ErrInvalidAPIKey):
		writeError(w, http.StatusUnauthorized, "Invalid API key. Please check that your GEMINI_API_KEY is correct and has the proper permissions.")
	case errors.Is(err, llm.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "Permission denied. Please ensure your API key has access to the Gemini API.")
	case errors.Is(err, llm.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "The AI took too long to respond. Please try again.")
	default:
		h.logger.Error("chat request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get response from AI. Please try again.")
	}
}
