package handler

import (
	"errors"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/promptly-ai/chat-gateway/internal/middleware"
	"github.com/promptly-ai/chat-gateway/internal/prompt"
	"github.com/promptly-ai/chat-gateway/internal/service"
	"github.com/promptly-ai/chat-gateway/internal/store"
	"github.com/promptly-ai/chat-gateway/pkg/logger"
)

// ProfileHandler exposes the caller's profile and the public client
// configuration.
type ProfileHandler struct {
	service *service.ProfileService
	logger  *logger.Logger

	freeDailyLimit int
	guestLimit     int
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(svc *service.ProfileService, log *logger.Logger, freeDailyLimit, guestLimit int) *ProfileHandler {
	return &ProfileHandler{
		service:        svc,
		logger:         log,
		freeDailyLimit: freeDailyLimit,
		guestLimit:     guestLimit,
	}
}

// Me handles GET /api/v1/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	profile, err := h.service.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.logger.Error("failed to load profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// ClientConfig handles GET /config. It publishes the limits and
// vocabularies the web client needs so they are not hardcoded
// browser-side — including the guest ceiling the client enforces in
// local storage.
func (h *ProfileHandler) ClientConfig(w http.ResponseWriter, r *http.Request) {
	languages := prompt.Languages()
	sort.Strings(languages)

	writeJSON(w, http.StatusOK, map[string]any{
		"free_daily_prompt_limit": h.freeDailyLimit,
		"guest_prompt_limit":      h.guestLimit,
		"guest_counter_key":       "guestPromptCount",
		"modes":                   []string{"chat", "code", "translate", "summarize"},
		"languages":               languages,
	})
}
