package quota

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/promptly-ai/chat-gateway/internal/model"
	"github.com/promptly-ai/chat-gateway/internal/store"
	"github.com/promptly-ai/chat-gateway/pkg/logger"
)

// Ledger tracks per-user daily prompt counts over the durable store.
type Ledger struct {
	store  store.Store
	logger *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewLedger creates a ledger over the given store.
func NewLedger(s store.Store, log *logger.Logger) *Ledger {
	return &Ledger{
		store:  s,
		logger: log,
		now:    time.Now,
	}
}

// CheckAndReset applies the once-per-day counter reset if the
// profile's reset date is not today, persisting it atomically and
// updating the in-memory profile so the caller's subsequent limit
// check observes the reset rather than yesterday's count.
func (l *Ledger) CheckAndReset(ctx context.Context, profile *model.Profile) error {
	today := model.QuotaDate(l.now())
	if profile.DailyPromptsResetDate == today {
		return nil
	}

	reset, err := l.store.ResetDailyQuota(ctx, profile.ID, today)
	if err != nil {
		return err
	}
	if reset {
		l.logger.Debug("daily quota reset",
			zap.String("user_id", profile.ID),
			zap.String("reset_date", today),
		)
	}

	// Another request may have won the conditional update; either way
	// the stored counter is now zeroed for today.
	profile.DailyPromptsUsed = 0
	profile.DailyPromptsResetDate = today
	return nil
}

// Increment records one consumed prompt. Called exactly once per
// successful exchange, after the model call, never on denial or model
// failure.
func (l *Ledger) Increment(ctx context.Context, profile *model.Profile) error {
	if err := l.store.IncrementDailyQuota(ctx, profile.ID); err != nil {
		return err
	}
	profile.DailyPromptsUsed++
	return nil
}
