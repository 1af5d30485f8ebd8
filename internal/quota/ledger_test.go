package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptly-ai/chat-gateway/internal/model"
	"github.com/promptly-ai/chat-gateway/internal/store"
	"github.com/promptly-ai/chat-gateway/pkg/logger"
)

func newTestLedger(t *testing.T, now time.Time) (*Ledger, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	l := NewLedger(s, logger.NewNop())
	l.now = func() time.Time { return now }
	return l, s
}

func seedProfile(t *testing.T, s *store.MemoryStore, used int, resetDate string) *model.Profile {
	t.Helper()
	p := &model.Profile{
		ID:                    "u1",
		Email:                 "u1@example.com",
		Tier:                  model.TierFree,
		DailyPromptsUsed:      used,
		DailyPromptsResetDate: resetDate,
	}
	require.NoError(t, s.CreateProfile(context.Background(), p))
	return p
}

func TestLedgerResetOnNewDay(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	l, s := newTestLedger(t, now)
	p := seedProfile(t, s, 5, "2026-03-01")

	require.NoError(t, l.CheckAndReset(context.Background(), p))

	assert.Equal(t, 0, p.DailyPromptsUsed)
	assert.Equal(t, "2026-03-02", p.DailyPromptsResetDate)

	stored, err := s.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.DailyPromptsUsed)
	assert.Equal(t, "2026-03-02", stored.DailyPromptsResetDate)
}

func TestLedgerNoResetSameDay(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	l, s := newTestLedger(t, now)
	p := seedProfile(t, s, 3, "2026-03-02")

	require.NoError(t, l.CheckAndReset(context.Background(), p))

	assert.Equal(t, 3, p.DailyPromptsUsed)

	stored, err := s.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.DailyPromptsUsed)
}

func TestLedgerResetUsesUTCDate(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, loc)
	l, s := newTestLedger(t, now)
	p := seedProfile(t, s, 5, "2026-03-01")

	require.NoError(t, l.CheckAndReset(context.Background(), p))

	assert.Equal(t, "2026-03-02", p.DailyPromptsResetDate)
	assert.Equal(t, 0, p.DailyPromptsUsed)
}

func TestLedgerResetLostRaceStillZeroesInMemory(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	l, s := newTestLedger(t, now)
	p := seedProfile(t, s, 5, "2026-03-01")

	// Another request already applied today's reset in the store.
	applied, err := s.ResetDailyQuota(context.Background(), "u1", "2026-03-02")
	require.NoError(t, err)
	require.True(t, applied)

	// The in-memory copy still carries yesterday's state.
	require.NoError(t, l.CheckAndReset(context.Background(), p))
	assert.Equal(t, 0, p.DailyPromptsUsed)
	assert.Equal(t, "2026-03-02", p.DailyPromptsResetDate)
}

func TestLedgerIncrement(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	l, s := newTestLedger(t, now)
	p := seedProfile(t, s, 2, "2026-03-02")

	require.NoError(t, l.Increment(context.Background(), p))

	assert.Equal(t, 3, p.DailyPromptsUsed)

	stored, err := s.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.DailyPromptsUsed)
}

func TestLedgerIncrementUnknownUser(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(t, now)
	p := &model.Profile{ID: "ghost", DailyPromptsUsed: 1}

	err := l.Increment(context.Background(), p)
	assert.ErrorIs(t, err, store.ErrNotFound)
	// The in-memory counter must not move when the store write failed.
	assert.Equal(t, 1, p.DailyPromptsUsed)
}
