package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptly-ai/chat-gateway/internal/model"
)

func TestMemoryStoreProfileRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CreateProfile(ctx, &model.Profile{
		ID:    "u1",
		Email: "u1@example.com",
		Tier:  model.TierFree,
	}))

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", p.Email)

	// Returned profile is a copy; mutating it must not leak back.
	p.DailyPromptsUsed = 99
	again, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.DailyPromptsUsed)
}

func TestMemoryStoreResetDailyQuotaConditional(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateProfile(ctx, &model.Profile{
		ID:                    "u1",
		DailyPromptsUsed:      5,
		DailyPromptsResetDate: "2026-03-01",
	}))

	applied, err := s.ResetDailyQuota(ctx, "u1", "2026-03-02")
	require.NoError(t, err)
	assert.True(t, applied)

	// Second attempt for the same day is a no-op.
	applied, err = s.ResetDailyQuota(ctx, "u1", "2026-03-02")
	require.NoError(t, err)
	assert.False(t, applied)

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.DailyPromptsUsed)
	assert.Equal(t, "2026-03-02", p.DailyPromptsResetDate)
}

func TestMemoryStoreIncrementDailyQuota(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateProfile(ctx, &model.Profile{ID: "u1"}))
	require.NoError(t, s.IncrementDailyQuota(ctx, "u1"))
	require.NoError(t, s.IncrementDailyQuota(ctx, "u1"))

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.DailyPromptsUsed)

	assert.ErrorIs(t, s.IncrementDailyQuota(ctx, "ghost"), ErrNotFound)
}

func TestMemoryStoreConversationOwnership(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateConversation(ctx, &model.Conversation{
		ID:     "c1",
		UserID: "u1",
		Title:  "first",
	}))

	_, err := s.GetConversation(ctx, "u1", "c1")
	require.NoError(t, err)

	// Other users cannot see or mutate it.
	_, err = s.GetConversation(ctx, "u2", "c1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.RenameConversation(ctx, "u2", "c1", "stolen"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteConversation(ctx, "u2", "c1"), ErrNotFound)
}

func TestMemoryStoreListConversationsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, s.CreateConversation(ctx, &model.Conversation{
			ID:        id,
			UserID:    "u1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.CreateConversation(ctx, &model.Conversation{
		ID:     "other",
		UserID: "u2",
	}))

	out, err := s.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "c3", out[0].ID)
	assert.Equal(t, "c1", out[2].ID)
}

func TestMemoryStoreDeleteConversationRemovesMessages(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateConversation(ctx, &model.Conversation{ID: "c1", UserID: "u1"}))
	require.NoError(t, s.AppendMessage(ctx, &model.Message{ID: "m1", ConversationID: "c1", Role: model.RoleUser, Content: "hi"}))
	require.NoError(t, s.AppendMessage(ctx, &model.Message{ID: "m2", ConversationID: "c1", Role: model.RoleAssistant, Content: "hello"}))

	msgs, err := s.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)

	require.NoError(t, s.DeleteConversation(ctx, "u1", "c1"))

	msgs, err = s.ListMessages(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
