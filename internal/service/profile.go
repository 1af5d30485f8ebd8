package service

import (
	"context"

	"github.com/promptly-ai/chat-gateway/internal/model"
	"github.com/promptly-ai/chat-gateway/internal/quota"
	"github.com/promptly-ai/chat-gateway/internal/store"
)

// ProfileService exposes the caller's profile with the quota ledger
// state as of now.
type ProfileService struct {
	store  store.Store
	ledger *quota.Ledger
}

// NewProfileService creates a new profile service.
func NewProfileService(s store.Store, ledger *quota.Ledger) *ProfileService {
	return &ProfileService{store: s, ledger: ledger}
}

// Get returns the profile after applying the lazy daily reset, so the
// client sees today's counter rather than yesterday's.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.CheckAndReset(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
