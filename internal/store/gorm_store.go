package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/promptly-ai/chat-gateway/internal/model"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&ProfileModel{}, &ConversationModel{}, &MessageModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// GetProfile returns the profile for a user.
func (s *GormStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var m ProfileModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return profileFromModel(m), nil
}

// CreateProfile inserts a new profile.
func (s *GormStore) CreateProfile(ctx context.Context, p *model.Profile) error {
	m := profileToModel(p)
	return s.db.WithContext(ctx).Create(&m).Error
}

// ResetDailyQuota zeroes the daily counter iff the stored reset date
// differs from today. The condition makes the reset happen exactly
// once per day even under concurrent requests.
func (s *GormStore) ResetDailyQuota(ctx context.Context, userID, today string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&ProfileModel{}).
		Where("id = ? AND daily_prompts_reset_date <> ?", userID, today).
		Updates(map[string]any{
			"daily_prompts_used":       0,
			"daily_prompts_reset_date": today,
			"updated_at":               time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IncrementDailyQuota adds one to the daily counter in a single
// statement, avoiding the read-then-write race.
func (s *GormStore) IncrementDailyQuota(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Model(&ProfileModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"daily_prompts_used": gorm.Expr("daily_prompts_used + 1"),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateConversation inserts a new conversation.
func (s *GormStore) CreateConversation(ctx context.Context, c *model.Conversation) error {
	m := conversationToModel(c)
	return s.db.WithContext(ctx).Create(&m).Error
}

// GetConversation returns a conversation owned by the user.
func (s *GormStore) GetConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	var m ConversationModel
	err := s.db.WithContext(ctx).
		First(&m, "id = ? AND user_id = ?", conversationID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	conv := conversationFromModel(m)
	return &conv, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *GormStore) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	var ms []ConversationModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Conversation, 0, len(ms))
	for _, m := range ms {
		out = append(out, conversationFromModel(m))
	}
	return out, nil
}

// RenameConversation updates the title of an owned conversation.
func (s *GormStore) RenameConversation(ctx context.Context, userID, conversationID, title string) error {
	res := s.db.WithContext(ctx).Model(&ConversationModel{}).
		Where("id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]any{
			"title":      title,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation removes an owned conversation and its messages.
func (s *GormStore) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", conversationID, userID).
			Delete(&ConversationModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("conversation_id = ?", conversationID).
			Delete(&MessageModel{}).Error
	})
}

// AppendMessage inserts a message.
func (s *GormStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	m := messageToModel(msg)
	return s.db.WithContext(ctx).Create(&m).Error
}

// ListMessages returns a conversation's messages in creation order.
func (s *GormStore) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var ms []MessageModel
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(ms))
	for _, m := range ms {
		out = append(out, messageFromModel(m))
	}
	return out, nil
}

// Ping verifies database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}
