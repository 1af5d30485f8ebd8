package store

import (
	"time"

	"github.com/promptly-ai/chat-gateway/internal/model"
)

// GORM models used for persistence.
type ProfileModel struct {
	ID                    string    `gorm:"primaryKey"`
	Email                 string    `gorm:"uniqueIndex;not null"`
	Tier                  string    `gorm:"not null;default:free"`
	DailyPromptsUsed      int       `gorm:"not null;default:0"`
	DailyPromptsResetDate string    `gorm:"not null"`
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

func (ProfileModel) TableName() string { return "profiles" }

type ConversationModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ConversationModel) TableName() string { return "conversations" }

type MessageModel struct {
	ID             string    `gorm:"primaryKey"`
	ConversationID string    `gorm:"not null;index"`
	Role           string    `gorm:"not null"`
	Content        string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

func (MessageModel) TableName() string { return "messages" }

func profileToModel(p *model.Profile) ProfileModel {
	return ProfileModel{
		ID:                    p.ID,
		Email:                 p.Email,
		Tier:                  string(p.Tier),
		DailyPromptsUsed:      p.DailyPromptsUsed,
		DailyPromptsResetDate: p.DailyPromptsResetDate,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func profileFromModel(m ProfileModel) *model.Profile {
	return &model.Profile{
		ID:                    m.ID,
		Email:                 m.Email,
		Tier:                  model.Tier(m.Tier),
		DailyPromptsUsed:      m.DailyPromptsUsed,
		DailyPromptsResetDate: m.DailyPromptsResetDate,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func conversationToModel(c *model.Conversation) ConversationModel {
	return ConversationModel{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func conversationFromModel(m ConversationModel) model.Conversation {
	return model.Conversation{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func messageToModel(msg *model.Message) MessageModel {
	return MessageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) model.Message {
	return model.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           model.Role(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}
