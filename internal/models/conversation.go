package models

import (
	"time"

	apperrors "HerShield/pkg/errors"

	"gorm.io/gorm"
)

type ConversationHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	UserInput   string    `json:"user_input" gorm:"type:text;not null"`
	AIResponse  string    `json:"ai_response" gorm:"type:text;not null"`
	ContextUsed bool      `json:"context_used"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
}

func SaveConversation(db *gorm.DB, userID uint, input, answer string, contextUsed bool) error {
	turn := ConversationHistory{
		UserID:      userID,
		UserInput:   input,
		AIResponse:  answer,
		ContextUsed: contextUsed,
		Timestamp:   time.Now(),
	}
	if err := db.Create(&turn).Error; err != nil {
		return apperrors.Wrap(err, "save conversation")
	}
	return nil
}

// RecentConversations returns up to limit turns, newest first.
func RecentConversations(db *gorm.DB, userID uint, limit int) ([]ConversationHistory, error) {
	var turns []ConversationHistory
	q := db.Where("user_id = ?", userID).Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&turns).Error; err != nil {
		return nil, apperrors.Wrap(err, "load conversations")
	}
	return turns, nil
}
