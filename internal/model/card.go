package model

import (
	"time"
)

// Card 发卡（issuing）产生的虚拟卡
type Card struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	StripeCardID string    `gorm:"column:stripe_card_id;size:100;uniqueIndex" json:"-"`
	Last4        string    `gorm:"size:4" json:"last4,omitempty"`
	Status       string    `gorm:"size:20" json:"status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Card) TableName() string {
	return "cards"
}
