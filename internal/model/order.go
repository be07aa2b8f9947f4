package model

import (
	"time"
)

type Order struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	UserID          int64     `gorm:"not null;index" json:"user_id"`
	TotalAmount     int64     `gorm:"not null" json:"total_amount"` // 主货币单位
	PaymentIntentID string    `gorm:"size:100" json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
