package model

import (
	"time"
)

// Payment 用户的支付档案（网关侧支付方式绑定）
type Payment struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	UserID           int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	PaymentMethodID  string    `gorm:"size:100" json:"payment_method_id,omitempty"`
	StripeCustomerID string    `gorm:"column:stripe_customer_id;size:100" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
