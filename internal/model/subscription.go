package model

import (
	"time"
)

const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// Subscription 本地订阅记录。autoRenew=true 的行代表生效中的循环订阅，
// autoRenew=false 的行代表待替换的旧订阅（升降级流程里的中间状态）。
type Subscription struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	UserID               int64      `gorm:"not null;index" json:"user_id"`
	PlanID               int64      `gorm:"not null" json:"plan_id"`
	StripeSubscriptionID string     `gorm:"column:stripe_subscription_id;size:100;uniqueIndex;not null" json:"-"`
	AutoRenew            bool       `gorm:"not null;index" json:"auto_renew"`
	Status               string     `gorm:"size:20;default:active" json:"status"` // active, inactive
	TrialEnd             *time.Time `json:"trial_end,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
