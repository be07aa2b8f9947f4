package model

import (
	"time"
)

type User struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	FirstName        string     `gorm:"size:50;not null" json:"first_name"`
	LastName         string     `gorm:"size:50;not null" json:"last_name"`
	Email            string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"size:255;not null" json:"-"`
	PhoneNumber      string     `gorm:"size:20" json:"phone_number,omitempty"`
	Role             string     `gorm:"size:20;default:customer" json:"role"` // customer, admin
	StripeCustomerID *string    `gorm:"column:stripe_customer_id;size:100;uniqueIndex" json:"-"`
	CardHolderID     *string    `gorm:"column:card_holder_id;size:100" json:"-"`
	ResetToken       *string    `gorm:"size:100;index" json:"-"`
	ResetExpiresAt   *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
