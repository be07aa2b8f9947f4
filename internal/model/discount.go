package model

import (
	"time"
)

type Discount struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	StripeCouponID string    `gorm:"column:stripe_coupon_id;size:100;not null" json:"-"`
	Description    string    `gorm:"size:255" json:"description,omitempty"`
	Percentage     float64   `gorm:"not null" json:"percentage"`
	MinPrice       int64     `gorm:"not null" json:"min_price"`           // 适用的最低套餐价
	MaxPercentage  float64   `json:"max_percentage,omitempty"`            // 0 表示不设上限
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Discount) TableName() string {
	return "discounts"
}

// EffectivePercentage 生效折扣比例，超过上限时收敛到上限
func (d *Discount) EffectivePercentage() float64 {
	if d.MaxPercentage > 0 && d.Percentage > d.MaxPercentage {
		return d.MaxPercentage
	}
	return d.Percentage
}
