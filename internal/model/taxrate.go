package model

import (
	"time"
)

type TaxRate struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	StripeTaxRateID string    `gorm:"column:stripe_tax_rate_id;size:100;not null" json:"-"`
	DisplayName     string    `gorm:"size:100;uniqueIndex;not null" json:"display_name"`
	Description     string    `gorm:"size:255" json:"description,omitempty"`
	Jurisdiction    string    `gorm:"size:50" json:"jurisdiction,omitempty"`
	Percentage      float64   `gorm:"not null" json:"percentage"`
	Inclusive       bool      `gorm:"not null" json:"inclusive"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (TaxRate) TableName() string {
	return "tax_rates"
}
