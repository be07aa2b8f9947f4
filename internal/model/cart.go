package model

import (
	"time"
)

type Cart struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_user_book" json:"user_id"`
	BookID    int64     `gorm:"not null;index:idx_user_book" json:"book_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	IsPlaced  bool      `gorm:"default:false;index" json:"is_placed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}
