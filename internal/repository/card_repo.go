package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(card *model.Card) error {
	return r.db.Create(card).Error
}

func (r *CardRepository) ListByUser(userID int64) ([]*model.Card, error) {
	var cards []*model.Card
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&cards).Error
	return cards, err
}

func (r *CardRepository) GetByStripeCardID(stripeCardID string) (*model.Card, error) {
	var card model.Card
	err := r.db.Where("stripe_card_id = ?", stripeCardID).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}
