package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(payment *model.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) GetByUser(userID int64) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.Where("user_id = ?", userID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Update(payment *model.Payment) error {
	return r.db.Save(payment).Error
}

func (r *PaymentRepository) ExistsByUser(userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Payment{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}
