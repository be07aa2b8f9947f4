package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

type DiscountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

func (r *DiscountRepository) Create(discount *model.Discount) error {
	return r.db.Create(discount).Error
}

func (r *DiscountRepository) GetByID(id int64) (*model.Discount, error) {
	var discount model.Discount
	err := r.db.Where("id = ?", id).First(&discount).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *DiscountRepository) GetByCode(code string) (*model.Discount, error) {
	var discount model.Discount
	err := r.db.Where("code = ?", code).First(&discount).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *DiscountRepository) List() ([]*model.Discount, error) {
	var discounts []*model.Discount
	err := r.db.Order("id DESC").Find(&discounts).Error
	return discounts, err
}

func (r *DiscountRepository) Deactivate(id int64) error {
	return r.db.Model(&model.Discount{}).Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *DiscountRepository) ExistsByCode(code string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Discount{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}
