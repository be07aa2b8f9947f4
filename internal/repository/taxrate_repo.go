package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

type TaxRateRepository struct {
	db *gorm.DB
}

func NewTaxRateRepository(db *gorm.DB) *TaxRateRepository {
	return &TaxRateRepository{db: db}
}

func (r *TaxRateRepository) Create(taxRate *model.TaxRate) error {
	return r.db.Create(taxRate).Error
}

func (r *TaxRateRepository) GetByID(id int64) (*model.TaxRate, error) {
	var taxRate model.TaxRate
	err := r.db.Where("id = ?", id).First(&taxRate).Error
	if err != nil {
		return nil, err
	}
	return &taxRate, nil
}

// GetByIDs 按 ID 批量查询，返回顺序不保证与入参一致
func (r *TaxRateRepository) GetByIDs(ids []int64) ([]*model.TaxRate, error) {
	var taxRates []*model.TaxRate
	err := r.db.Where("id IN ?", ids).Find(&taxRates).Error
	return taxRates, err
}

func (r *TaxRateRepository) List() ([]*model.TaxRate, error) {
	var taxRates []*model.TaxRate
	err := r.db.Order("id ASC").Find(&taxRates).Error
	return taxRates, err
}

func (r *TaxRateRepository) ExistsByDisplayName(displayName string) (bool, error) {
	var count int64
	err := r.db.Model(&model.TaxRate{}).Where("display_name = ?", displayName).Count(&count).Error
	return count > 0, err
}
