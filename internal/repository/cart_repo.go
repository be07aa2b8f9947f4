package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Create(item *model.Cart) error {
	return r.db.Create(item).Error
}

func (r *CartRepository) GetByID(id int64) (*model.Cart, error) {
	var item model.Cart
	err := r.db.Preload("Book").Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetActiveByUserAndBook 查找用户购物车中尚未下单的同一本书
func (r *CartRepository) GetActiveByUserAndBook(userID, bookID int64) (*model.Cart, error) {
	var item model.Cart
	err := r.db.Where("user_id = ? AND book_id = ? AND is_placed = ?", userID, bookID, false).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListActiveByUser 列出用户尚未下单的购物车条目
func (r *CartRepository) ListActiveByUser(userID int64) ([]*model.Cart, error) {
	var items []*model.Cart
	err := r.db.Preload("Book").
		Where("user_id = ? AND is_placed = ?", userID, false).
		Order("id ASC").Find(&items).Error
	return items, err
}

func (r *CartRepository) Update(item *model.Cart) error {
	return r.db.Save(item).Error
}

func (r *CartRepository) Delete(id int64) error {
	return r.db.Delete(&model.Cart{}, id).Error
}

func (r *CartRepository) DeleteActiveByUser(userID int64) error {
	return r.db.Where("user_id = ? AND is_placed = ?", userID, false).
		Delete(&model.Cart{}).Error
}

func (r *CartRepository) CountActiveByUser(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Cart{}).
		Where("user_id = ? AND is_placed = ?", userID, false).Count(&count).Error
	return count, err
}
