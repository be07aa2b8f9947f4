package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

// ErrInsufficientStock 下单时某本书库存不足
var ErrInsufficientStock = errors.New("库存不足")

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *OrderRepository) GetByID(id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) ListByUser(userID int64) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error
	return orders, err
}

// PlaceOrder 在一个事务内创建订单、扣减库存并标记购物车条目已下单。
// 任一本书库存不足时整个事务回滚。
func (r *OrderRepository) PlaceOrder(order *model.Order, items []*model.Cart) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, item := range items {
			result := tx.Model(&model.Book{}).
				Where("id = ? AND quantity >= ?", item.BookID, item.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrInsufficientStock
			}

			if err := tx.Model(&model.Cart{}).Where("id = ?", item.ID).
				Update("is_placed", true).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
