package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	ErrCartItemNotFound = errors.New("购物车条目不存在")
	ErrCartPermission   = errors.New("无权操作此购物车条目")
	ErrCartEmpty        = errors.New("购物车为空")
	ErrStockExceeded    = errors.New("超出图书库存")
)

type CartService struct {
	cartRepo *repository.CartRepository
	bookRepo *repository.BookRepository
}

func NewCartService(cartRepo *repository.CartRepository, bookRepo *repository.BookRepository) *CartService {
	return &CartService{
		cartRepo: cartRepo,
		bookRepo: bookRepo,
	}
}

// Add 加入购物车。同一本书已在购物车时叠加数量。
func (s *CartService) Add(userID int64, req *dto.AddCartRequest) (*model.Cart, error) {
	book, err := s.bookRepo.GetByID(req.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	existing, err := s.cartRepo.GetActiveByUserAndBook(userID, req.BookID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		newQuantity := existing.Quantity + req.Quantity
		if newQuantity > book.Quantity {
			return nil, ErrStockExceeded
		}
		existing.Quantity = newQuantity
		if err := s.cartRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if req.Quantity > book.Quantity {
		return nil, ErrStockExceeded
	}

	item := &model.Cart{
		UserID:   userID,
		BookID:   req.BookID,
		Quantity: req.Quantity,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// List 列出用户购物车中未下单的条目
func (s *CartService) List(userID int64) ([]*model.Cart, error) {
	return s.cartRepo.ListActiveByUser(userID)
}

// UpdateQuantity 修改购物车中某本书的数量
func (s *CartService) UpdateQuantity(userID int64, req *dto.UpdateCartRequest) (*model.Cart, error) {
	item, err := s.cartRepo.GetActiveByUserAndBook(userID, req.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	book, err := s.bookRepo.GetByID(req.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	if req.Quantity > book.Quantity {
		return nil, ErrStockExceeded
	}

	item.Quantity = req.Quantity
	if err := s.cartRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Remove 移除购物车条目
func (s *CartService) Remove(userID, itemID int64) error {
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}
	if item.UserID != userID {
		return ErrCartPermission
	}
	if item.IsPlaced {
		return ErrCartItemNotFound
	}

	return s.cartRepo.Delete(itemID)
}

// Clear 清空用户购物车中未下单的条目
func (s *CartService) Clear(userID int64) error {
	return s.cartRepo.DeleteActiveByUser(userID)
}
