package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	ErrDiscountExists      = errors.New("折扣码已存在")
	ErrDiscountNotFound    = errors.New("折扣码不存在")
	ErrDiscountInactive    = errors.New("折扣码已停用")
	ErrDiscountNotEligible = errors.New("套餐价格未达到折扣码使用门槛")
)

type DiscountService struct {
	discountRepo *repository.DiscountRepository
	gw           gateway.Gateway
}

func NewDiscountService(discountRepo *repository.DiscountRepository, gw gateway.Gateway) *DiscountService {
	return &DiscountService{
		discountRepo: discountRepo,
		gw:           gw,
	}
}

// Create 创建折扣码：先在网关建 coupon 与推广码，再落库。
// 网关侧 coupon 按生效比例（含上限收敛）创建。
func (s *DiscountService) Create(ctx context.Context, req *dto.CreateDiscountRequest) (*model.Discount, error) {
	exists, err := s.discountRepo.ExistsByCode(req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDiscountExists
	}

	discount := &model.Discount{
		Code:          req.Name,
		Description:   req.Description,
		Percentage:    req.Percentage,
		MinPrice:      req.MinPrice,
		MaxPercentage: req.MaxPercentage,
		IsActive:      true,
	}

	couponID, err := s.gw.CreateCoupon(ctx, req.Name, discount.EffectivePercentage())
	if err != nil {
		return nil, err
	}
	if _, err := s.gw.CreatePromotionCode(ctx, couponID); err != nil {
		return nil, err
	}

	discount.StripeCouponID = couponID
	if err := s.discountRepo.Create(discount); err != nil {
		return nil, err
	}
	return discount, nil
}

// List 列出全部折扣码
func (s *DiscountService) List() ([]*model.Discount, error) {
	return s.discountRepo.List()
}

// Resolve 按码查找并校验折扣码对给定套餐价是否可用
func (s *DiscountService) Resolve(code string, planPrice int64) (*model.Discount, error) {
	discount, err := s.discountRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}

	if !discount.IsActive {
		return nil, ErrDiscountInactive
	}
	if planPrice < discount.MinPrice {
		return nil, ErrDiscountNotEligible
	}

	return discount, nil
}

// Deactivate 停用折扣码
func (s *DiscountService) Deactivate(id int64) error {
	if _, err := s.discountRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDiscountNotFound
		}
		return err
	}
	return s.discountRepo.Deactivate(id)
}
