package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/pkg/queue"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	ErrOrderNotFound    = errors.New("订单不存在")
	ErrOrderPermission  = errors.New("无权查看此订单")
	ErrNoPaymentProfile = errors.New("尚未绑定支付方式")
	ErrOutOfStock       = errors.New("部分图书库存不足")
)

type OrderService struct {
	orderRepo   *repository.OrderRepository
	cartRepo    *repository.CartRepository
	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentRepository
	gw          gateway.Gateway
	mailQueue   *queue.Queue
}

func NewOrderService(
	orderRepo *repository.OrderRepository,
	cartRepo *repository.CartRepository,
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	gw gateway.Gateway,
	mailQueue *queue.Queue,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		gw:          gw,
		mailQueue:   mailQueue,
	}
}

// PlaceOrder 将购物车结算为订单：用绑定的支付方式发起扣款，
// 然后在一个事务里落订单、扣库存、标记购物车条目。
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64) (*dto.PlaceOrderResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	items, err := s.cartRepo.ListActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	var total int64
	for _, item := range items {
		if item.Book == nil {
			return nil, ErrBookNotFound
		}
		total += item.Book.Price * int64(item.Quantity)
	}

	payment, err := s.paymentRepo.GetByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPaymentProfile
		}
		return nil, err
	}
	if user.StripeCustomerID == nil || payment.PaymentMethodID == "" {
		return nil, ErrNoPaymentProfile
	}

	// 价格按主货币单位存储，网关按最小货币单位计
	intentID, err := s.gw.CreatePaymentIntent(ctx, gateway.PaymentIntentParams{
		Amount:          total * 100,
		CustomerID:      *user.StripeCustomerID,
		PaymentMethodID: payment.PaymentMethodID,
		Confirm:         true,
	})
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:          userID,
		TotalAmount:     total,
		PaymentIntentID: intentID,
	}

	if err := s.orderRepo.PlaceOrder(order, items); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, ErrOutOfStock
		}
		return nil, err
	}

	if s.mailQueue != nil {
		itemCount := 0
		for _, item := range items {
			itemCount += item.Quantity
		}
		// 回执邮件失败不影响下单
		_ = s.mailQueue.Push(ctx, &queue.MailMessage{
			Kind:        queue.MailOrderReceipt,
			To:          user.Email,
			OrderID:     order.ID,
			TotalAmount: total,
			ItemCount:   itemCount,
		})
	}

	return &dto.PlaceOrderResponse{
		OrderID:         order.ID,
		TotalAmount:     total,
		PaymentIntentID: intentID,
	}, nil
}

// List 用户订单列表
func (s *OrderService) List(userID int64) ([]*model.Order, error) {
	return s.orderRepo.ListByUser(userID)
}

// Get 查询单个订单
func (s *OrderService) Get(userID, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderPermission
	}
	return order, nil
}
