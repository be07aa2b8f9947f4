package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

type PaymentService struct {
	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentRepository
	cardRepo    *repository.CardRepository
	gw          gateway.Gateway
	cfg         *config.Config
}

func NewPaymentService(
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	cardRepo *repository.CardRepository,
	gw gateway.Gateway,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		cardRepo:    cardRepo,
		gw:          gw,
		cfg:         cfg,
	}
}

// EnsureCustomer 确保用户已有网关客户，没有则创建并回写。
// 返回网关客户 ID。
func (s *PaymentService) EnsureCustomer(ctx context.Context, userID int64) (*model.User, string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	if user.StripeCustomerID != nil {
		return user, *user.StripeCustomerID, nil
	}

	customerID, err := s.gw.CreateCustomer(ctx, user.FirstName+" "+user.LastName, user.Email, s.cfg.Stripe.TestClockID)
	if err != nil {
		return nil, "", err
	}

	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"stripe_customer_id": customerID,
	}); err != nil {
		return nil, "", err
	}

	user.StripeCustomerID = &customerID
	return user, customerID, nil
}

// CreatePaymentMethod 用卡 token 创建支付方式并绑定到用户的网关客户
func (s *PaymentService) CreatePaymentMethod(ctx context.Context, userID int64, req *dto.CreatePaymentMethodRequest) (*model.Payment, error) {
	_, customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	methodID, err := s.gw.CreatePaymentMethod(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	if err := s.gw.AttachPaymentMethod(ctx, methodID, customerID); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByUser(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		payment = &model.Payment{
			UserID:           userID,
			PaymentMethodID:  methodID,
			StripeCustomerID: customerID,
		}
		if err := s.paymentRepo.Create(payment); err != nil {
			return nil, err
		}
		return payment, nil
	}

	payment.PaymentMethodID = methodID
	payment.StripeCustomerID = customerID
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetProfile 查询用户的支付档案
func (s *PaymentService) GetProfile(userID int64) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPaymentProfile
		}
		return nil, err
	}
	return payment, nil
}

// CreateCard 为用户签发一张虚拟卡，首次调用时先创建持卡人
func (s *PaymentService) CreateCard(ctx context.Context, userID int64) (*dto.CardInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var cardholderID string
	if user.CardHolderID != nil {
		cardholderID = *user.CardHolderID
	} else {
		cardholderID, err = s.gw.CreateCardholder(ctx, gateway.CardholderParams{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Phone:     user.PhoneNumber,
		})
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
			"card_holder_id": cardholderID,
		}); err != nil {
			return nil, err
		}
	}

	gwCard, err := s.gw.CreateCard(ctx, cardholderID)
	if err != nil {
		return nil, err
	}

	card := &model.Card{
		UserID:       userID,
		StripeCardID: gwCard.ID,
		Last4:        gwCard.Last4,
		Status:       gwCard.Status,
	}
	if err := s.cardRepo.Create(card); err != nil {
		return nil, err
	}

	return &dto.CardInfo{
		ID:     card.ID,
		Last4:  card.Last4,
		Status: card.Status,
	}, nil
}

// ListCards 用户名下的虚拟卡
func (s *PaymentService) ListCards(userID int64) ([]*dto.CardInfo, error) {
	cards, err := s.cardRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.CardInfo, 0, len(cards))
	for _, card := range cards {
		infos = append(infos, &dto.CardInfo{
			ID:     card.ID,
			Last4:  card.Last4,
			Status: card.Status,
		})
	}
	return infos, nil
}
