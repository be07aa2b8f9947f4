package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/pkg/queue"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	ErrPlanNotFound    = errors.New("套餐不存在")
	ErrTaxRateExists   = errors.New("税率名已存在")
	ErrTaxRateNotFound = errors.New("税率不存在")
)

type BillingService struct {
	planRepo       *repository.PlanRepository
	taxRateRepo    *repository.TaxRateRepository
	paymentService *PaymentService
	gw             gateway.Gateway
	mailQueue      *queue.Queue
	cfg            *config.Config
}

func NewBillingService(
	planRepo *repository.PlanRepository,
	taxRateRepo *repository.TaxRateRepository,
	paymentService *PaymentService,
	gw gateway.Gateway,
	mailQueue *queue.Queue,
	cfg *config.Config,
) *BillingService {
	return &BillingService{
		planRepo:       planRepo,
		taxRateRepo:    taxRateRepo,
		paymentService: paymentService,
		gw:             gw,
		mailQueue:      mailQueue,
		cfg:            cfg,
	}
}

// CreateCheckoutSession 创建订阅结账会话，返回托管支付页 URL
func (s *BillingService) CreateCheckoutSession(ctx context.Context, req *dto.CheckoutRequest) (string, error) {
	plan, err := s.planRepo.GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrPlanNotFound
		}
		return "", err
	}

	_, customerID, err := s.paymentService.EnsureCustomer(ctx, req.UserID)
	if err != nil {
		return "", err
	}

	return s.gw.CreateCheckoutSession(ctx, gateway.CheckoutParams{
		CustomerID: customerID,
		PriceID:    plan.StripePriceID,
		Quantity:   req.Quantity,
		SuccessURL: s.cfg.Links.CheckoutSuccessURL,
		CancelURL:  s.cfg.Links.CheckoutCancelURL,
	})
}

// CreatePortalSession 创建自助账单门户会话
func (s *BillingService) CreatePortalSession(ctx context.Context, userID int64) (string, error) {
	_, customerID, err := s.paymentService.EnsureCustomer(ctx, userID)
	if err != nil {
		return "", err
	}

	return s.gw.CreateBillingPortalSession(ctx, customerID, s.cfg.Links.BillingReturnURL)
}

// SendPaymentLink 创建结账会话并把链接投递到用户邮箱
func (s *BillingService) SendPaymentLink(ctx context.Context, userID int64, req *dto.SendPaymentLinkRequest) error {
	user, _, err := s.paymentService.EnsureCustomer(ctx, userID)
	if err != nil {
		return err
	}

	url, err := s.CreateCheckoutSession(ctx, &dto.CheckoutRequest{
		UserID:   userID,
		PlanID:   req.PlanID,
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}

	return s.mailQueue.Push(ctx, &queue.MailMessage{
		Kind: queue.MailPaymentLink,
		To:   user.Email,
		Link: url,
	})
}

// CreateTaxRate 在网关创建税率并落库
func (s *BillingService) CreateTaxRate(ctx context.Context, req *dto.CreateTaxRateRequest) (*model.TaxRate, error) {
	exists, err := s.taxRateRepo.ExistsByDisplayName(req.DisplayName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTaxRateExists
	}

	stripeID, err := s.gw.CreateTaxRate(ctx, gateway.TaxRateParams{
		DisplayName:  req.DisplayName,
		Description:  req.Description,
		Jurisdiction: req.Jurisdiction,
		Percentage:   req.Percentage,
		Inclusive:    req.Inclusive,
		Country:      req.Country,
	})
	if err != nil {
		return nil, err
	}

	taxRate := &model.TaxRate{
		StripeTaxRateID: stripeID,
		DisplayName:     req.DisplayName,
		Description:     req.Description,
		Jurisdiction:    req.Jurisdiction,
		Percentage:      req.Percentage,
		Inclusive:       req.Inclusive,
	}
	if err := s.taxRateRepo.Create(taxRate); err != nil {
		return nil, err
	}
	return taxRate, nil
}

// ListTaxRates 列出全部税率
func (s *BillingService) ListTaxRates() ([]*model.TaxRate, error) {
	return s.taxRateRepo.List()
}

// GetTaxRate 查询单个税率
func (s *BillingService) GetTaxRate(id int64) (*model.TaxRate, error) {
	taxRate, err := s.taxRateRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaxRateNotFound
		}
		return nil, err
	}
	return taxRate, nil
}

// CreateTestClock 创建网关测试时钟（仅测试环境）
func (s *BillingService) CreateTestClock(ctx context.Context, req *dto.CreateTestClockRequest) (string, error) {
	return s.gw.CreateTestClock(ctx, req.FrozenTime)
}

// AdvanceTestClock 拨动网关测试时钟（仅测试环境）
func (s *BillingService) AdvanceTestClock(ctx context.Context, req *dto.AdvanceTestClockRequest) error {
	return s.gw.AdvanceTestClock(ctx, req.ClockID, req.FrozenTime)
}
