package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/pkg/proration"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	ErrPlanExists           = errors.New("套餐名已存在")
	ErrAlreadySubscribed    = errors.New("已订阅该套餐")
	ErrNoActiveSubscription = errors.New("当前没有生效的订阅")
)

type SubscriptionService struct {
	planRepo        *repository.PlanRepository
	subRepo         *repository.SubscriptionRepository
	taxRateRepo     *repository.TaxRateRepository
	paymentService  *PaymentService
	discountService *DiscountService
	gw              gateway.Gateway
	cfg             *config.Config
}

func NewSubscriptionService(
	planRepo *repository.PlanRepository,
	subRepo *repository.SubscriptionRepository,
	taxRateRepo *repository.TaxRateRepository,
	paymentService *PaymentService,
	discountService *DiscountService,
	gw gateway.Gateway,
	cfg *config.Config,
) *SubscriptionService {
	return &SubscriptionService{
		planRepo:        planRepo,
		subRepo:         subRepo,
		taxRateRepo:     taxRateRepo,
		paymentService:  paymentService,
		discountService: discountService,
		gw:              gw,
		cfg:             cfg,
	}
}

// CreatePlan 创建套餐：套餐名必须是已知档位，先建网关对象再落库
func (s *SubscriptionService) CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*model.Plan, error) {
	if _, err := model.ParsePlanTier(req.Name); err != nil {
		return nil, err
	}

	exists, err := s.planRepo.ExistsByName(req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPlanExists
	}

	// 价格按主货币单位存储，网关按最小货币单位计
	stripePlanID, stripePriceID, err := s.gw.CreatePlan(ctx, req.Name, req.Price*100)
	if err != nil {
		return nil, err
	}

	plan := &model.Plan{
		Name:          req.Name,
		Price:         req.Price,
		StripePlanID:  stripePlanID,
		StripePriceID: stripePriceID,
		TrialEligible: req.TrialEligible,
	}
	if err := s.planRepo.Create(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetPlan 查询套餐
func (s *SubscriptionService) GetPlan(id int64) (*model.Plan, error) {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ListPlans 套餐列表（按价格升序）
func (s *SubscriptionService) ListPlans() ([]*model.Plan, error) {
	return s.planRepo.List()
}

// Subscribe 订阅入口：按用户当前状态分流到
// 新订阅（立即生效）、升级（立即生效+按天退款）或降级（当前计费期结束后生效）。
func (s *SubscriptionService) Subscribe(ctx context.Context, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error) {
	targetPlan, err := s.GetPlan(req.PlanID)
	if err != nil {
		return nil, err
	}
	// 档位解析失败直接拒绝，而不是落入某个默认分支
	if _, err := model.ParsePlanTier(targetPlan.Name); err != nil {
		return nil, err
	}

	_, customerID, err := s.paymentService.EnsureCustomer(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var couponID string
	var effectivePercentage float64
	if req.DiscountCode != "" {
		discount, err := s.discountService.Resolve(req.DiscountCode, targetPlan.Price)
		if err != nil {
			return nil, err
		}
		couponID = discount.StripeCouponID
		effectivePercentage = discount.EffectivePercentage()
	}

	stripeTaxRateIDs, err := s.resolveTaxRates(req.TaxRateIDs)
	if err != nil {
		return nil, err
	}

	current, err := s.subRepo.GetActiveByUser(req.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// 无生效订阅，直接创建
		resp, err := s.subscribeFresh(ctx, req.UserID, targetPlan, customerID, couponID, stripeTaxRateIDs)
		if err != nil {
			return nil, err
		}
		resp.EffectivePercentage = effectivePercentage
		return resp, nil
	}

	if current.PlanID == targetPlan.ID {
		return nil, ErrAlreadySubscribed
	}

	currentPlan, err := s.planRepo.GetByID(current.PlanID)
	if err != nil {
		return nil, err
	}

	upgrade, err := model.IsUpgrade(currentPlan.Name, targetPlan.Name)
	if err != nil {
		return nil, err
	}

	var resp *dto.SubscribeResponse
	if upgrade {
		resp, err = s.upgrade(ctx, current, targetPlan, customerID, couponID, stripeTaxRateIDs)
	} else {
		resp, err = s.downgrade(ctx, current, targetPlan, customerID, couponID, stripeTaxRateIDs)
	}
	if err != nil {
		return nil, err
	}
	resp.EffectivePercentage = effectivePercentage
	return resp, nil
}

// subscribeFresh 首次订阅：可试用套餐带试用期
func (s *SubscriptionService) subscribeFresh(
	ctx context.Context,
	userID int64,
	plan *model.Plan,
	customerID, couponID string,
	taxRateIDs []string,
) (*dto.SubscribeResponse, error) {
	var trialDays int64
	if plan.TrialEligible {
		trialDays = s.cfg.Stripe.TrialDays
	}

	gwSub, err := s.gw.CreateSubscription(ctx, gateway.SubscriptionParams{
		CustomerID: customerID,
		PlanID:     plan.StripePlanID,
		TaxRateIDs: taxRateIDs,
		TrialDays:  trialDays,
		CouponID:   couponID,
	})
	if err != nil {
		return nil, err
	}

	sub := &model.Subscription{
		UserID:               userID,
		PlanID:               plan.ID,
		StripeSubscriptionID: gwSub.ID,
		AutoRenew:            true,
		Status:               model.SubscriptionActive,
	}
	if gwSub.TrialEnd > 0 {
		trialEnd := time.Unix(gwSub.TrialEnd, 0)
		sub.TrialEnd = &trialEnd
	}
	if err := s.subRepo.Create(sub); err != nil {
		return nil, err
	}

	resp := &dto.SubscribeResponse{
		Result:               dto.SubscribeResultCreated,
		SubscriptionID:       sub.ID,
		StripeSubscriptionID: gwSub.ID,
	}
	if sub.TrialEnd != nil {
		resp.TrialEnd = sub.TrialEnd.Format(time.RFC3339)
	}
	return resp, nil
}

// upgrade 升级立即生效：先建新订阅，再取消旧订阅并按剩余天数退款。
// 顺序保证扣费侧先有着落，退款失败只损失退款而不会丢订阅。
func (s *SubscriptionService) upgrade(
	ctx context.Context,
	current *model.Subscription,
	targetPlan *model.Plan,
	customerID, couponID string,
	taxRateIDs []string,
) (*dto.SubscribeResponse, error) {
	oldGwSub, err := s.gw.RetrieveSubscription(ctx, current.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}

	newGwSub, err := s.gw.CreateSubscription(ctx, gateway.SubscriptionParams{
		CustomerID: customerID,
		PlanID:     targetPlan.StripePlanID,
		TaxRateIDs: taxRateIDs,
		CouponID:   couponID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.gw.CancelSubscription(ctx, current.StripeSubscriptionID, false); err != nil {
		return nil, err
	}

	refunded := s.refundRemainder(ctx, oldGwSub)

	newSub := &model.Subscription{
		UserID:               current.UserID,
		PlanID:               targetPlan.ID,
		StripeSubscriptionID: newGwSub.ID,
		AutoRenew:            true,
		Status:               model.SubscriptionActive,
	}
	if err := s.subRepo.Create(newSub); err != nil {
		return nil, err
	}
	if err := s.subRepo.Delete(current.ID); err != nil {
		return nil, err
	}

	return &dto.SubscribeResponse{
		Result:               dto.SubscribeResultCreated,
		SubscriptionID:       newSub.ID,
		StripeSubscriptionID: newGwSub.ID,
		RefundedAmount:       refunded,
	}, nil
}

// downgrade 降级延后生效：当前订阅跑完本计费期，
// 新套餐通过网关调度在计费期结束时接管。
func (s *SubscriptionService) downgrade(
	ctx context.Context,
	current *model.Subscription,
	targetPlan *model.Plan,
	customerID, couponID string,
	taxRateIDs []string,
) (*dto.SubscribeResponse, error) {
	oldGwSub, err := s.gw.RetrieveSubscription(ctx, current.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}

	scheduleID, err := s.gw.CreateSchedule(ctx, gateway.ScheduleParams{
		CustomerID: customerID,
		PlanID:     targetPlan.StripePlanID,
		StartDate:  oldGwSub.CurrentPeriodEnd,
		TaxRateIDs: taxRateIDs,
		CouponID:   couponID,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.gw.SetCancelAtPeriodEnd(ctx, current.StripeSubscriptionID); err != nil {
		return nil, err
	}

	// 旧订阅记为待替换，新记录先绑调度 ID，webhook 到达后换绑真正的订阅 ID
	if err := s.subRepo.UpdateFields(current.ID, map[string]interface{}{
		"auto_renew": false,
	}); err != nil {
		return nil, err
	}

	newSub := &model.Subscription{
		UserID:               current.UserID,
		PlanID:               targetPlan.ID,
		StripeSubscriptionID: scheduleID,
		AutoRenew:            true,
		Status:               model.SubscriptionActive,
	}
	if err := s.subRepo.Create(newSub); err != nil {
		return nil, err
	}

	return &dto.SubscribeResponse{
		Result:               dto.SubscribeResultScheduled,
		SubscriptionID:       newSub.ID,
		StripeSubscriptionID: scheduleID,
	}, nil
}

// refundRemainder 按剩余天数计算退款并发起，失败只记日志不阻断升级
func (s *SubscriptionService) refundRemainder(ctx context.Context, gwSub *gateway.Subscription) int64 {
	if gwSub.LatestInvoiceID == "" || gwSub.PlanAmount <= 0 {
		return 0
	}

	periodStart := time.Unix(gwSub.CurrentPeriodStart, 0)
	periodEnd := time.Unix(gwSub.CurrentPeriodEnd, 0)
	refund := proration.CalculateRefund(periodStart, periodEnd, gwSub.PlanAmount, time.Now(), s.cfg.Stripe.CommissionRate)
	if refund <= 0 {
		return 0
	}

	refundID, err := s.gw.RefundLatestCharge(ctx, gwSub.LatestInvoiceID, refund)
	if err != nil {
		log.Printf("refund for subscription %s failed: %v", gwSub.ID, err)
		return 0
	}
	if refundID == "" {
		// 发票无可退款项（例如试用期内未产生收款）
		return 0
	}
	return refund
}

// CancelAtPeriodEnd 计费期末取消：续费关掉，本期服务保留
func (s *SubscriptionService) CancelAtPeriodEnd(ctx context.Context, userID int64) (*model.Subscription, error) {
	current, err := s.subRepo.GetActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}

	if _, err := s.gw.SetCancelAtPeriodEnd(ctx, current.StripeSubscriptionID); err != nil {
		return nil, err
	}

	// 本地同步取消状态，网关的 subscription.deleted 回调最终删行
	if err := s.subRepo.UpdateFields(current.ID, map[string]interface{}{
		"auto_renew": false,
		"status":     model.SubscriptionInactive,
	}); err != nil {
		return nil, err
	}
	current.AutoRenew = false
	current.Status = model.SubscriptionInactive
	return current, nil
}

// CancelNow 立即取消：取消网关订阅、按剩余天数退款、删除本地记录
func (s *SubscriptionService) CancelNow(ctx context.Context, userID int64) (int64, error) {
	current, err := s.subRepo.GetActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoActiveSubscription
		}
		return 0, err
	}

	gwSub, err := s.gw.RetrieveSubscription(ctx, current.StripeSubscriptionID)
	if err != nil {
		return 0, err
	}

	if err := s.gw.CancelSubscription(ctx, current.StripeSubscriptionID, false); err != nil {
		return 0, err
	}

	refunded := s.refundRemainder(ctx, gwSub)

	if err := s.subRepo.Delete(current.ID); err != nil {
		return 0, err
	}
	return refunded, nil
}

// Pause 暂停收款，订阅保留但标记为不活跃
func (s *SubscriptionService) Pause(ctx context.Context, userID int64) error {
	current, err := s.subRepo.GetActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveSubscription
		}
		return err
	}

	if _, err := s.gw.PauseCollection(ctx, current.StripeSubscriptionID); err != nil {
		return err
	}

	return s.subRepo.UpdateFields(current.ID, map[string]interface{}{
		"status": model.SubscriptionInactive,
	})
}

// Resume 恢复收款
func (s *SubscriptionService) Resume(ctx context.Context, userID int64) error {
	var current *model.Subscription
	subs, err := s.subRepo.ListByUser(userID)
	if err != nil {
		return err
	}
	// 只认暂停态（autoRenew 仍为 true 的 inactive 行）。期末取消
	// 留下的行是 autoRenew=false 的 inactive，不能被恢复
	for _, sub := range subs {
		if sub.AutoRenew && sub.Status == model.SubscriptionInactive {
			current = sub
			break
		}
	}
	if current == nil {
		return ErrNoActiveSubscription
	}

	if _, err := s.gw.ResumeCollection(ctx, current.StripeSubscriptionID); err != nil {
		return err
	}

	return s.subRepo.UpdateFields(current.ID, map[string]interface{}{
		"status": model.SubscriptionActive,
	})
}

// GetCurrent 查询用户当前生效的订阅
func (s *SubscriptionService) GetCurrent(userID int64) (*model.Subscription, error) {
	current, err := s.subRepo.GetActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	return current, nil
}

// HandleEvent 处理网关 webhook。事件可能重放，找不到对应记录时跳过而不是报错。
func (s *SubscriptionService) HandleEvent(ctx context.Context, event *gateway.Event) error {
	switch event.Kind {
	case gateway.EventScheduleUpdated:
		return s.handleScheduleUpdated(ctx, event)
	case gateway.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(event)
	default:
		log.Printf("ignoring webhook event %s", event.Type)
		return nil
	}
}

// handleScheduleUpdated 降级调度开始生效：把本地记录从调度 ID 换绑到
// 真正的订阅 ID，并清掉被替换的旧订阅记录。
func (s *SubscriptionService) handleScheduleUpdated(ctx context.Context, event *gateway.Event) error {
	// 调度尚未孵化出订阅（状态 not_started）时没有可换绑的对象
	if event.SubscriptionID == "" {
		return nil
	}

	sub, err := s.subRepo.GetByStripeID(event.ScheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("schedule %s has no local record, skipping (likely a replay)", event.ScheduleID)
			return nil
		}
		return err
	}

	if err := s.subRepo.UpdateExternalID(sub.ID, event.SubscriptionID); err != nil {
		return err
	}

	// 新订阅已经跑起来，调度完成使命，释放掉以免后续相位干扰。
	// 释放失败不影响换绑结果，记录即可。
	if event.ScheduleStatus == "active" {
		if err := s.gw.ReleaseSchedule(ctx, event.ScheduleID); err != nil {
			log.Printf("failed to release schedule %s: %v", event.ScheduleID, err)
		}
	}

	deleted, err := s.subRepo.DeleteNonRenewingByUser(sub.UserID)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Printf("schedule %s took over, removed %d superseded subscription rows", event.ScheduleID, deleted)
	}
	return nil
}

// handleSubscriptionDeleted 网关侧订阅终止，删除对应本地记录
func (s *SubscriptionService) handleSubscriptionDeleted(event *gateway.Event) error {
	deleted, err := s.subRepo.DeleteByStripeID(event.SubscriptionID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		log.Printf("subscription %s already removed, skipping (likely a replay)", event.SubscriptionID)
	}
	return nil
}

// resolveTaxRates 把本地税率 ID 换成网关税率 ID
func (s *SubscriptionService) resolveTaxRates(ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	taxRates, err := s.taxRateRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(taxRates) != len(ids) {
		return nil, ErrTaxRateNotFound
	}

	stripeIDs := make([]string, 0, len(taxRates))
	for _, taxRate := range taxRates {
		stripeIDs = append(stripeIDs, taxRate.StripeTaxRateID)
	}
	return stripeIDs, nil
}
