package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/repository"
	"github.com/qs3c/bookstore_go_server/internal/testutil"
)

func setupSubscriptionService(t *testing.T) (*SubscriptionService, *gorm.DB, *testutil.FakeGateway) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	gw := testutil.NewFakeGateway()
	cfg := &config.Config{}
	cfg.Stripe.CommissionRate = 0.05
	cfg.Stripe.TrialDays = 7

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cardRepo := repository.NewCardRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	taxRateRepo := repository.NewTaxRateRepository(db)
	discountRepo := repository.NewDiscountRepository(db)

	paymentService := NewPaymentService(userRepo, paymentRepo, cardRepo, gw, cfg)
	discountService := NewDiscountService(discountRepo, gw)
	service := NewSubscriptionService(planRepo, subRepo, taxRateRepo, paymentService, discountService, gw, cfg)

	return service, db, gw
}

func TestSubscriptionService_CreatePlan(t *testing.T) {
	service, db, _ := setupSubscriptionService(t)
	ctx := context.Background()

	plan, err := service.CreatePlan(ctx, &dto.CreatePlanRequest{
		Name:          "Gold",
		Price:         20,
		TrialEligible: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Gold", plan.Name)
	assert.NotEmpty(t, plan.StripePlanID)
	assert.NotEmpty(t, plan.StripePriceID)

	var count int64
	db.Model(&model.Plan{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubscriptionService_CreatePlan_UnknownTier(t *testing.T) {
	service, _, _ := setupSubscriptionService(t)

	_, err := service.CreatePlan(context.Background(), &dto.CreatePlanRequest{
		Name:  "Diamond",
		Price: 50,
	})
	assert.ErrorIs(t, err, model.ErrUnknownPlanTier)
}

func TestSubscriptionService_CreatePlan_Duplicate(t *testing.T) {
	service, db, _ := setupSubscriptionService(t)
	testutil.TestPlan(t, db, "Gold", 20)

	_, err := service.CreatePlan(context.Background(), &dto.CreatePlanRequest{
		Name:  "Gold",
		Price: 20,
	})
	assert.ErrorIs(t, err, ErrPlanExists)
}

func TestSubscriptionService_Subscribe_Fresh(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Silver", 10)

	resp, err := service.Subscribe(ctx, &dto.SubscribeRequest{
		UserID: user.ID,
		PlanID: plan.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, dto.SubscribeResultCreated, resp.Result)
	assert.NotEmpty(t, resp.StripeSubscriptionID)
	assert.Zero(t, resp.RefundedAmount)

	// 网关客户应在首次订阅时自动创建
	assert.Len(t, gw.CreatedCustomers, 1)
	require.Len(t, gw.CreatedSubscriptions, 1)
	assert.Equal(t, plan.StripePlanID, gw.CreatedSubscriptions[0].PlanID)
	assert.Zero(t, gw.CreatedSubscriptions[0].TrialDays)

	var count int64
	db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubscriptionService_Subscribe_FreshWithTrial(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Silver", 10, testutil.WithTrialEligible(true))

	resp, err := service.Subscribe(ctx, &dto.SubscribeRequest{
		UserID: user.ID,
		PlanID: plan.ID,
	})
	require.NoError(t, err)

	require.Len(t, gw.CreatedSubscriptions, 1)
	assert.Equal(t, int64(7), gw.CreatedSubscriptions[0].TrialDays)
	assert.NotEmpty(t, resp.TrialEnd)
}

func TestSubscriptionService_Subscribe_SamePlan(t *testing.T) {
	service, db, _ := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Gold", 20)
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	_, err := service.Subscribe(context.Background(), &dto.SubscribeRequest{
		UserID: user.ID,
		PlanID: plan.ID,
	})
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscriptionService_Subscribe_Upgrade(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	silver := testutil.TestPlan(t, db, "Silver", 10)
	gold := testutil.TestPlan(t, db, "Gold", 20)

	current := testutil.TestSubscription(t, db, user.ID, silver.ID,
		testutil.WithStripeSubscriptionID("sub_old"))

	// 计费期 30 天，恰好过半：1000 的月费应退 round(500*0.95) = 475
	now := time.Now()
	gw.AddSubscription(&gateway.Subscription{
		ID:                 "sub_old",
		Status:             "active",
		CurrentPeriodStart: now.AddDate(0, 0, -15).Unix(),
		CurrentPeriodEnd:   now.AddDate(0, 0, 15).Unix(),
		PlanAmount:         1000,
		LatestInvoiceID:    "in_old",
	})

	resp, err := service.Subscribe(ctx, &dto.SubscribeRequest{
		UserID: user.ID,
		PlanID: gold.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, dto.SubscribeResultCreated, resp.Result)
	assert.Equal(t, int64(475), resp.RefundedAmount)

	// 旧订阅被无比例取消，退款走独立调用
	require.Len(t, gw.CancelCalls, 1)
	assert.Equal(t, "sub_old", gw.CancelCalls[0].SubscriptionID)
	assert.False(t, gw.CancelCalls[0].Prorate)
	require.Len(t, gw.RefundCalls, 1)
	assert.Equal(t, "in_old", gw.RefundCalls[0].InvoiceID)
	assert.Equal(t, int64(475), gw.RefundCalls[0].Amount)

	// 本地记录数保持 1：新行替换旧行
	var count int64
	db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	var remaining model.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&remaining).Error)
	assert.Equal(t, gold.ID, remaining.PlanID)
	assert.NotEqual(t, current.ID, remaining.ID)
	assert.True(t, remaining.AutoRenew)
}

func TestSubscriptionService_Subscribe_UpgradeNoInvoice(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	testutil.TestPlan(t, db, "Silver", 10)
	gold := testutil.TestPlan(t, db, "Gold", 20)

	silver, err := service.planRepo.GetByName("Silver")
	require.NoError(t, err)
	testutil.TestSubscription(t, db, user.ID, silver.ID,
		testutil.WithStripeSubscriptionID("sub_trial"))

	// 试用期内没有发票，升级不应产生退款
	now := time.Now()
	gw.AddSubscription(&gateway.Subscription{
		ID:                 "sub_trial",
		Status:             "trialing",
		CurrentPeriodStart: now.AddDate(0, 0, -3).Unix(),
		CurrentPeriodEnd:   now.AddDate(0, 0, 27).Unix(),
		PlanAmount:         1000,
	})

	resp, err := service.Subscribe(ctx, &dto.SubscribeRequest{
		UserID: user.ID,
		PlanID: gold.ID,
	})
	require.NoError(t, err)
	assert.Zero(t, resp.RefundedAmount)
	assert.Empty(t, gw.RefundCalls)
}

func TestSubscriptionService_Subscribe_Downgrade(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	silver := testutil.TestPlan(t, db, "Silver", 10)
	gold := testutil.TestPlan(t, db, "Gold", 20)

	current := testutil.TestSubscription(t, db, user.ID, gold.ID,
		testutil.WithStripeSubscriptionID("sub_gold"))

	periodEnd := time.Now().AddDate(0, 0, 20).Unix()
	gw.AddSubscription(&gateway.Subscription{
		ID:                 "sub_gold",
		Status:             "active",
		CurrentPeriodStart: time.Now().AddDate(0, 0, -10).Unix(),
		CurrentPeriodEnd:   periodEnd,
		PlanAmount:         2000,
		LatestInvoiceID:    "in_gold",
	})

	resp, err := service.Subscribe(ctx, &dto.SubscribeRequest{
		UserID: user.ID,
		PlanID: silver.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, dto.SubscribeResultScheduled, resp.Result)
	assert.Zero(t, resp.RefundedAmount)
	assert.Empty(t, gw.RefundCalls)
	assert.Empty(t, gw.CancelCalls)

	// 调度从当前计费期结束开始，旧订阅只是关掉续费
	require.Len(t, gw.CreatedSchedules, 1)
	assert.Equal(t, periodEnd, gw.CreatedSchedules[0].StartDate)
	assert.Equal(t, silver.StripePlanID, gw.CreatedSchedules[0].PlanID)
	assert.Contains(t, gw.CancelAtPeriodEndIDs, "sub_gold")

	var old model.Subscription
	require.NoError(t, db.First(&old, current.ID).Error)
	assert.False(t, old.AutoRenew)

	var pending model.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", resp.StripeSubscriptionID).First(&pending).Error)
	assert.Equal(t, silver.ID, pending.PlanID)
	assert.True(t, pending.AutoRenew)
}

func TestSubscriptionService_Subscribe_WithDiscount(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Gold", 20)
	testutil.TestDiscount(t, db,
		testutil.WithCode("SAVE20"),
		testutil.WithPercentage(25),
		testutil.WithMaxPercentage(20))

	resp, err := service.Subscribe(ctx, &dto.SubscribeRequest{
		UserID:       user.ID,
		PlanID:       plan.ID,
		DiscountCode: "SAVE20",
	})
	require.NoError(t, err)

	// 折扣超过上限时按上限生效
	assert.Equal(t, float64(20), resp.EffectivePercentage)
	require.Len(t, gw.CreatedSubscriptions, 1)
	assert.NotEmpty(t, gw.CreatedSubscriptions[0].CouponID)
}

func TestSubscriptionService_Subscribe_DiscountBelowMinPrice(t *testing.T) {
	service, db, _ := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Silver", 10)
	testutil.TestDiscount(t, db,
		testutil.WithCode("BIGSPENDER"),
		testutil.WithMinPrice(15))

	_, err := service.Subscribe(context.Background(), &dto.SubscribeRequest{
		UserID:       user.ID,
		PlanID:       plan.ID,
		DiscountCode: "BIGSPENDER",
	})
	assert.ErrorIs(t, err, ErrDiscountNotEligible)
}

func TestSubscriptionService_Subscribe_UnknownTierPlan(t *testing.T) {
	service, db, _ := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Legacy", 5)

	_, err := service.Subscribe(context.Background(), &dto.SubscribeRequest{
		UserID: user.ID,
		PlanID: plan.ID,
	})
	assert.ErrorIs(t, err, model.ErrUnknownPlanTier)
}

func TestSubscriptionService_HandleEvent_ScheduleReleased(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	silver := testutil.TestPlan(t, db, "Silver", 10)
	gold := testutil.TestPlan(t, db, "Gold", 20)

	// 降级后的中间状态：旧订阅待替换，新记录绑着调度 ID
	testutil.TestSubscription(t, db, user.ID, gold.ID,
		testutil.WithStripeSubscriptionID("sub_gold"),
		testutil.WithAutoRenew(false))
	pending := testutil.TestSubscription(t, db, user.ID, silver.ID,
		testutil.WithStripeSubscriptionID("sub_sched_1"))

	event := &gateway.Event{
		Kind:           gateway.EventScheduleUpdated,
		Type:           "subscription_schedule.updated",
		ScheduleID:     "sub_sched_1",
		ScheduleStatus: "active",
		SubscriptionID: "sub_new",
	}
	require.NoError(t, service.HandleEvent(ctx, event))

	assert.Equal(t, []string{"sub_sched_1"}, gw.ReleasedSchedules)

	var count int64
	db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	var remaining model.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&remaining).Error)
	assert.Equal(t, pending.ID, remaining.ID)
	assert.Equal(t, "sub_new", remaining.StripeSubscriptionID)

	// 事件重放：调度 ID 已换绑，应跳过且不再释放
	require.NoError(t, service.HandleEvent(ctx, event))
	db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Len(t, gw.ReleasedSchedules, 1)
}

func TestSubscriptionService_HandleEvent_SubscriptionDeleted(t *testing.T) {
	service, db, _ := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Silver", 10)
	testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStripeSubscriptionID("sub_done"))

	event := &gateway.Event{
		Kind:           gateway.EventSubscriptionDeleted,
		Type:           "customer.subscription.deleted",
		SubscriptionID: "sub_done",
	}
	require.NoError(t, service.HandleEvent(ctx, event))

	var count int64
	db.Model(&model.Subscription{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// 重放不报错
	require.NoError(t, service.HandleEvent(ctx, event))
}

func TestSubscriptionService_CancelNow(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Gold", 20)
	testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStripeSubscriptionID("sub_cancel"))

	now := time.Now()
	gw.AddSubscription(&gateway.Subscription{
		ID:                 "sub_cancel",
		Status:             "active",
		CurrentPeriodStart: now.AddDate(0, 0, -15).Unix(),
		CurrentPeriodEnd:   now.AddDate(0, 0, 15).Unix(),
		PlanAmount:         1000,
		LatestInvoiceID:    "in_cancel",
	})

	refunded, err := service.CancelNow(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(475), refunded)
	require.Len(t, gw.CancelCalls, 1)

	var count int64
	db.Model(&model.Subscription{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSubscriptionService_CancelAtPeriodEnd(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Gold", 20)
	testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStripeSubscriptionID("sub_soft"))
	gw.AddSubscription(&gateway.Subscription{ID: "sub_soft", Status: "active"})

	cancelled, err := service.CancelAtPeriodEnd(ctx, user.ID)
	require.NoError(t, err)
	assert.Contains(t, gw.CancelAtPeriodEndIDs, "sub_soft")
	assert.False(t, cancelled.AutoRenew)
	assert.Equal(t, model.SubscriptionInactive, cancelled.Status)

	// 本地记录保留但不再续订，等 webhook 终止事件再清除
	var count int64
	db.Model(&model.Subscription{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var row model.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_soft").First(&row).Error)
	assert.False(t, row.AutoRenew)
	assert.Equal(t, model.SubscriptionInactive, row.Status)

	// 取消后不再有生效订阅
	_, err = service.GetCurrent(user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
}

func TestSubscriptionService_Resume_SkipsCancelledRow(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Gold", 20)
	testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStripeSubscriptionID("sub_soft"))
	gw.AddSubscription(&gateway.Subscription{ID: "sub_soft", Status: "active"})

	_, err := service.CancelAtPeriodEnd(ctx, user.ID)
	require.NoError(t, err)

	// Resume 只针对暂停的订阅，期末取消的行不能被它复活
	err = service.Resume(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
	assert.Empty(t, gw.ResumedIDs)
}

func TestSubscriptionService_PauseAndResume(t *testing.T) {
	service, db, gw := setupSubscriptionService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Gold", 20)
	sub := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStripeSubscriptionID("sub_pause"))
	gw.AddSubscription(&gateway.Subscription{ID: "sub_pause", Status: "active"})

	require.NoError(t, service.Pause(ctx, user.ID))
	assert.Contains(t, gw.PausedIDs, "sub_pause")

	var paused model.Subscription
	require.NoError(t, db.First(&paused, sub.ID).Error)
	assert.Equal(t, model.SubscriptionInactive, paused.Status)

	// 暂停后没有 active 订阅
	_, err := service.GetCurrent(user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)

	require.NoError(t, service.Resume(ctx, user.ID))
	assert.Contains(t, gw.ResumedIDs, "sub_pause")

	var resumed model.Subscription
	require.NoError(t, db.First(&resumed, sub.ID).Error)
	assert.Equal(t, model.SubscriptionActive, resumed.Status)
}

func TestSubscriptionService_CancelNow_NoSubscription(t *testing.T) {
	service, db, _ := setupSubscriptionService(t)
	user := testutil.TestUser(t, db)

	_, err := service.CancelNow(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
}
