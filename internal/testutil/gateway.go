package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
)

// RefundCall 记录一次退款调用
type RefundCall struct {
	InvoiceID string
	Amount    int64
}

// CancelCall 记录一次取消调用
type CancelCall struct {
	SubscriptionID string
	Prorate        bool
}

// FakeGateway 内存版支付网关，记录全部调用并允许脚本化返回值
type FakeGateway struct {
	mu  sync.Mutex
	seq int

	// 可脚本化的返回值
	Subscriptions map[string]*gateway.Subscription // RetrieveSubscription 的数据源
	RefundID      string                           // 为空表示发票无可退款项
	Err           error                            // 置位后所有操作返回该错误

	// 调用记录
	CreatedCustomers     []string
	CreatedSubscriptions []gateway.SubscriptionParams
	CreatedSchedules     []gateway.ScheduleParams
	ReleasedSchedules    []string
	CancelCalls          []CancelCall
	RefundCalls          []RefundCall
	PausedIDs            []string
	ResumedIDs           []string
	CancelAtPeriodEndIDs []string
	AttachedMethods      map[string]string // payment method -> customer
	AdvancedClocks       map[string]int64
}

var _ gateway.Gateway = (*FakeGateway)(nil)

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Subscriptions:   make(map[string]*gateway.Subscription),
		RefundID:        "re_fake_1",
		AttachedMethods: make(map[string]string),
		AdvancedClocks:  make(map[string]int64),
	}
}

func (g *FakeGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_fake_%d", prefix, g.seq)
}

// AddSubscription 预置一个网关侧订阅快照
func (g *FakeGateway) AddSubscription(sub *gateway.Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Subscriptions[sub.ID] = sub
}

func (g *FakeGateway) CreateCustomer(ctx context.Context, name, email, testClockID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	id := g.nextID("cus")
	g.CreatedCustomers = append(g.CreatedCustomers, id)
	return id, nil
}

func (g *FakeGateway) CreatePlan(ctx context.Context, name string, amount int64) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", "", g.Err
	}
	return g.nextID("plan"), g.nextID("price"), nil
}

func (g *FakeGateway) RetrievePlan(ctx context.Context, planID string) (*gateway.PlanDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	return &gateway.PlanDetails{
		ID:       planID,
		Amount:   1000,
		Currency: "gbp",
		Interval: "month",
		Active:   true,
	}, nil
}

func (g *FakeGateway) CreateSubscription(ctx context.Context, params gateway.SubscriptionParams) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.CreatedSubscriptions = append(g.CreatedSubscriptions, params)

	now := time.Now()
	sub := &gateway.Subscription{
		ID:                 g.nextID("sub"),
		Status:             "active",
		CurrentPeriodStart: now.Unix(),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0).Unix(),
		LatestInvoiceID:    g.nextID("in"),
	}
	if params.TrialDays > 0 {
		sub.Status = "trialing"
		sub.TrialEnd = now.AddDate(0, 0, int(params.TrialDays)).Unix()
	}
	g.Subscriptions[sub.ID] = sub
	return sub, nil
}

func (g *FakeGateway) RetrieveSubscription(ctx context.Context, id string) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	sub, ok := g.Subscriptions[id]
	if !ok {
		return nil, &gateway.Error{Op: "retrieve subscription", Message: "no such subscription: " + id}
	}
	copied := *sub
	return &copied, nil
}

func (g *FakeGateway) CancelSubscription(ctx context.Context, id string, prorate bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.Err
	}
	g.CancelCalls = append(g.CancelCalls, CancelCall{SubscriptionID: id, Prorate: prorate})
	if sub, ok := g.Subscriptions[id]; ok {
		sub.Status = "canceled"
	}
	return nil
}

func (g *FakeGateway) SetCancelAtPeriodEnd(ctx context.Context, id string) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.CancelAtPeriodEndIDs = append(g.CancelAtPeriodEndIDs, id)
	sub, ok := g.Subscriptions[id]
	if !ok {
		return nil, &gateway.Error{Op: "update subscription", Message: "no such subscription: " + id}
	}
	sub.CancelAtPeriodEnd = true
	copied := *sub
	return &copied, nil
}

func (g *FakeGateway) PauseCollection(ctx context.Context, id string) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.PausedIDs = append(g.PausedIDs, id)
	sub, ok := g.Subscriptions[id]
	if !ok {
		return nil, &gateway.Error{Op: "pause collection", Message: "no such subscription: " + id}
	}
	copied := *sub
	return &copied, nil
}

func (g *FakeGateway) ResumeCollection(ctx context.Context, id string) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.ResumedIDs = append(g.ResumedIDs, id)
	sub, ok := g.Subscriptions[id]
	if !ok {
		return nil, &gateway.Error{Op: "resume collection", Message: "no such subscription: " + id}
	}
	copied := *sub
	return &copied, nil
}

func (g *FakeGateway) CreateSchedule(ctx context.Context, params gateway.ScheduleParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	g.CreatedSchedules = append(g.CreatedSchedules, params)
	return g.nextID("sub_sched"), nil
}

func (g *FakeGateway) ReleaseSchedule(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.Err
	}
	g.ReleasedSchedules = append(g.ReleasedSchedules, id)
	return nil
}

func (g *FakeGateway) RefundLatestCharge(ctx context.Context, invoiceID string, amount int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	g.RefundCalls = append(g.RefundCalls, RefundCall{InvoiceID: invoiceID, Amount: amount})
	return g.RefundID, nil
}

func (g *FakeGateway) CreateCoupon(ctx context.Context, name string, percentOff float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.nextID("coupon"), nil
}

func (g *FakeGateway) CreatePromotionCode(ctx context.Context, couponID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.nextID("promo"), nil
}

func (g *FakeGateway) CreateTaxRate(ctx context.Context, params gateway.TaxRateParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.nextID("txr"), nil
}

func (g *FakeGateway) RetrieveTaxRate(ctx context.Context, id string) (*gateway.TaxRateDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	return &gateway.TaxRateDetails{
		ID:          id,
		DisplayName: "VAT",
		Percentage:  20,
		Active:      true,
	}, nil
}

func (g *FakeGateway) CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return "https://checkout.example.com/" + g.nextID("cs"), nil
}

func (g *FakeGateway) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return "https://billing.example.com/" + g.nextID("bps"), nil
}

func (g *FakeGateway) CreatePaymentIntent(ctx context.Context, params gateway.PaymentIntentParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.nextID("pi"), nil
}

func (g *FakeGateway) CreateCardholder(ctx context.Context, params gateway.CardholderParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.nextID("ich"), nil
}

func (g *FakeGateway) CreateCard(ctx context.Context, cardholderID string) (*gateway.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	return &gateway.Card{
		ID:     g.nextID("ic"),
		Last4:  "4242",
		Status: "active",
	}, nil
}

func (g *FakeGateway) CreatePaymentMethod(ctx context.Context, token string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.nextID("pm"), nil
}

func (g *FakeGateway) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.Err
	}
	g.AttachedMethods[paymentMethodID] = customerID
	return nil
}

func (g *FakeGateway) CreateTestClock(ctx context.Context, frozenTime int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.nextID("clock"), nil
}

func (g *FakeGateway) AdvanceTestClock(ctx context.Context, clockID string, frozenTime int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.Err
	}
	g.AdvancedClocks[clockID] = frozenTime
	return nil
}

func (g *FakeGateway) ConstructEvent(payload []byte, signature string) (*gateway.Event, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	return &gateway.Event{Kind: gateway.EventUnknown}, nil
}
