package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Error 支付网关调用失败，与本地校验错误区分分类
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsGatewayError 判断是否网关侧失败
func IsGatewayError(err error) bool {
	var ge *Error
	return errors.As(err, &ge)
}

// Subscription 网关侧订阅快照
type Subscription struct {
	ID                 string
	Status             string
	CurrentPeriodStart int64 // unix 秒
	CurrentPeriodEnd   int64
	PlanAmount         int64 // 首个条目的每期金额（最小货币单位）
	LatestInvoiceID    string
	TrialEnd           int64
	CancelAtPeriodEnd  bool
}

// SubscriptionParams 创建订阅参数
type SubscriptionParams struct {
	CustomerID string
	PlanID     string
	TaxRateIDs []string
	TrialDays  int64 // 0 表示无试用
	CouponID   string
}

// ScheduleParams 创建订阅调度（未来阶段）参数
type ScheduleParams struct {
	CustomerID string
	PlanID     string
	StartDate  int64 // unix 秒，当前计费期结束时间
	TaxRateIDs []string
	CouponID   string
}

// CheckoutParams 订阅结账会话参数
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	Quantity   int64
	SuccessURL string
	CancelURL  string
}

// PaymentIntentParams 一次性支付参数
type PaymentIntentParams struct {
	Amount          int64 // 最小货币单位
	CustomerID      string
	PaymentMethodID string
	Confirm         bool
}

// CardholderParams 发卡持卡人参数
type CardholderParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Card 虚拟卡
type Card struct {
	ID     string
	Last4  string
	Status string
}

// TaxRateParams 税率参数
type TaxRateParams struct {
	DisplayName  string
	Description  string
	Jurisdiction string
	Percentage   float64
	Inclusive    bool
	Country      string
}

// TaxRateDetails 网关侧税率详情
type TaxRateDetails struct {
	ID          string
	DisplayName string
	Percentage  float64
	Inclusive   bool
	Active      bool
}

// PlanDetails 网关侧套餐详情
type PlanDetails struct {
	ID       string
	Amount   int64
	Currency string
	Interval string
	Active   bool
}

// EventKind webhook 事件种类（已知种类的标签联合）
type EventKind int

const (
	EventUnknown EventKind = iota
	EventScheduleUpdated
	EventSubscriptionDeleted
)

// Event 解码并验签后的 webhook 事件
type Event struct {
	Kind           EventKind
	Type           string // 网关原始事件类型
	ScheduleID     string
	ScheduleStatus string
	SubscriptionID string
	CustomerID     string
}

// Gateway 支付网关操作集合。服务层只依赖该接口，测试使用 FakeGateway。
type Gateway interface {
	CreateCustomer(ctx context.Context, name, email, testClockID string) (string, error)

	CreatePlan(ctx context.Context, name string, amount int64) (planID, priceID string, err error)
	RetrievePlan(ctx context.Context, planID string) (*PlanDetails, error)

	CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error)
	RetrieveSubscription(ctx context.Context, id string) (*Subscription, error)
	CancelSubscription(ctx context.Context, id string, prorate bool) error
	SetCancelAtPeriodEnd(ctx context.Context, id string) (*Subscription, error)
	PauseCollection(ctx context.Context, id string) (*Subscription, error)
	ResumeCollection(ctx context.Context, id string) (*Subscription, error)

	CreateSchedule(ctx context.Context, params ScheduleParams) (string, error)
	ReleaseSchedule(ctx context.Context, id string) error

	// RefundLatestCharge 对发票的最新收款按金额退款，发票无可退款项时返回空串
	RefundLatestCharge(ctx context.Context, invoiceID string, amount int64) (string, error)

	CreateCoupon(ctx context.Context, name string, percentOff float64) (string, error)
	CreatePromotionCode(ctx context.Context, couponID string) (string, error)

	CreateTaxRate(ctx context.Context, params TaxRateParams) (string, error)
	RetrieveTaxRate(ctx context.Context, id string) (*TaxRateDetails, error)

	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error)

	CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (string, error)

	CreateCardholder(ctx context.Context, params CardholderParams) (string, error)
	CreateCard(ctx context.Context, cardholderID string) (*Card, error)
	CreatePaymentMethod(ctx context.Context, token string) (string, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error

	CreateTestClock(ctx context.Context, frozenTime int64) (string, error)
	AdvanceTestClock(ctx context.Context, clockID string, frozenTime int64) error

	// ConstructEvent 验签并解码 webhook 负载，未知事件类型返回 Kind=EventUnknown
	ConstructEvent(payload []byte, signature string) (*Event, error)
}
