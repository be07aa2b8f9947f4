package dto

// CreatePlanRequest 创建套餐请求
type CreatePlanRequest struct {
	Name          string `json:"name" binding:"required,max=50"`
	Price         int64  `json:"price" binding:"required,gt=0"`
	TrialEligible bool   `json:"trial_eligible"`
}

// SubscribeRequest 订阅（含升降级）请求
type SubscribeRequest struct {
	UserID       int64   `json:"-"` // 取自认证上下文
	PlanID       int64   `json:"plan_id" binding:"required"`
	TaxRateIDs   []int64 `json:"tax_rate_ids,omitempty"`
	DiscountCode string  `json:"discount_code,omitempty"`
}

// 订阅结果状态
const (
	SubscribeResultCreated   = "created"   // 立即生效
	SubscribeResultScheduled = "scheduled" // 降级，待当前计费期结束后生效
)

// SubscribeResponse 订阅响应
type SubscribeResponse struct {
	Result               string  `json:"result"` // created / scheduled
	SubscriptionID       int64   `json:"subscription_id"`
	StripeSubscriptionID string  `json:"stripe_subscription_id"`
	RefundedAmount       int64   `json:"refunded_amount,omitempty"` // 升级时退还的金额（最小货币单位）
	EffectivePercentage  float64 `json:"effective_percentage,omitempty"`
	TrialEnd             string  `json:"trial_end,omitempty"`
}
