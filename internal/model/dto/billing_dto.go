package dto

// CheckoutRequest 订阅结账会话请求
type CheckoutRequest struct {
	UserID   int64 `json:"-"` // 取自认证上下文
	PlanID   int64 `json:"plan_id" binding:"required"`
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// SessionResponse 网关会话响应
type SessionResponse struct {
	URL string `json:"url"`
}

// CreateTaxRateRequest 创建税率请求
type CreateTaxRateRequest struct {
	DisplayName  string  `json:"display_name" binding:"required,max=100"`
	Description  string  `json:"description" binding:"omitempty,max=255"`
	Jurisdiction string  `json:"jurisdiction" binding:"omitempty,max=50"`
	Percentage   float64 `json:"percentage" binding:"required,gt=0"`
	Inclusive    bool    `json:"inclusive"`
	Country      string  `json:"country" binding:"omitempty,len=2"`
}

// CreateDiscountRequest 创建折扣码请求
type CreateDiscountRequest struct {
	Name          string  `json:"name" binding:"required,max=50"`
	Description   string  `json:"description" binding:"omitempty,max=255"`
	Percentage    float64 `json:"percentage" binding:"required,gt=0,lte=100"`
	MinPrice      int64   `json:"min_price" binding:"gte=0"`
	MaxPercentage float64 `json:"max_percentage" binding:"omitempty,gt=0,lte=100"`
}

// CreateTestClockRequest 创建测试时钟请求
type CreateTestClockRequest struct {
	FrozenTime int64 `json:"frozen_time" binding:"required"`
}

// AdvanceTestClockRequest 拨动测试时钟请求
type AdvanceTestClockRequest struct {
	ClockID    string `json:"clock_id" binding:"required"`
	FrozenTime int64  `json:"frozen_time" binding:"required"`
}
