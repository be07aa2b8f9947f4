package dto

// CreatePaymentMethodRequest 创建并绑定支付方式请求
type CreatePaymentMethodRequest struct {
	Token string `json:"token" binding:"required"` // 网关卡 token，如 tok_visa
}

// SendPaymentLinkRequest 发送支付链接邮件请求
type SendPaymentLinkRequest struct {
	PlanID   int64 `json:"plan_id" binding:"required"`
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// CardInfo 虚拟卡信息
type CardInfo struct {
	ID     int64  `json:"id"`
	Last4  string `json:"last4"`
	Status string `json:"status"`
}
