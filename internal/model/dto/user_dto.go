package dto

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Role        string `json:"role"`
	HasBilling  bool   `json:"has_billing"` // 是否已创建网关客户
	CreatedAt   string `json:"created_at,omitempty"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	FirstName   *string `json:"first_name,omitempty" binding:"omitempty,max=50"`
	LastName    *string `json:"last_name,omitempty" binding:"omitempty,max=50"`
	PhoneNumber *string `json:"phone_number,omitempty" binding:"omitempty,max=20"`
}
