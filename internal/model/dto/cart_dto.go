package dto

// AddCartRequest 加入购物车请求
type AddCartRequest struct {
	BookID   int64 `json:"book_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartRequest 修改购物车条目请求
type UpdateCartRequest struct {
	BookID   int64 `json:"book_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}
