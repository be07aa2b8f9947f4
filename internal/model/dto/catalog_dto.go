package dto

// CreateBookRequest 创建书目请求
type CreateBookRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Price       int64  `json:"price" binding:"required,gt=0"`
	Quantity    int    `json:"quantity" binding:"required,gte=0"`
	CategoryID  int64  `json:"category_id" binding:"required"`
}

// UpdateBookRequest 更新书目请求
type UpdateBookRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Price       *int64  `json:"price,omitempty" binding:"omitempty,gt=0"`
	Quantity    *int    `json:"quantity,omitempty" binding:"omitempty,gte=0"`
	CategoryID  *int64  `json:"category_id,omitempty"`
}

// ListBooksRequest 书目列表查询参数
type ListBooksRequest struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	CategoryID int64  `form:"category_id"`
	Keyword    string `form:"keyword"`
	SortBy     string `form:"sort_by"`
	OrderBy    string `form:"order_by"` // asc / desc
}

// CreateCategoryRequest 创建分类请求
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// UpdateCategoryRequest 更新分类请求
type UpdateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}
