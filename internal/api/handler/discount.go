package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

type DiscountHandler struct {
	discountService *service.DiscountService
}

func NewDiscountHandler(discountService *service.DiscountService) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
	}
}

// Create 创建折扣码
// POST /api/v1/admin/discounts
func (h *DiscountHandler) Create(c *gin.Context) {
	var req dto.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	discount, err := h.discountService.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDiscountExists):
			response.ConflictError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "创建成功", discount)
}

// List 折扣码列表
// GET /api/v1/admin/discounts
func (h *DiscountHandler) List(c *gin.Context) {
	discounts, err := h.discountService.List()
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, discounts)
}

// Deactivate 停用折扣码
// DELETE /api/v1/admin/discounts/:id
func (h *DiscountHandler) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.discountService.Deactivate(id); err != nil {
		switch {
		case errors.Is(err, service.ErrDiscountNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "已停用", nil)
}
