package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/api/middleware"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// Add 加入购物车，已有同款未下单条目时合并数量
// POST /api/v1/cart
func (h *CartHandler) Add(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.AddCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.cartService.Add(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrStockExceeded):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "已加入购物车", item)
}

// List 当前购物车
// GET /api/v1/cart
func (h *CartHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	items, err := h.cartService.List(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// UpdateQuantity 修改购物车中某本书的数量
// PUT /api/v1/cart
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.cartService.UpdateQuantity(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartItemNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrStockExceeded):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "已更新", item)
}

// Remove 删除购物车条目
// DELETE /api/v1/cart/:id
func (h *CartHandler) Remove(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.cartService.Remove(userID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrCartItemNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrCartPermission):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "已删除", nil)
}

// Clear 清空购物车
// DELETE /api/v1/cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.cartService.Clear(userID); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "已清空", nil)
}
