package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/api/middleware"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// Place 将购物车中未下单条目结算为订单并扣款
// POST /api/v1/orders
func (h *OrderHandler) Place(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	resp, err := h.orderService.PlaceOrder(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartEmpty):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrNoPaymentProfile):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrOutOfStock):
			response.ConflictError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "下单成功", resp)
}

// List 当前用户订单列表
// GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	orders, err := h.orderService.List(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, orders)
}

// Get 订单详情
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(userID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrOrderPermission):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, order)
}
