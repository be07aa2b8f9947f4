package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/api/middleware"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreatePaymentMethod 用卡 token 创建支付方式并绑定到当前用户
// POST /api/v1/payment/methods
func (h *PaymentHandler) CreatePaymentMethod(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	payment, err := h.paymentService.CreatePaymentMethod(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "绑定成功", payment)
}

// GetProfile 当前用户支付信息
// GET /api/v1/payment/profile
func (h *PaymentHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	payment, err := h.paymentService.GetProfile(userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoPaymentProfile):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, payment)
}

// CreateCard 为当前用户签发一张虚拟卡
// POST /api/v1/payment/cards
func (h *PaymentHandler) CreateCard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	card, err := h.paymentService.CreateCard(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "发卡成功", card)
}

// ListCards 当前用户名下的虚拟卡
// GET /api/v1/payment/cards
func (h *PaymentHandler) ListCards(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	cards, err := h.paymentService.ListCards(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, cards)
}
