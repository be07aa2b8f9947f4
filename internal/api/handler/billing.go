package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/api/middleware"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

type BillingHandler struct {
	billingService *service.BillingService
}

func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// Checkout 创建托管结账会话
// POST /api/v1/billing/checkout
func (h *BillingHandler) Checkout(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	req.UserID = userID

	url, err := h.billingService.CreateCheckoutSession(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.Success(c, dto.SessionResponse{URL: url})
}

// Portal 创建客户自助账单门户会话
// POST /api/v1/billing/portal
func (h *BillingHandler) Portal(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	url, err := h.billingService.CreatePortalSession(c.Request.Context(), userID)
	if err != nil {
		fallbackError(c, err)
		return
	}

	response.Success(c, dto.SessionResponse{URL: url})
}

// SendPaymentLink 将结账链接发到当前用户邮箱
// POST /api/v1/billing/payment-link
func (h *BillingHandler) SendPaymentLink(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.SendPaymentLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.billingService.SendPaymentLink(c.Request.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "支付链接已发送", nil)
}

// CreateTaxRate 创建税率
// POST /api/v1/admin/tax-rates
func (h *BillingHandler) CreateTaxRate(c *gin.Context) {
	var req dto.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	taxRate, err := h.billingService.CreateTaxRate(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaxRateExists):
			response.ConflictError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "创建成功", taxRate)
}

// ListTaxRates 税率列表
// GET /api/v1/tax-rates
func (h *BillingHandler) ListTaxRates(c *gin.Context) {
	taxRates, err := h.billingService.ListTaxRates()
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, taxRates)
}

// GetTaxRate 税率详情
// GET /api/v1/tax-rates/:id
func (h *BillingHandler) GetTaxRate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	taxRate, err := h.billingService.GetTaxRate(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaxRateNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, taxRate)
}

// CreateTestClock 创建网关测试时钟
// POST /api/v1/admin/test-clocks
func (h *BillingHandler) CreateTestClock(c *gin.Context) {
	var req dto.CreateTestClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	clockID, err := h.billingService.CreateTestClock(c.Request.Context(), &req)
	if err != nil {
		fallbackError(c, err)
		return
	}

	response.Success(c, gin.H{"clock_id": clockID})
}

// AdvanceTestClock 拨动网关测试时钟
// POST /api/v1/admin/test-clocks/advance
func (h *BillingHandler) AdvanceTestClock(c *gin.Context) {
	var req dto.AdvanceTestClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.billingService.AdvanceTestClock(c.Request.Context(), &req); err != nil {
		fallbackError(c, err)
		return
	}

	response.SuccessWithMessage(c, "时钟已拨动", nil)
}
