package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/api/middleware"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// CreatePlan 创建订阅套餐
// POST /api/v1/admin/plans
func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	plan, err := h.subscriptionService.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnknownPlanTier):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrPlanExists):
			response.ConflictError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "创建成功", plan)
}

// ListPlans 套餐列表
// GET /api/v1/plans
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans()
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, plans)
}

// GetPlan 套餐详情
// GET /api/v1/plans/:id
func (h *SubscriptionHandler) GetPlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.subscriptionService.GetPlan(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, plan)
}

// Subscribe 订阅套餐；已有订阅时按档位自动走升级或降级流程
// POST /api/v1/subscription
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	req.UserID = userID

	resp, err := h.subscriptionService.Subscribe(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, model.ErrUnknownPlanTier):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrAlreadySubscribed):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrTaxRateNotFound):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrDiscountNotFound),
			errors.Is(err, service.ErrDiscountInactive),
			errors.Is(err, service.ErrDiscountNotEligible):
			response.ParamError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "订阅成功", resp)
}

// GetCurrent 当前生效的订阅
// GET /api/v1/subscription
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	sub, err := h.subscriptionService.GetCurrent(userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, sub)
}

// CancelAtPeriodEnd 在本计费期末取消自动续订
// POST /api/v1/subscription/cancel
func (h *SubscriptionHandler) CancelAtPeriodEnd(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	sub, err := h.subscriptionService.CancelAtPeriodEnd(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription):
			response.NotFoundError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "将于本计费期结束时取消", sub)
}

// CancelNow 立即取消并按剩余天数退款
// DELETE /api/v1/subscription
func (h *SubscriptionHandler) CancelNow(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	refunded, err := h.subscriptionService.CancelNow(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription):
			response.NotFoundError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "订阅已取消", gin.H{"refunded_amount": refunded})
}

// Pause 暂停扣款
// POST /api/v1/subscription/pause
func (h *SubscriptionHandler) Pause(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.subscriptionService.Pause(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription):
			response.NotFoundError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "订阅已暂停", nil)
}

// Resume 恢复扣款
// POST /api/v1/subscription/resume
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.subscriptionService.Resume(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription):
			response.NotFoundError(c, err.Error())
		default:
			fallbackError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "订阅已恢复", nil)
}
