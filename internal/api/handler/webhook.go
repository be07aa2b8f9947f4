package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

type WebhookHandler struct {
	gw                  gateway.Gateway
	subscriptionService *service.SubscriptionService
}

func NewWebhookHandler(gw gateway.Gateway, subscriptionService *service.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{
		gw:                  gw,
		subscriptionService: subscriptionService,
	}
}

// Handle 接收支付网关 webhook 回调。验签失败直接拒绝，
// 已处理过的事件重放会在 service 层被识别并跳过。
// POST /api/v1/webhook/stripe
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.ParamError(c, "读取请求体失败")
		return
	}

	event, err := h.gw.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		response.ParamError(c, "签名校验失败")
		return
	}

	if err := h.subscriptionService.HandleEvent(c.Request.Context(), event); err != nil {
		log.Printf("webhook event %s handling failed: %v", event.Type, err)
		response.ServerError(c, "")
		return
	}

	response.Success(c, nil)
}
