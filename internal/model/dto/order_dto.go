package dto

// PlaceOrderResponse 下单响应
type PlaceOrderResponse struct {
	OrderID         int64  `json:"order_id"`
	TotalAmount     int64  `json:"total_amount"`
	PaymentIntentID string `json:"payment_intent_id"`
}
