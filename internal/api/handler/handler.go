package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
)

// fallbackError 未被 switch 命中的错误兜底：网关错误单独归类，其余一律内部错误
func fallbackError(c *gin.Context, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		response.GatewayError(c, gwErr.Message)
		return
	}
	response.ServerError(c, "")
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "无效的 ID")
		return 0, false
	}
	return id, true
}
