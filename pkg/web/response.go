package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务码，HTTP 状态码之外区分部分结果
const (
	CodeOK              = 0
	CodeInvalidArgument = 1001
	CodeUnavailable     = 1002
	CodePartialResult   = 1003
	CodeInternal        = 1004
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success 200 + CodeOK
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "ok", Data: data})
}

// Partial 200 + CodePartialResult，data 只包含健康节点的结果
func Partial(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Response{Code: CodePartialResult, Message: message, Data: data})
}

// Error 错误响应，同时把错误挂到 gin.Context 上交给日志中间件
func Error(c *gin.Context, status, code int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Response{Code: code, Message: err.Error()})
}
