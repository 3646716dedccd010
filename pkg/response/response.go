package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-blog/pkg/domain"
	"github.com/d60-Lab/gin-blog/pkg/logger"
)

// Response 失败或仅含提示信息的响应体
type Response struct {
	Message string             `json:"message"`
	Errors  domain.FieldErrors `json:"errors,omitempty"`
}

// Success 200，直接输出资源
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created 201，直接输出新建资源
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Message 200，仅返回提示信息
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{Message: msg})
}

// Fail 指定状态码的失败响应
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Message: msg})
}

// BadRequest 400
func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, msg)
}

// Unauthorized 401
func Unauthorized(c *gin.Context) {
	Fail(c, http.StatusUnauthorized, "Unauthenticated.")
}

// Forbidden 403
func Forbidden(c *gin.Context) {
	Fail(c, http.StatusForbidden, "Unauthorized")
}

// NotFound 404
func NotFound(c *gin.Context, msg string) {
	Fail(c, http.StatusNotFound, msg)
}

// ValidationFailed 422，message 取第一条字段错误
func ValidationFailed(c *gin.Context, fields domain.FieldErrors) {
	msg := fields.First()
	if msg == "" {
		msg = "The given data was invalid."
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Response{Message: msg, Errors: fields})
}

// BindError 请求体绑定失败统一按 422 处理
func BindError(c *gin.Context, err error) {
	ValidationFailed(c, domain.FromValidator(err))
}

// InternalError 500，记录日志并上报 Sentry
func InternalError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	_ = c.Error(err)
	Fail(c, http.StatusInternalServerError, "Server Error")
}
