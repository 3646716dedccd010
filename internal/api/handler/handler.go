package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-blog/internal/service"
	"github.com/d60-Lab/gin-blog/pkg/domain"
	"github.com/d60-Lab/gin-blog/pkg/response"
)

// Handler HTTP 处理器集合
type Handler struct {
	postService service.PostService
	userService service.UserService
}

func NewHandler(postService service.PostService, userService service.UserService) *Handler {
	return &Handler{postService: postService, userService: userService}
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// fail 把服务层错误映射为 HTTP 响应
func fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, verr.Fields)
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, "Post not found")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c)
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c)
	case errors.Is(err, service.ErrEmailTaken):
		response.ValidationFailed(c, domain.FieldErrors{"email": {"The email has already been taken."}})
	case errors.Is(err, service.ErrInvalidCredentials):
		response.ValidationFailed(c, domain.FieldErrors{"email": {"The provided credentials are incorrect."}})
	default:
		response.InternalError(c, err)
	}
}
