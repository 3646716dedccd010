package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-blog/internal/api/middleware"
	"github.com/d60-Lab/gin-blog/internal/service"
	"github.com/d60-Lab/gin-blog/pkg/domain"
	"github.com/d60-Lab/gin-blog/pkg/response"
)

// Register 注册并签发令牌
// @Summary 注册
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body domain.RegisterRequest true "注册信息"
// @Success 201 {object} domain.AuthResponse
// @Failure 422 {object} response.Response
// @Router /register [post]
func (h *Handler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.userService.Register(c.Request.Context(), service.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, domain.AuthResponse{Token: res.Token, User: res.User.ToDomain()})
}

// Login 用邮箱和密码换取令牌
// @Summary 登录
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "登录信息"
// @Success 200 {object} domain.AuthResponse
// @Failure 422 {object} response.Response
// @Router /login [post]
func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, domain.AuthResponse{Token: res.Token, User: res.User.ToDomain()})
}

// Logout 注销当前令牌
// @Summary 注销
// @Tags 账号
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /logout [post]
func (h *Handler) Logout(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	if err := h.userService.Logout(c.Request.Context(), claims); err != nil {
		fail(c, err)
		return
	}
	response.Message(c, "Logged out successfully")
}

// Me 当前用户
// @Summary 当前用户
// @Tags 账号
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} response.Response
// @Router /user [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	response.Success(c, user.ToDomain())
}
