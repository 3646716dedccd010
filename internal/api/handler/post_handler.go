package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-blog/internal/api/middleware"
	"github.com/d60-Lab/gin-blog/internal/model"
	"github.com/d60-Lab/gin-blog/pkg/domain"
	"github.com/d60-Lab/gin-blog/pkg/response"
)

// ListPosts 当前用户的博文（新的在前）
// @Summary 博文列表
// @Tags 博文
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Post
// @Failure 401 {object} response.Response
// @Router /posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	posts, err := h.postService.List(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, model.PostsToDomain(posts))
}

// CreatePost 新建博文
// @Summary 新建博文
// @Tags 博文
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.PostInput true "博文内容"
// @Success 201 {object} domain.Post
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req domain.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	user, _ := middleware.CurrentUser(c)
	post, err := h.postService.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, post.ToDomain())
}

// GetPost 查看博文
// @Summary 查看博文
// @Tags 博文
// @Produce json
// @Security BearerAuth
// @Param id path string true "博文ID"
// @Success 200 {object} domain.Post
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	post, err := h.postService.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post.ToDomain())
}

// UpdatePost 修改博文标题与内容
// @Summary 修改博文
// @Tags 博文
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "博文ID"
// @Param request body domain.PostInput true "博文内容"
// @Success 200 {object} domain.Post
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	// 先检查存在与归属，再解析请求体
	current, err := h.postService.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	var req domain.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	post, err := h.postService.Revise(c.Request.Context(), current, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post.ToDomain())
}

// DeletePost 永久删除博文
// @Summary 删除博文
// @Tags 博文
// @Produce json
// @Security BearerAuth
// @Param id path string true "博文ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.postService.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Message(c, "Post deleted successfully")
}
