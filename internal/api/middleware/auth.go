package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-blog/internal/model"
	"github.com/d60-Lab/gin-blog/internal/service"
	"github.com/d60-Lab/gin-blog/pkg/jwtutil"
	"github.com/d60-Lab/gin-blog/pkg/response"
)

const (
	ctxUserKey   = "auth.user"
	ctxClaimsKey = "auth.claims"
)

// Auth 解析 Bearer 令牌并把调用者写入上下文；失败统一 401
func Auth(users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c)
			return
		}
		user, claims, err := users.Authenticate(c.Request.Context(), token)
		if errors.Is(err, service.ErrUnauthenticated) {
			response.Unauthorized(c)
			return
		}
		if err != nil {
			response.InternalError(c, err)
			return
		}
		c.Set(ctxUserKey, user)
		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// CurrentUser 当前调用者；仅在 Auth 之后可用
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}

// CurrentClaims 当前令牌声明
func CurrentClaims(c *gin.Context) (*jwtutil.Claims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	cl, ok := v.(*jwtutil.Claims)
	return cl, ok
}
