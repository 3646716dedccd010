package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/gin-blog/config"
	_ "github.com/d60-Lab/gin-blog/docs"
	"github.com/d60-Lab/gin-blog/internal/api/handler"
	"github.com/d60-Lab/gin-blog/internal/api/middleware"
	"github.com/d60-Lab/gin-blog/internal/service"
	"github.com/d60-Lab/gin-blog/pkg/domain"
)

// RouterOptions 路由装配参数
type RouterOptions struct {
	Mode        string
	ServiceName string
	Tracing     bool
	Sentry      bool
}

// OptionsFromConfig 由配置生成路由参数
func OptionsFromConfig(cfg *config.Config) RouterOptions {
	return RouterOptions{
		Mode:        cfg.Server.Mode,
		ServiceName: cfg.Tracing.ServiceName,
		Tracing:     cfg.Tracing.Enabled,
		Sentry:      cfg.Sentry.DSN != "",
	}
}

// NewRouter 注册全部路由，API 挂载在 /api 下
func NewRouter(opts RouterOptions, postService service.PostService, userService service.UserService) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		domain.RegisterJSONTagNames(v)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.Logger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	h := handler.NewHandler(postService, userService)

	r.GET("/health", h.Health)
	if opts.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)

		authed := api.Group("")
		authed.Use(middleware.Auth(userService))
		{
			authed.POST("/logout", h.Logout)
			authed.GET("/user", h.Me)

			authed.GET("/posts", h.ListPosts)
			authed.POST("/posts", h.CreatePost)
			authed.GET("/posts/:id", h.GetPost)
			authed.PUT("/posts/:id", h.UpdatePost)
			authed.DELETE("/posts/:id", h.DeletePost)
		}
	}

	return r
}
