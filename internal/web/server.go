// Package web assembles the gin server.
package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	chatCtl "github.com/Laisky/promptbox/internal/web/chat/controller"
	projectCtl "github.com/Laisky/promptbox/internal/web/project/controller"
	userCtl "github.com/Laisky/promptbox/internal/web/user/controller"
	"github.com/Laisky/promptbox/internal/web/webctx"
	"github.com/Laisky/promptbox/library/jwt"
	"github.com/Laisky/promptbox/library/log"
	"github.com/Laisky/promptbox/library/throttle"
)

// Config is built once at process start and passed by reference.
type Config struct {
	Listen         string
	Debug          bool
	FrontendOrigin string
	MaxBodyBytes   int64
	RateLimit      throttle.Config
}

// Controllers groups the app controllers the router dispatches to.
type Controllers struct {
	Users    *userCtl.Users
	Projects *projectCtl.Projects
	Chat     *chatCtl.Chat
}

// NewServer builds the engine with the full middleware chain,
// any middleware may short-circuit with an error response.
func NewServer(cfg *Config, issuer *jwt.JWT, ctl Controllers) (*gin.Engine, error) {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server := gin.New()
	server.Use(
		recovery(cfg.Debug),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(log.Logger.Level().String()),
			gmw.WithLogger(log.Logger.Named("gin")),
		),
		securityHeaders,
		allowCORS(cfg.FrontendOrigin),
	)

	limiter, err := throttle.New(cfg.RateLimit)
	if err != nil {
		return nil, errors.Wrap(err, "create rate limiter")
	}
	server.Use(rateLimit(limiter))
	server.Use(bodyLimit(cfg.MaxBodyBytes))

	if err := gmw.EnableMetric(server); err != nil {
		return nil, errors.Wrap(err, "enable metric server")
	}

	server.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": gutils.Clock.GetUTCNow().Format(time.RFC3339),
		})
	})

	server.NoRoute(func(ctx *gin.Context) {
		webctx.AbortErr(ctx, http.StatusNotFound, "not found")
	})

	api := server.Group("/api")
	{
		api.POST("/auth/register", ctl.Users.Register)
		api.POST("/auth/login", ctl.Users.Login)
	}

	protected := api.Group("", authenticate(issuer))
	{
		protected.GET("/users/profile", ctl.Users.Profile)
		protected.PUT("/users/profile", ctl.Users.UpdateProfile)

		protected.GET("/projects", ctl.Projects.List)
		protected.POST("/projects", ctl.Projects.Create)
		protected.GET("/projects/:id", ctl.Projects.Get)
		protected.PUT("/projects/:id", ctl.Projects.Update)
		protected.DELETE("/projects/:id", ctl.Projects.Delete)
		protected.POST("/projects/:id/prompts", ctl.Projects.AppendPrompt)
		protected.POST("/projects/:id/files", ctl.Projects.UploadFile)

		protected.POST("/chat/:projectId", ctl.Chat.Send)
	}

	return server, nil
}

// RunServer blocks serving HTTP until the listener fails.
func RunServer(cfg *Config, issuer *jwt.JWT, ctl Controllers) {
	server, err := NewServer(cfg, issuer, ctl)
	if err != nil {
		log.Logger.Panic("build server", zap.Error(err))
	}

	log.Logger.Info("listening on http", zap.String("addr", cfg.Listen))
	log.Logger.Panic("httpServer exit", zap.Error(server.Run(cfg.Listen)))
}

// recovery converts handler panics into a generic failure,
// the panic detail is exposed only in debug mode.
func recovery(debug bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		log.Logger.Error("handler panic", zap.Any("panic", recovered))
		msg := "internal server error"
		if debug {
			msg = fmt.Sprintf("%v", recovered)
		}
		webctx.AbortErr(ctx, http.StatusInternalServerError, msg)
	})
}
