package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ho-ssain/HkToDoServer/internal/container"
	handlers "github.com/ho-ssain/HkToDoServer/internal/interface/http"
	"github.com/ho-ssain/HkToDoServer/internal/interface/middleware"
	"github.com/ho-ssain/HkToDoServer/pkg/helpers"
)

// AccountModule wires the registration, session, profile and password-reset
// routes. The reset endpoints are unauthenticated, so they carry the tightest
// per-IP limits.
type AccountModule struct {
	Handler *handlers.AccountHandler
	JWT     *helpers.JWTManager
}

func NewAccountModule(h *handlers.AccountHandler, jwt *helpers.JWTManager) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	registerLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	forgotLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.GET("/logout", m.Handler.Logout)
	rg.PUT("/forgotpassword", forgotLimiter, m.Handler.ForgotPassword)
	rg.PUT("/resetpassword", resetLimiter, m.Handler.ResetPassword)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()))
	{
		auth.POST("/verify", m.Handler.Verify)
		auth.GET("/me", m.Handler.Me)
		auth.PUT("/updateprofile", m.Handler.UpdateProfile)
		auth.PUT("/updatepassword", m.Handler.UpdatePassword)
	}
}
