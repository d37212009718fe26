package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ho-ssain/HkToDoServer/internal/container"
	handlers "github.com/ho-ssain/HkToDoServer/internal/interface/http"
	"github.com/ho-ssain/HkToDoServer/internal/interface/middleware"
	"github.com/ho-ssain/HkToDoServer/pkg/helpers"
)

// TaskModule wires the embedded-task routes. GET on /task/:taskid toggles the
// completed flag, matching the public API this service replaces.
type TaskModule struct {
	Handler *handlers.TaskHandler
	JWT     *helpers.JWTManager
}

func NewTaskModule(h *handlers.TaskHandler, jwt *helpers.JWTManager) *TaskModule {
	return &TaskModule{Handler: h, JWT: jwt}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()))
	{
		auth.POST("/newtask", m.Handler.Add)
		auth.GET("/task/:taskid", m.Handler.Toggle)
		auth.DELETE("/task/:taskid", m.Handler.Remove)
	}
}
