package router

import (
	"github.com/ho-ssain/HkToDoServer/internal/application"
	"github.com/ho-ssain/HkToDoServer/internal/container"
	"github.com/ho-ssain/HkToDoServer/internal/infrastructure/mongodb"
	handlers "github.com/ho-ssain/HkToDoServer/internal/interface/http"
	"github.com/ho-ssain/HkToDoServer/internal/router/modules"
)

func buildService() *application.Service {
	cfg := container.GetConfig()
	return &application.Service{
		Repo:         mongodb.NewUserRepository(container.GetUsersColl()),
		JWT:          container.GetJWT(),
		Mailer:       container.GetMailer(),
		GCS:          container.GetGCS(),
		GCSBucket:    cfg.GCSBucket,
		GCSFolder:    cfg.GCSAvatarFolder,
		OTPExpire:    cfg.OTPExpire,
		ResetExpire:  cfg.ResetOTPExpire,
		Redis:        container.GetRedis(),
		Logger:       container.GetLogger(),
		ES:           container.GetES(),
		ESUsersIndex: cfg.ESUsersIndex,
	}
}

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svc := buildService()

	accountHandler := handlers.NewAccountHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	taskHandler := handlers.NewTaskHandler(svc, container.GetLogger())

	r.Add(modules.NewAccountModule(accountHandler, container.GetJWT()))
	r.Add(modules.NewTaskModule(taskHandler, container.GetJWT()))
}
