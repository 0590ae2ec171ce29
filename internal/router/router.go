package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/gatewise/backend/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, sessionGuard func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/user/sign-in", handlers.Auth.SignIn)
	r.PUT("/user/sign-up", handlers.Auth.SignUp)
	r.GET("/user/sign-out", handlers.Auth.SignOut)

	// Protected routes
	r.GET("/user/profile", sessionGuard(handlers.Profile.GetProfile))

	return r
}
