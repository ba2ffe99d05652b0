package routes

import (
	"time"

	"estatemap/api/handler"
	"estatemap/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Properties     *handler.PropertyHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
	UploadRate     *middleware.RateLimiter
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, propertyHandler *handler.PropertyHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Properties:     propertyHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
		UploadRate:     middleware.NewRateLimiter(rate.Limit(1), 5, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.POST("/auth/register", r.Auth.Register, r.AuthRate.Middleware())
	e.POST("/auth/verify-email", r.Auth.VerifyEmail, r.AuthRate.Middleware())
	e.POST("/auth/resend-code", r.Auth.ResendCode, r.LoginRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/refresh", r.Auth.Refresh, r.AuthRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, r.AuthMiddleware.RequireAuth)
	e.POST("/auth/logout-all", r.Auth.LogoutAll, r.AuthMiddleware.RequireAuth)
	e.POST("/auth/password/forgot", r.Auth.PasswordForgot, r.LoginRate.Middleware())
	e.POST("/auth/password/reset", r.Auth.PasswordReset, r.AuthRate.Middleware())
	e.POST("/auth/email/change", r.Auth.RequestEmailChange, r.AuthMiddleware.RequireAuth, r.AuthRate.Middleware())
	e.POST("/auth/email/confirm", r.Auth.ConfirmEmailChange, r.AuthMiddleware.RequireAuth, r.AuthRate.Middleware())

	e.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)
	e.GET("/admin/users", r.Auth.AdminListUsers, r.AuthMiddleware.RequireAuth, middleware.RequireRole("admin"))

	e.GET("/properties", r.Properties.List)
	e.GET("/properties/:id", r.Properties.Get)
	e.POST("/properties", r.Properties.Create, r.AuthMiddleware.RequireAuth)
	e.GET("/properties/mine", r.Properties.ListMine, r.AuthMiddleware.RequireAuth)
	e.PUT("/properties/:id", r.Properties.Update, r.AuthMiddleware.RequireAuth)
	e.DELETE("/properties/:id", r.Properties.Delete, r.AuthMiddleware.RequireAuth)
	e.POST("/properties/:id/images", r.Properties.UploadImage, r.AuthMiddleware.RequireAuth, r.UploadRate.Middleware())
	e.DELETE("/properties/:id/images/:imageId", r.Properties.DeleteImage, r.AuthMiddleware.RequireAuth)
}
