package server

import (
	"github.com/labstack/echo/v4"

	"github.com/medlink/teleconsult/internal/application/config"
	"github.com/medlink/teleconsult/internal/infra/ports/http/handlers"
	"github.com/medlink/teleconsult/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	appointmentHandler *handlers.AppointmentHandler,
	iceHandler *handlers.IceHandler,
	wsHandler *handlers.WebSocketHandler,
	chatWSHandler *handlers.ChatWebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	api := e.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		v1 := api.Group("/v1")
		v1.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		{
			v1.GET("/me", authHandler.GetMe)
			v1.GET("/doctors", authHandler.GetDoctors)

			v1.GET("/ice", iceHandler.IceServers)

			v1.GET("/ws", wsHandler.Handle)
			v1.GET("/chat", chatWSHandler.Handle)

			v1.GET("/appointments", appointmentHandler.List)
			v1.POST("/appointments", appointmentHandler.Book)
			v1.POST("/appointments/:id/confirm", appointmentHandler.Confirm)
			v1.POST("/appointments/:id/decline", appointmentHandler.Decline)
			v1.POST("/appointments/:id/cancel", appointmentHandler.Cancel)
			v1.POST("/appointments/:id/complete", appointmentHandler.Complete)
		}
	}

	e.Static("/", "web")

	return e
}
