package handlers

import (
	"washplan/internal/app"
	"washplan/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	if app.Websocket == nil {
		return
	}

	ws := router.Group("/ws", app.Middleware.Actor())
	ws.Use("/schedule", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			c.Locals("actor", middleware.GetActor(c))
			if week := c.Query("week"); week != "" {
				c.Locals("week", week)
			}
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/schedule", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleWebSocket(c)
	}))
}
