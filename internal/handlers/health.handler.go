package handlers

import (
	"washplan/config"
	"washplan/internal/database"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, config config.Config, db database.DB) {
	router.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		code := fiber.StatusOK
		if db.SQL == nil {
			status = "memory"
		} else if err := db.Ping(c.UserContext()); err != nil {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"version": config.GeneralVersion,
			"service": "washplan_api",
		})
	})
}
