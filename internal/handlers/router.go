package handlers

import (
	"errors"

	"washplan/internal/app"
	"washplan/internal/handlers/middleware"
	"washplan/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	if app.Registry != nil {
		router.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}),
		))
	}

	setupWebSocketRoute(router, app)

	api := router.Group("/api")
	HealthHandler(api, app.Config, app.Database)
	NewScheduleHandler(*app, api).Register()

	return nil
}

// errorStatus maps the domain error kinds onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, types.ErrLockViolation):
		return fiber.StatusLocked
	case errors.Is(err, types.ErrPersistence):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func (h *Handler) respondError(c *fiber.Ctx, err error, fallback string) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		h.log.Er(fallback, err, "path", c.Path(), "traceID", middleware.GetTraceID(c))
		return c.Status(status).JSON(fiber.Map{"error": fallback})
	}
	if status == fiber.StatusServiceUnavailable {
		h.log.Er(fallback, err, "path", c.Path(), "traceID", middleware.GetTraceID(c))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
