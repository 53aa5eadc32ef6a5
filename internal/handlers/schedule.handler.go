package handlers

import (
	"washplan/internal/app"
	scheduleController "washplan/internal/controllers/schedule"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type ScheduleHandler struct {
	Handler
	scheduleController scheduleController.ScheduleControllerInterface
}

func NewScheduleHandler(app app.App, router fiber.Router) *ScheduleHandler {
	log := logger.New("handlers").File("schedule_handler")
	return &ScheduleHandler{
		scheduleController: app.Controllers.Schedule,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ScheduleHandler) Register() {
	schedule := h.router.Group("/schedule", h.middleware.Actor())

	weeks := schedule.Group("/weeks/:week")
	weeks.Post("/regenerate", h.regenerate)
	weeks.Get("/tasks", h.listTasks)
	weeks.Get("/conflicts", h.getConflicts)

	tasks := schedule.Group("/tasks")
	tasks.Post("", h.addTask)
	tasks.Put("/worker", h.reassignWorker)
	tasks.Put("/wash-type", h.overrideWashType)
	tasks.Delete("", h.deleteTask)

	customers := schedule.Group("/customers/:id")
	customers.Get("/audit", h.queryAudit)
	customers.Get("/history", h.getHistory)

	schedule.Post("/visits/complete", h.completeVisits)
}

func (h *ScheduleHandler) regenerate(c *fiber.Ctx) error {
	result, err := h.scheduleController.Regenerate(c.UserContext(), c.Params("week"))
	if err != nil {
		return h.respondError(c, err, "Failed to regenerate schedule")
	}
	return c.JSON(result)
}

func (h *ScheduleHandler) listTasks(c *fiber.Ctx) error {
	response, err := h.scheduleController.ListTasks(c.UserContext(), c.Params("week"))
	if err != nil {
		return h.respondError(c, err, "Failed to list tasks")
	}
	return c.JSON(response)
}

func (h *ScheduleHandler) getConflicts(c *fiber.Ctx) error {
	report, err := h.scheduleController.GetConflicts(c.UserContext(), c.Params("week"))
	if err != nil {
		return h.respondError(c, err, "Failed to detect conflicts")
	}
	return c.JSON(report)
}

func (h *ScheduleHandler) addTask(c *fiber.Ctx) error {
	var req scheduleController.AddTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.scheduleController.AddTask(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err, "Failed to add task")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"task": task,
	})
}

func (h *ScheduleHandler) reassignWorker(c *fiber.Ctx) error {
	var req scheduleController.ReassignWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.scheduleController.ReassignWorker(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err, "Failed to reassign worker")
	}
	return c.JSON(fiber.Map{
		"task": task,
	})
}

func (h *ScheduleHandler) overrideWashType(c *fiber.Ctx) error {
	var req scheduleController.OverrideWashTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.scheduleController.OverrideWashType(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err, "Failed to override wash type")
	}
	return c.JSON(fiber.Map{
		"task": task,
	})
}

func (h *ScheduleHandler) deleteTask(c *fiber.Ctx) error {
	var req scheduleController.DeleteTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.scheduleController.DeleteTask(c.UserContext(), req); err != nil {
		return h.respondError(c, err, "Failed to delete task")
	}
	return c.Status(fiber.StatusNoContent).Send(nil)
}

func (h *ScheduleHandler) queryAudit(c *fiber.Ctx) error {
	response, err := h.scheduleController.QueryAudit(
		c.UserContext(),
		c.Params("id"),
		scheduleController.AuditFilter{
			Week:  c.Query("week"),
			Since: c.Query("since"),
			Until: c.Query("until"),
			Limit: c.Query("limit"),
		},
	)
	if err != nil {
		return h.respondError(c, err, "Failed to query audit log")
	}
	return c.JSON(response)
}

func (h *ScheduleHandler) getHistory(c *fiber.Ctx) error {
	response, err := h.scheduleController.GetHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "Failed to load wash history")
	}
	return c.JSON(response)
}

func (h *ScheduleHandler) completeVisits(c *fiber.Ctx) error {
	response, err := h.scheduleController.CompleteVisits(c.UserContext(), c.Query("asOf"))
	if err != nil {
		return h.respondError(c, err, "Failed to complete visits")
	}
	return c.JSON(response)
}
