package controllers

import (
	"washplan/internal/services"

	scheduleController "washplan/internal/controllers/schedule"
)

type Controllers struct {
	Schedule scheduleController.ScheduleControllerInterface
}

func New(services services.Service) Controllers {
	return Controllers{
		Schedule: scheduleController.New(services),
	}
}
