package app

import (
	"context"

	"washplan/config"
	"washplan/internal/controllers"
	"washplan/internal/database"
	"washplan/internal/events"
	"washplan/internal/handlers/middleware"
	"washplan/internal/jobs"
	"washplan/internal/metrics"
	"washplan/internal/repositories"
	"washplan/internal/services"
	"washplan/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config
	Registry   *prometheus.Registry

	Repos       repositories.Repository
	Services    services.Service
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	repos := repositories.New(db, config.ScheduleCacheTTL())

	app, err := Assemble(config, db, repos)
	if err != nil {
		_ = db.Close()
		return &App{}, log.Err("failed to assemble app", err)
	}

	if err := app.validate(); err != nil {
		_ = app.Close()
		return &App{}, log.Err("failed to validate app", err)
	}

	if err := app.Services.Scheduler.Start(context.Background()); err != nil {
		_ = app.Close()
		return &App{}, log.Err("failed to start scheduler", err)
	}

	return app, nil
}

// Assemble wires services, controllers and transports around an already opened
// database and schedule store.
func Assemble(config config.Config, db database.DB, repos repositories.Repository) (*App, error) {
	log := logger.New("app").Function("Assemble")

	anchor, err := config.CycleAnchor()
	if err != nil {
		return nil, log.Err("invalid cycle anchor", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sink, err := metrics.NewPromSink(registry)
	if err != nil {
		return nil, log.Err("failed to register metrics", err)
	}

	eventBus := events.New(db.Cache.Events)

	service := services.New(db, repos.Schedule, services.Options{
		CycleAnchor: anchor,
		Metrics:     sink,
		Notifier:    services.NewEventNotifier(eventBus),
	})

	if err := jobs.RegisterAllJobs(service.Scheduler, config, service); err != nil {
		return nil, log.Err("failed to register jobs", err)
	}

	websocket, err := websockets.New(eventBus)
	if err != nil {
		return nil, log.Err("failed to create websocket manager", err)
	}

	return &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware.New(config),
		Websocket:   websocket,
		EventBus:    eventBus,
		Registry:    registry,
		Repos:       repos,
		Services:    service,
		Controllers: controllers.New(service),
	}, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Repos.Schedule == nil {
		return log.ErrMsg("schedule store is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Registry,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Assigner,
		a.Services.Conflicts,
		a.Services.History,
		a.Controllers.Schedule,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if a.Websocket != nil {
		a.Websocket.Close()
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
