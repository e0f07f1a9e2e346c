package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"currencyrates/internal/api"
	"currencyrates/internal/api/middleware"
	"currencyrates/internal/service"
)

func (app *App) initHTTP(importer service.Importer, lister service.Lister, conv service.ConverterInterface, enq api.BackfillEnqueuer) {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(chimiddleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.TokenAuth(app.cfg.Importer.CronToken, app.logger))
		r.Get("/cron/import", api.HandleCronImport(importer, app.cfg.Importer.Table,
			time.Duration(app.cfg.Importer.RunTimeoutSec)*time.Second))
		r.Post("/rates/backfill", api.HandleBackfill(enq))
	})

	r.Get("/rates", api.HandleListRates(lister))
	r.Get("/rates/convert", api.HandleConvert(conv))
	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(
		api.DBCheck(app.db),
		api.RedisCheck("Redis (cache)", app.rdbCache),
		api.RedisCheck("Redis (queue)", app.rdbAsynq),
	))

	if app.cfg.Server.ServeMetrics {
		r.Handle("/metrics", api.MetricsHandler(app.registry))
	}

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon {
		mon := asynqmon.New(asynqmon.Options{
			RootPath:     "/monitoring",
			RedisConnOpt: asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr},
			ReadOnly:     true,
		})
		r.Handle(mon.RootPath()+"/*", mon)
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(app.cfg.Importer.RunTimeoutSec+15) * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
