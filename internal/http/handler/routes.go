package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"prdapi/internal/repository"
	"prdapi/internal/service"
)

// Deps are the collaborators the HTTP routes need.
type Deps struct {
	Service service.DocumentService
	Index   repository.IndexRepository
	Info    Info
	// Gatherer backs /metrics. Nil skips the route.
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/", Root(d.Info))
	app.Get("/health", HealthCheck(d.Info, d.Index))
	app.Get("/healthz", LivenessProbe())

	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	prds := app.Group("/prds")
	prds.Get("/search", SearchPRDs(d.Service))
	prds.Get("/:id", GetPRD(d.Service))
	prds.Post("/", StorePRD(d.Service))

	app.Post("/sse", MCP(d.Service, d.Log))
}
