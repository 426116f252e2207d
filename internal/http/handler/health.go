package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"prdapi/internal/mcp"
	"prdapi/internal/repository"
)

const indexPingTimeout = 2 * time.Second

// Info describes the running service for the health and root endpoints.
type Info struct {
	Service string
	Version string
	Bucket  string
	// Index is the index database name, or "disabled".
	Index   string
	Project string
}

// HealthCheck godoc
// @Summary Health check
// @Description Reports service identity and index connectivity. The index is optional, so status stays healthy when it is down.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(info Info, index repository.IndexRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		indexStatus := "disabled"
		if info.Index != "disabled" && index != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), indexPingTimeout)
			defer cancel()
			indexStatus = "up"
			if err := index.Ping(ctx); err != nil {
				indexStatus = "down"
			}
		}
		return c.JSON(fiber.Map{
			"status":       "healthy",
			"service":      info.Service,
			"bucket":       info.Bucket,
			"index":        info.Index,
			"index_status": indexStatus,
			"project":      info.Project,
		})
	}
}

// LivenessProbe answers 200 with an empty body.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Root lists the public endpoints and tools.
func Root(info Info) fiber.Handler {
	tools := make([]string, 0, 3)
	for _, t := range mcp.Tools() {
		tools = append(tools, t.Name)
	}
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     info.Service,
			"version":     info.Version,
			"description": "Product requirements document storage and retrieval",
			"endpoints": fiber.Map{
				"/sse":                "Tool protocol endpoint (POST)",
				"/prds/search":        "Search documents (GET)",
				"/prds/{id}":          "Get document (GET)",
				"/prds":               "Store document (POST)",
				"/health":             "Health check (GET)",
				"/metrics":            "Prometheus metrics (GET)",
				"/swagger/index.html": "API documentation (GET)",
				"/":                   "API information (GET)",
			},
			"tools": tools,
		})
	}
}
