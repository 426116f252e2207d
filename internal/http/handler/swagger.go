package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"prdapi/docs"
)

// Swagger serves the UI and doc.json. Host and scheme follow the request so "Try it out" works
// behind proxies; defaultHost (APP_HOST) is used when the request carries no Host header.
func Swagger(defaultHost string) fiber.Handler {
	docs.SwaggerInfo.Host = defaultHost
	return func(c *fiber.Ctx) error {
		docs.SwaggerInfo.Host = swaggerHost(c.Get(fiber.HeaderHost), defaultHost)
		docs.SwaggerInfo.Schemes = []string{swaggerScheme(c.Protocol(), c.Get(fiber.HeaderXForwardedProto))}
		return swagger.HandlerDefault(c)
	}
}

func swaggerHost(host, fallback string) string {
	if host = strings.TrimSpace(host); host != "" {
		return host
	}
	return fallback
}

func swaggerScheme(protocol, forwarded string) string {
	if p := strings.TrimSpace(strings.Split(forwarded, ",")[0]); p != "" {
		return p
	}
	return protocol
}
