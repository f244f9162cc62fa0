package api

import (
	"github.com/SundayYogurt/school_service/docs"
	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/swaggo/fiber-swagger"
)

func RegisterSwagger(app *fiber.App) {
	swagger := app.Group("/swagger")

	// swagger doc uses the host/scheme the caller actually used
	swagger.Use(func(c *fiber.Ctx) error {
		docs.SwaggerInfo.Host = c.Hostname()
		docs.SwaggerInfo.Schemes = []string{c.Protocol()}
		return c.Next()
	})

	swagger.Get("/*", fiberSwagger.WrapHandler)
}
