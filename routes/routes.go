package routes

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ogserve/controllers"
	"ogserve/middlewares"
)

// Register wires every route onto the app.
func Register(app *fiber.App) {
	app.Get("/health", controllers.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/blank-square.png", controllers.BlankSquare)

	app.Get("/g", controllers.GenerateImage)

	api := app.Group("/api")
	api.Post("/sign", controllers.SignURL)
	api.Post("/onboarding/meta", controllers.MetaTags)
	api.Post("/integrations/wordpress", controllers.WordPressIntegration)

	admin := api.Group("/admin", middlewares.AdminOnly)
	admin.Get("/render-metrics", controllers.RenderMetrics)
}
