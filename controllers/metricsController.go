package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"ogserve/database"
	"ogserve/observability"
)

// RenderMetrics serves GET /api/admin/render-metrics. The hours query param
// sets the trailing window, defaulting to 24.
func RenderMetrics(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 24*30 {
		return fiber.NewError(fiber.StatusBadRequest, "hours must be between 1 and 720")
	}

	metrics, err := observability.BuildRenderMetrics(database.DB, hours, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(metrics)
}
