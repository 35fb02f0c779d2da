package controllers

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	"github.com/gofiber/fiber/v2"

	"ogserve/config"
)

// Health serves GET /health for load balancer probes.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "env": config.C.Env})
}

var blankSquareOnce sync.Once
var blankSquarePNG []byte

// BlankSquare serves GET /blank-square.png: a plain white 200x200 square some
// platforms require as a fallback image. Encoded once, cached for the process.
func BlankSquare(c *fiber.Ctx) error {
	blankSquareOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 200, 200))
		draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
		var buf bytes.Buffer
		_ = png.Encode(&buf, img)
		blankSquarePNG = buf.Bytes()
	})

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="blank-square.png"`)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(blankSquarePNG)
}
