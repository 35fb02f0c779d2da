package controllers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"ogserve/config"
	"ogserve/middlewares"
	"ogserve/signing"
)

type signRequest struct {
	Params           map[string]any `json:"params" validate:"required,min=1"`
	ExpiresInSeconds int            `json:"expires_in_seconds" validate:"omitempty,min=1"`
}

// SignURL serves POST /api/sign: returns a signed /g URL embedding the given
// parameters and an expiry.
func SignURL(c *fiber.Ctx) error {
	var body signRequest
	if err := middlewares.BindAndValidate(c, &body); err != nil {
		return err
	}

	params := url.Values{}
	for key, value := range body.Params {
		params.Set(key, paramString(value))
	}

	ttl := time.Duration(body.ExpiresInSeconds) * time.Second
	signed, expiresAt := signing.Sign(params, ttl, time.Now().UTC(), config.C.SecretKey)

	return c.JSON(fiber.Map{
		"signed_url": config.C.BaseURL + "/g?" + signed.Encode(),
		"expires_at": expiresAt.Unix(),
	})
}

// paramString renders a JSON value the way it would appear in a query string.
// JSON numbers arrive as float64; whole values must not grow a decimal point.
func paramString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
