package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"ogserve/config"
	"ogserve/database"
	"ogserve/profiles"
)

type adminClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// AdminOnly guards operator endpoints. Accepts either a superuser profile
// key (api_key query param or X-Api-Key header) or an HS256 bearer token
// with an admin claim.
func AdminOnly(c *fiber.Ctx) error {
	apiKey := c.Query("api_key")
	if apiKey == "" {
		apiKey = c.Get("X-Api-Key")
	}
	if apiKey != "" {
		profile, err := profiles.ByKey(database.DB, apiKey)
		if err != nil {
			return err
		}
		if profile != nil && profile.Superuser {
			return c.Next()
		}
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims := &adminClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(config.C.SecretKey), nil
		})
		if err == nil && token.Valid && claims.Admin {
			return c.Next()
		}
	}

	return fiber.NewError(fiber.StatusForbidden, "admin access required")
}
