package controllers

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/gofiber/fiber/v2"

	"ogserve/config"
	"ogserve/middlewares"
	"ogserve/signing"
)

type wordpressRequest struct {
	Key string `json:"key" validate:"required"`

	Title     string `json:"title"`
	PostTitle string `json:"post_title"`
	SEOTitle  string `json:"seo_title"`
	PostName  string `json:"post_name"` // slug

	Subtitle    string `json:"subtitle"`
	Excerpt     string `json:"excerpt"`
	Description string `json:"description"`

	FeaturedImageURL string `json:"featured_image_url"`
	FeaturedImage    string `json:"featured_image"`
	LogoURL          string `json:"logo_url"`
	FallbackImageURL string `json:"fallback_image_url"`

	Style string `json:"style"`
	Site  string `json:"site"`
}

// WordPressIntegration serves POST /api/integrations/wordpress: maps the
// loosely-shaped fields a WordPress plugin sends onto render parameters and
// returns both a signed URL and a PHP snippet for the theme's header.
func WordPressIntegration(c *fiber.Ctx) error {
	var body wordpressRequest
	if err := middlewares.BindAndValidate(c, &body); err != nil {
		return err
	}

	title := firstNonEmpty(body.Title, body.PostTitle, body.SEOTitle, slugToTitle(body.PostName))
	subtitle := firstNonEmpty(body.Subtitle, body.Excerpt, body.Description)
	imageURL := firstNonEmpty(body.FeaturedImageURL, body.FeaturedImage, body.LogoURL)

	var fallbacks []string
	if imageURL == "" {
		if body.FallbackImageURL != "" {
			imageURL = body.FallbackImageURL
			fallbacks = append(fallbacks, "image_fallback")
		} else {
			fallbacks = append(fallbacks, "image_missing")
		}
	}

	params := url.Values{}
	params.Set("style", defaultString(body.Style, "base"))
	params.Set("site", defaultString(body.Site, "x"))
	params.Set("title", defaultString(title, "Untitled post"))
	if subtitle != "" {
		params.Set("subtitle", subtitle)
	}
	if imageURL != "" {
		params.Set("image_url", imageURL)
	}
	params.Set("key", body.Key)

	signed, expiresAt := signing.Sign(params, signing.MaxTTL, time.Now().UTC(), config.C.SecretKey)
	signedURL := config.C.BaseURL + "/g?" + signed.Encode()

	snippet := fmt.Sprintf(`<?php
// Add to your theme's header.php inside <head>.
$ogserve_image = %s;
echo '<meta property="og:image" content="' . esc_url( $ogserve_image ) . '" />';
echo '<meta name="twitter:card" content="summary_large_image" />';
echo '<meta name="twitter:image" content="' . esc_url( $ogserve_image ) . '" />';
`, phpSingleQuote(signedURL))

	return c.JSON(fiber.Map{
		"signed_url":  signedURL,
		"expires_at":  expiresAt.Unix(),
		"php_snippet": snippet,
		"fallbacks":   fallbacks,
		"mapped": fiber.Map{
			"title":     title,
			"subtitle":  subtitle,
			"image_url": imageURL,
		},
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// slugToTitle turns "my-first-post" into "My First Post".
func slugToTitle(slug string) string {
	words := strings.FieldsFunc(strings.TrimSpace(slug), func(r rune) bool { return r == '-' || r == '_' })
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func phpSingleQuote(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `'`, `\'`) + "'"
}
