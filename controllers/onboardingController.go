package controllers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"ogserve/config"
	"ogserve/middlewares"
	"ogserve/signing"
	"ogserve/tasks"
)

type metaTagsRequest struct {
	PageURL          string `json:"page_url" validate:"required,url"`
	Style            string `json:"style"`
	Site             string `json:"site"`
	Font             string `json:"font"`
	Title            string `json:"title"`
	Subtitle         string `json:"subtitle"`
	Eyebrow          string `json:"eyebrow"`
	ImageURL         string `json:"image_url"`
	Format           string `json:"format"`
	Quality          int    `json:"quality" validate:"omitempty,min=1,max=100"`
	Version          string `json:"version"`
	ExpiresInSeconds int    `json:"expires_in_seconds" validate:"omitempty,min=1"`
	Key              string `json:"key"`
	Email            string `json:"email" validate:"omitempty,email"`
}

// MetaTags serves POST /api/onboarding/meta: signs the full render parameter
// set, builds a ready-to-paste HTML head block around the signed URL, and
// returns validator links for the major platforms.
func MetaTags(c *fiber.Ctx) error {
	var body metaTagsRequest
	if err := middlewares.BindAndValidate(c, &body); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("style", defaultString(body.Style, "base"))
	params.Set("site", defaultString(body.Site, "x"))
	params.Set("title", defaultString(body.Title, "Your page title"))
	setIfPresent := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	setIfPresent("font", body.Font)
	setIfPresent("subtitle", body.Subtitle)
	setIfPresent("eyebrow", body.Eyebrow)
	setIfPresent("image_url", body.ImageURL)
	setIfPresent("format", body.Format)
	setIfPresent("v", body.Version)
	setIfPresent("key", body.Key)
	if body.Quality > 0 {
		params.Set("quality", strconv.Itoa(body.Quality))
	}

	ttl := time.Duration(body.ExpiresInSeconds) * time.Second
	signed, expiresAt := signing.Sign(params, ttl, time.Now().UTC(), config.C.SecretKey)
	signedURL := config.C.BaseURL + "/g?" + signed.Encode()

	var tags strings.Builder
	writeTag := func(format string, args ...any) {
		tags.WriteString(fmt.Sprintf(format, args...))
		tags.WriteString("\n")
	}
	writeTag(`<meta property="og:title" content="%s" />`, htmlEscape(defaultString(body.Title, "Your page title")))
	if body.Subtitle != "" {
		writeTag(`<meta property="og:description" content="%s" />`, htmlEscape(body.Subtitle))
	}
	writeTag(`<meta property="og:url" content="%s" />`, htmlEscape(body.PageURL))
	writeTag(`<meta property="og:image" content="%s" />`, htmlEscape(signedURL))
	writeTag(`<meta name="twitter:card" content="summary_large_image" />`)
	writeTag(`<meta name="twitter:image" content="%s" />`, htmlEscape(signedURL))

	if body.Email != "" {
		email := body.Email
		tasks.Default.Enqueue("mailing-list-subscribe", func() error {
			return tasks.AddEmailToMailingList(config.C.ButtondownAPIKey, email, "onboarding")
		})
	}

	return c.JSON(fiber.Map{
		"signed_url": signedURL,
		"expires_at": expiresAt.Unix(),
		"meta_tags":  tags.String(),
		"validation_links": fiber.Map{
			"Facebook Sharing Debugger": "https://developers.facebook.com/tools/debug/?q=" + url.QueryEscape(body.PageURL),
			"LinkedIn Post Inspector":   "https://www.linkedin.com/post-inspector/inspect/" + url.QueryEscape(body.PageURL),
			"Twitter Card Validator":    "https://cards-dev.twitter.com/validator",
		},
	})
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

var htmlEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
