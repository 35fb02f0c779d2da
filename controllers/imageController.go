package controllers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	zlog "github.com/rs/zerolog/log"

	"ogserve/config"
	"ogserve/database"
	"ogserve/imagecache"
	"ogserve/observability"
	"ogserve/profiles"
	"ogserve/render"
	"ogserve/signing"
	"ogserve/tasks"
	"ogserve/usage"
)

// GenerateImage serves GET /g: verify the signature, check quotas, then serve
// from cache or render with retries. The response body is always either image
// bytes or a small JSON error.
func GenerateImage(c *fiber.Ctx) error {
	now := time.Now().UTC()
	params := queryValues(c)

	expiresAt, err := signing.Verify(params, now, config.C.SecretKey)
	if err != nil {
		return fiber.NewError(fiber.StatusForbidden, "invalid or expired signature")
	}
	if expiresAt == nil && config.C.RequireSignedURLs {
		return fiber.NewError(fiber.StatusForbidden, "signed url required")
	}

	req := requestFromValues(params)

	profile, err := profiles.ByKey(database.DB, req.Key)
	if err != nil {
		return err
	}
	var profileID *uint
	if profile != nil {
		profileID = &profile.ID
	}

	var state usage.State
	if profile != nil {
		limits := usage.Limits{
			Daily:       config.C.DailyUsageLimit,
			Monthly:     config.C.MonthlyUsageLimit,
			WarnPercent: config.C.UsageWarningPercent,
		}
		state, err = usage.RecordAttempt(database.DB, profile.ID, now, limits)
		if err != nil {
			return err
		}
		setUsageHeaders(c, state)
		if state.Blocked {
			observability.ObserveQuotaBlock(state.BlockedReasons)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":  "usage limit exceeded",
				"scopes": state.BlockedReasons,
			})
		}
	}

	cache := imagecache.Default
	row, data, err := cache.Lookup(c.Context(), req)
	if err != nil {
		return err
	}
	if data != nil {
		if cache.IsStale(row, now) {
			observability.ObserveCacheLookup("stale")
			enqueueRefresh(req, profileID)
		} else {
			observability.ObserveCacheLookup("hit")
		}
		return serveImage(c, req, data, expiresAt)
	}
	observability.ObserveCacheLookup("miss")

	data, renderErr := renderWithRetries(c.Context(), req, profileID)
	if renderErr != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":      "image generation failed",
			"error_type": render.Classify(renderErr),
		})
	}

	persisted := data
	tasks.Default.Enqueue("persist-image", func() error {
		_, err := imagecache.Default.Store(context.Background(), req, persisted, profileID)
		return err
	})

	return serveImage(c, req, data, expiresAt)
}

// renderWithRetries runs the render loop: up to RenderMaxAttempts tries,
// retrying only transient failures, recording every attempt.
func renderWithRetries(ctx context.Context, req render.Request, profileID *uint) ([]byte, error) {
	maxAttempts := config.C.RenderMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		data, err := render.Default.Render(ctx, req)
		duration := time.Since(start)

		tag := render.Classify(err)
		recordAttempt(profileID, req, err == nil, duration, tag, attempt)

		if err == nil {
			return data, nil
		}
		lastErr = err
		if !render.IsTransient(tag) {
			break
		}
		zlog.Warn().Str("style", req.Style).Str("error_type", tag).Int("attempt", attempt).
			Msg("retrying transient render failure")
	}
	return nil, lastErr
}

// recordAttempt writes the attempt row before the response goes out; the
// observability trail must never lose rows to a saturated task queue.
func recordAttempt(profileID *uint, req render.Request, success bool, duration time.Duration, errorType string, attempt int) {
	observability.ObserveRender(req.Style, success, duration, errorType)
	err := observability.RecordAttempt(database.DB, profileID, req.Key, req.Style,
		success, int(duration.Milliseconds()), errorType, attempt)
	if err != nil {
		zlog.Error().Str("style", req.Style).Err(err).Msg("recording render attempt failed")
	}
}

func enqueueRefresh(req render.Request, profileID *uint) {
	tasks.Default.Enqueue("refresh-stale-image", func() error {
		imagecache.Default.Refresh(context.Background(), req, profileID, func() ([]byte, error) {
			return renderWithRetries(context.Background(), req, profileID)
		})
		return nil
	})
}

func serveImage(c *fiber.Ctx, req render.Request, data []byte, expiresAt *time.Time) error {
	c.Set(fiber.HeaderContentType, req.ContentType())
	if expiresAt != nil {
		maxAge := int(time.Until(*expiresAt).Seconds())
		if maxAge < 0 {
			maxAge = 0
		}
		c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", maxAge))
	} else {
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	}
	return c.Send(data)
}

func setUsageHeaders(c *fiber.Ctx, state usage.State) {
	if state.DailyLimit > 0 {
		c.Set("X-Usage-Daily", fmt.Sprintf("%d/%d", state.DailyCount, state.DailyLimit))
	}
	if state.MonthlyLimit > 0 {
		c.Set("X-Usage-Monthly", fmt.Sprintf("%d/%d", state.MonthlyCount, state.MonthlyLimit))
	}
	if len(state.Warnings) > 0 {
		c.Set("X-Usage-Quota-Warning", strings.Join(state.Warnings, ","))
	}
}

func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

// requestFromValues maps the public query surface onto a render request.
// image_or_logo is the legacy alias for image_url.
func requestFromValues(values url.Values) render.Request {
	imageURL := values.Get("image_url")
	if imageURL == "" {
		imageURL = values.Get("image_or_logo")
	}
	quality, _ := strconv.Atoi(values.Get("quality"))
	maxKB, _ := strconv.Atoi(values.Get("max_kb"))

	return render.Normalize(render.Request{
		Style:    values.Get("style"),
		Site:     values.Get("site"),
		Font:     values.Get("font"),
		Title:    values.Get("title"),
		Subtitle: values.Get("subtitle"),
		Eyebrow:  values.Get("eyebrow"),
		ImageURL: imageURL,
		Format:   values.Get("format"),
		Quality:  quality,
		MaxKB:    maxKB,
		Version:  values.Get("v"),
		Key:      values.Get("key"),
	})
}
