package controllers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ogserve/config"
	"ogserve/database"
	"ogserve/imagecache"
	"ogserve/middlewares"
	"ogserve/models"
	"ogserve/profiles"
	"ogserve/render"
	"ogserve/routes"
	"ogserve/signing"
	"ogserve/storage"
	"ogserve/tasks"
)

const testSecret = "test-secret"

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	config.C = &config.Config{
		Env:                 "production", // keeps cache staleness deterministic
		BaseURL:             "http://ogserve.test",
		SecretKey:           testSecret,
		DailyUsageLimit:     0,
		MonthlyUsageLimit:   0,
		UsageWarningPercent: 0.8,
		RenderMaxAttempts:   2,
		FetchTimeout:        2 * time.Second,
		CacheStaleAfter:     48 * time.Hour,
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	database.DB = db
	database.AutoMigrate()

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	storage.Default = store

	tasks.Init(1, 64)
	t.Cleanup(func() { tasks.Default.Stop() })

	imagecache.Init(config.C)

	render.Default = render.New(render.NewFetcher(config.C.FetchTimeout), func(key string) bool {
		return profiles.HasProSubscription(database.DB, key)
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	routes.Register(app)
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dst))
}

func TestGenerateUnsignedPNG(t *testing.T) {
	app := setupApp(t)

	resp := doGet(t, app, "/g?style=base&title=Hello+World")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", resp.Header.Get("Cache-Control"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestGenerateJPEG(t *testing.T) {
	app := setupApp(t)

	resp := doGet(t, app, "/g?style=base&title=Hello&format=jpeg")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte{0xFF, 0xD8}))
}

func TestGenerateRejectsUnknownStyle(t *testing.T) {
	app := setupApp(t)
	resp := doGet(t, app, "/g?style=hologram&title=Hello")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body struct {
		ErrorType string `json:"error_type"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "validation_error", body.ErrorType)
}

func TestGenerateRecordsAttemptBeforeResponding(t *testing.T) {
	app := setupApp(t)

	resp := doGet(t, app, "/g?style=base&title=Audit+trail")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The attempt row must be visible as soon as the response is, not
	// eventually via the task queue.
	var attempts []models.RenderAttempt
	require.NoError(t, database.DB.Find(&attempts).Error)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Success)
	assert.Equal(t, "base", attempts[0].Style)
	assert.Equal(t, 1, attempts[0].AttemptNumber)

	resp = doGet(t, app, "/g?style=hologram&title=Audit+trail")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	require.NoError(t, database.DB.Order("id").Find(&attempts).Error)
	require.Len(t, attempts, 2)
	assert.False(t, attempts[1].Success)
	assert.Equal(t, "validation_error", attempts[1].ErrorType)
}

func TestGenerateSignedURL(t *testing.T) {
	app := setupApp(t)

	params := url.Values{}
	params.Set("style", "base")
	params.Set("title", "Signed request")
	signed, _ := signing.Sign(params, time.Hour, time.Now().UTC(), testSecret)

	resp := doGet(t, app, "/g?"+signed.Encode())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cc := resp.Header.Get("Cache-Control")
	assert.True(t, strings.HasPrefix(cc, "public, max-age="), cc)
	assert.NotContains(t, cc, "immutable", "signed urls must not be cached past expiry")
}

func TestGenerateTamperedSignature(t *testing.T) {
	app := setupApp(t)

	params := url.Values{}
	params.Set("style", "base")
	params.Set("title", "Original title")
	signed, _ := signing.Sign(params, time.Hour, time.Now().UTC(), testSecret)
	signed.Set("title", "Tampered title")

	resp := doGet(t, app, "/g?"+signed.Encode())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGenerateExpiredSignature(t *testing.T) {
	app := setupApp(t)

	params := url.Values{}
	params.Set("style", "base")
	params.Set("title", "Old news")
	signed, _ := signing.Sign(params, time.Hour, time.Now().UTC().Add(-2*time.Hour), testSecret)

	resp := doGet(t, app, "/g?"+signed.Encode())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGenerateRequireSignedURLs(t *testing.T) {
	app := setupApp(t)
	config.C.RequireSignedURLs = true

	resp := doGet(t, app, "/g?style=base&title=Unsigned")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGenerateQuotaBlocks(t *testing.T) {
	app := setupApp(t)
	config.C.DailyUsageLimit = 3

	profile := models.Profile{Email: "quota@example.com"}
	require.NoError(t, database.DB.Create(&profile).Error)

	// A limit of 3 admits two renders; vary the title so each one counts a miss.
	for i := 0; i < 2; i++ {
		resp := doGet(t, app, "/g?style=base&title=attempt"+string(rune('a'+i))+"&key="+profile.Key)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "3", strings.Split(resp.Header.Get("X-Usage-Daily"), "/")[1])
	}

	resp := doGet(t, app, "/g?style=base&title=blocked&key="+profile.Key)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "2/3", resp.Header.Get("X-Usage-Daily"))

	var body struct {
		Error  string   `json:"error"`
		Scopes []string `json:"scopes"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, []string{"daily"}, body.Scopes)
}

func TestGenerateQuotaWarningHeader(t *testing.T) {
	app := setupApp(t)
	config.C.DailyUsageLimit = 10 // warn threshold at 8

	profile := models.Profile{Email: "warn@example.com"}
	require.NoError(t, database.DB.Create(&profile).Error)

	var warned bool
	for i := 0; i < 8; i++ {
		resp := doGet(t, app, "/g?style=base&title=warn"+string(rune('a'+i))+"&key="+profile.Key)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		if resp.Header.Get("X-Usage-Quota-Warning") == "daily" {
			warned = true
		}
	}
	assert.True(t, warned, "crossing 80%% of the daily limit sets the warning header")
}

func TestSignEndpoint(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/sign", map[string]any{
		"params":             map[string]any{"style": "base", "title": "Signed via API", "quality": 85},
		"expires_in_seconds": 600,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SignedURL string `json:"signed_url"`
		ExpiresAt int64  `json:"expires_at"`
	}
	decodeJSON(t, resp, &body)

	u, err := url.Parse(body.SignedURL)
	require.NoError(t, err)
	assert.Equal(t, "/g", u.Path)
	assert.Equal(t, "85", u.Query().Get("quality"), "integer params must not grow decimals")

	expiresAt, err := signing.Verify(u.Query(), time.Now().UTC(), testSecret)
	require.NoError(t, err)
	require.NotNil(t, expiresAt)
	assert.Equal(t, body.ExpiresAt, expiresAt.Unix())
}

func TestSignEndpointRejectsEmptyParams(t *testing.T) {
	app := setupApp(t)
	resp := doJSON(t, app, http.MethodPost, "/api/sign", map[string]any{"params": map[string]any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestOnboardingMetaTags(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/onboarding/meta", map[string]any{
		"page_url":           "https://example.com/jobs/senior-engineer",
		"style":              "job_logo",
		"site":               "x",
		"font":               "helvetica",
		"title":              "Senior Engineering Lead",
		"subtitle":           "Build and ship resilient systems",
		"eyebrow":            "Remote",
		"image_url":          "https://example.com/logo.png",
		"format":             "jpeg",
		"quality":            80,
		"version":            "v2026",
		"expires_in_seconds": 600,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SignedURL       string            `json:"signed_url"`
		ExpiresAt       int64             `json:"expires_at"`
		MetaTags        string            `json:"meta_tags"`
		ValidationLinks map[string]string `json:"validation_links"`
	}
	decodeJSON(t, resp, &body)

	u, err := url.Parse(body.SignedURL)
	require.NoError(t, err)
	assert.Equal(t, "/g", u.Path)

	query := u.Query()
	assert.Equal(t, "job_logo", query.Get("style"))
	assert.Equal(t, "jpeg", query.Get("format"))
	assert.Equal(t, "80", query.Get("quality"))
	assert.Equal(t, "v2026", query.Get("v"))
	assert.NotEmpty(t, query.Get("sig"))
	assert.NotEmpty(t, query.Get("exp"))

	expiresAt, err := signing.Verify(query, time.Now().UTC(), testSecret)
	require.NoError(t, err)
	require.NotNil(t, expiresAt)
	assert.Equal(t, body.ExpiresAt, expiresAt.Unix())

	assert.Contains(t, body.MetaTags, `<meta property="og:title"`)
	assert.Contains(t, body.MetaTags, "twitter:image")
	assert.Contains(t, body.MetaTags, htmlEscapeForTest(body.SignedURL))
	assert.True(t, strings.HasPrefix(
		body.ValidationLinks["Facebook Sharing Debugger"],
		"https://developers.facebook.com/tools/debug/"))
	assert.Contains(t, body.ValidationLinks, "LinkedIn Post Inspector")
	assert.Contains(t, body.ValidationLinks, "Twitter Card Validator")
}

// meta tag content is attribute-escaped, so the signed URL appears with &amp;.
func htmlEscapeForTest(s string) string {
	return strings.ReplaceAll(s, "&", "&amp;")
}

func TestWordPressIntegrationMapping(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/integrations/wordpress", map[string]any{
		"key":       "wpkey12345",
		"post_name": "my-first-post",
		"excerpt":   "A short excerpt",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SignedURL  string   `json:"signed_url"`
		PHPSnippet string   `json:"php_snippet"`
		Fallbacks  []string `json:"fallbacks"`
		Mapped     struct {
			Title    string `json:"title"`
			Subtitle string `json:"subtitle"`
		} `json:"mapped"`
	}
	decodeJSON(t, resp, &body)

	assert.Equal(t, "My First Post", body.Mapped.Title, "slug falls back to a titlecased title")
	assert.Equal(t, "A short excerpt", body.Mapped.Subtitle)
	assert.Equal(t, []string{"image_missing"}, body.Fallbacks)
	assert.Contains(t, body.PHPSnippet, "og:image")

	u, err := url.Parse(body.SignedURL)
	require.NoError(t, err)
	_, err = signing.Verify(u.Query(), time.Now().UTC(), testSecret)
	assert.NoError(t, err)
}

func TestAdminMetricsRequiresAuth(t *testing.T) {
	app := setupApp(t)

	resp := doGet(t, app, "/api/admin/render-metrics")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminMetricsWithSuperuserKey(t *testing.T) {
	app := setupApp(t)

	admin := models.Profile{Email: "admin@example.com", Superuser: true}
	require.NoError(t, database.DB.Create(&admin).Error)

	resp := doGet(t, app, "/api/admin/render-metrics?api_key="+admin.Key)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		WindowHours int `json:"window_hours"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, 24, body.WindowHours)
}

func TestHealth(t *testing.T) {
	app := setupApp(t)
	resp := doGet(t, app, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBlankSquare(t *testing.T) {
	app := setupApp(t)
	resp := doGet(t, app, "/blank-square.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}
