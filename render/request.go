package render

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

// Styles form a closed set; each one maps to a compose function in styles.go.
const (
	StyleBase       = "base"
	StyleLogo       = "logo"
	StyleJobClassic = "job_classic"
	StyleJobLogo    = "job_logo"
	StyleJobClean   = "job_clean"
)

const (
	SiteX    = "x"
	SiteMeta = "meta"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Request is the immutable value describing one preview image. Two requests
// with equal fields are the same image; that equality is the cache fingerprint.
type Request struct {
	Style    string
	Site     string
	Font     string
	Title    string
	Subtitle string
	Eyebrow  string
	ImageURL string
	Format   string
	Quality  int // 0 means encoder default
	MaxKB    int // 0 means unbounded
	Version  string
	Key      string // owning profile key, empty for anonymous requests
}

var validStyles = map[string]bool{
	StyleBase: true, StyleLogo: true,
	StyleJobClassic: true, StyleJobLogo: true, StyleJobClean: true,
}

var validFormats = map[string]bool{FormatPNG: true, FormatJPEG: true}

// Normalize fills defaults and clamps numeric fields. Unknown sites fall back
// to X, matching the legacy behavior of treating X as the default canvas.
func Normalize(r Request) Request {
	r.Style = strings.TrimSpace(strings.ToLower(r.Style))
	if r.Style == "" {
		r.Style = StyleBase
	}
	r.Site = strings.TrimSpace(strings.ToLower(r.Site))
	switch r.Site {
	case SiteMeta, "facebook": // facebook is the historical name for the meta canvas
		r.Site = SiteMeta
	default:
		r.Site = SiteX
	}
	r.Format = strings.TrimSpace(strings.ToLower(r.Format))
	if r.Format == "" {
		r.Format = FormatPNG
	}
	if r.Format == "jpg" {
		r.Format = FormatJPEG
	}
	r.Font = strings.TrimSpace(strings.ToLower(r.Font))

	if r.Quality < 0 {
		r.Quality = 0
	}
	if r.Quality > 100 {
		r.Quality = 100
	}
	if r.MaxKB < 0 {
		r.MaxKB = 0
	}

	r.Title = strings.TrimSpace(r.Title)
	r.Subtitle = strings.TrimSpace(r.Subtitle)
	r.Eyebrow = strings.TrimSpace(r.Eyebrow)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	r.Version = strings.TrimSpace(r.Version)
	r.Key = strings.TrimSpace(r.Key)

	return r
}

// Validate rejects parameter combinations the renderer cannot honor.
func (r Request) Validate() error {
	if !validStyles[r.Style] {
		return validationError("unknown style %q", r.Style)
	}
	if !validFormats[r.Format] {
		return validationError("unknown format %q", r.Format)
	}
	if r.Site != SiteX && r.Site != SiteMeta {
		return validationError("unknown site %q", r.Site)
	}
	if r.Quality != 0 && (r.Quality < 1 || r.Quality > 100) {
		return validationError("quality %d out of range", r.Quality)
	}
	if r.ImageURL != "" {
		u, err := url.Parse(r.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return validationError("image_url %q is not an http(s) url", r.ImageURL)
		}
	}
	return nil
}

// CanvasSize returns the output dimensions for the request's site: half of
// the standard OG dimensions, for file-size economy.
func (r Request) CanvasSize() (width, height int) {
	if r.Site == SiteMeta {
		return 600, 315
	}
	return 800, 450
}

// ContentType returns the MIME type of the encoded output.
func (r Request) ContentType() string {
	if r.Format == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Fingerprint hashes the full field-wise value of the request into a cache
// key. Every field participates, including the version tag — bumping `v` is
// the documented invalidation mechanism.
func (r Request) Fingerprint() string {
	fields := url.Values{}
	fields.Set("style", r.Style)
	fields.Set("site", r.Site)
	fields.Set("font", r.Font)
	fields.Set("title", r.Title)
	fields.Set("subtitle", r.Subtitle)
	fields.Set("eyebrow", r.Eyebrow)
	fields.Set("image_url", r.ImageURL)
	fields.Set("format", r.Format)
	fields.Set("quality", strconv.Itoa(r.Quality))
	fields.Set("max_kb", strconv.Itoa(r.MaxKB))
	fields.Set("v", r.Version)
	fields.Set("key", r.Key)

	sum := sha256.Sum256([]byte(fields.Encode()))
	prefix := "anon_"
	if r.Key != "" {
		prefix = "key_"
	}
	return prefix + hex.EncodeToString(sum[:])[:32]
}
