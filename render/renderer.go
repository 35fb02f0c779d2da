// Package render produces OG preview images from a parameterized request.
// Layout follows a closed set of style variants; text is wrapped and
// truncated deterministically, so equal requests yield byte-identical output.
package render

import (
	"context"
	"fmt"
	"image"

	"github.com/fogleman/gg"
	zlog "github.com/rs/zerolog/log"
)

// Renderer dispatches a request to its style composer and encodes the result.
type Renderer struct {
	Fetcher *Fetcher
	// IsPro reports whether the profile owning a key renders watermark-free.
	// Nil means nobody does.
	IsPro func(key string) bool
}

// Default is the process-wide renderer, wired in main.
var Default *Renderer

func New(fetcher *Fetcher, isPro func(key string) bool) *Renderer {
	return &Renderer{Fetcher: fetcher, IsPro: isPro}
}

// Render validates, composes and encodes one image. Failures are returned as
// classified *Error values; the renderer never substitutes a different style.
func (r *Renderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	compose, ok := styleComposers[req.Style]
	if !ok {
		return nil, validationError("unknown style %q", req.Style)
	}

	width, height := req.CanvasSize()
	dc := gg.NewContext(width, height)

	if err := compose(ctx, r, dc, req); err != nil {
		return nil, err
	}

	if !r.hasPro(req.Key) {
		if err := applyWatermark(dc); err != nil {
			return nil, err
		}
	}

	data, err := encode(dc.Image(), req.Format, req.Quality, req.MaxKB)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, newError(ErrTypeRender, fmt.Errorf("encoder produced no bytes"))
	}
	return data, nil
}

func (r *Renderer) hasPro(key string) bool {
	return key != "" && r.IsPro != nil && r.IsPro(key)
}

// fetchOptional resolves a background/logo URL. Retryable failures (timeouts,
// connection errors, upstream 5xx) propagate classified so the caller can
// retry the whole render; everything else degrades to "no image" with a
// warning, never to a different style or layout.
func (r *Renderer) fetchOptional(ctx context.Context, rawURL string, width, height int) (image.Image, error) {
	if rawURL == "" {
		return nil, nil
	}
	img, err := r.Fetcher.Fetch(ctx, rawURL, width, height)
	if err != nil {
		if IsTransient(Classify(err)) {
			return nil, err
		}
		zlog.Warn().Str("image_url", rawURL).Str("error_type", Classify(err)).Err(err).
			Msg("dropping remote image from render")
		return nil, nil
	}
	return img, nil
}
