package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

const maxFetchBytes = 10 << 20 // 10 MB cap on remote image bodies

// Fetcher downloads and decodes remote background/logo images with a bounded
// timeout. Every failure leaves here already classified.
type Fetcher struct {
	Client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves rawURL, decodes it and resizes it to width x height using
// Lanczos resampling.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, width, height int) (image.Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, validationError("image url %q is not fetchable", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, validationError("building image request: %v", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, newError(classifyTransportError(err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, newError(ErrTypeUpstreamFetch5xx, fmt.Errorf("upstream returned %d for %s", resp.StatusCode, rawURL))
	case resp.StatusCode >= 400:
		return nil, newError(ErrTypeUpstreamFetch4xx, fmt.Errorf("upstream returned %d for %s", resp.StatusCode, rawURL))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, newError(classifyTransportError(err), err)
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrTypeImageDecode, err)
	}

	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// classifyTransportError separates timeouts and connection failures (worth a
// retry) from everything else.
func classifyTransportError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTypeTransientUpstreamFetch
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrTypeTransientUpstreamFetch
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// http.Client wraps timeouts and refused connections in url.Error.
		return ErrTypeTransientUpstreamFetch
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTypeTransientUpstreamFetch
	}
	return ErrTypeUnknown
}
