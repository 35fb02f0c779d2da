package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRenderer(isPro func(string) bool) *Renderer {
	return New(NewFetcher(2*time.Second), isPro)
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageServer(t *testing.T) *httptest.Server {
	fixture := pngFixture(t)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(fixture)
	}))
}

func TestRenderAllStyles(t *testing.T) {
	r := testRenderer(nil)
	for style := range styleComposers {
		t.Run(style, func(t *testing.T) {
			data, err := r.Render(context.Background(), Normalize(Request{
				Style:    style,
				Title:    "Distributed Systems Engineer",
				Subtitle: "Build the pipeline that renders a million preview cards",
				Eyebrow:  "Now hiring",
			}))
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
		})
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := testRenderer(nil)
	req := Normalize(Request{Title: "Same in, same out"})

	a, err := r.Render(context.Background(), req)
	require.NoError(t, err)
	b, err := r.Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderWatermarkOnlyForFreeTier(t *testing.T) {
	req := Normalize(Request{Title: "Watermark check", Key: "prokey9876"})

	free, err := testRenderer(func(string) bool { return false }).Render(context.Background(), req)
	require.NoError(t, err)
	pro, err := testRenderer(func(string) bool { return true }).Render(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, free, pro, "pro output must not carry the watermark")
}

func TestRenderWithRemoteBackground(t *testing.T) {
	srv := imageServer(t)
	defer srv.Close()

	r := testRenderer(nil)
	data, err := r.Render(context.Background(), Normalize(Request{
		Title:    "With background",
		ImageURL: srv.URL + "/bg.png",
	}))
	require.NoError(t, err)

	plain, err := r.Render(context.Background(), Normalize(Request{Title: "With background"}))
	require.NoError(t, err)
	assert.NotEqual(t, plain, data, "background must alter the output")
}

func TestRenderDegradesOn4xxBackground(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := testRenderer(nil)
	withMissing, err := r.Render(context.Background(), Normalize(Request{
		Title:    "Missing background",
		ImageURL: srv.URL + "/gone.png",
	}))
	require.NoError(t, err, "a 404 background degrades, it does not fail the render")
	assert.True(t, bytes.HasPrefix(withMissing, []byte("\x89PNG")))
}

func TestRenderPropagates5xxBackground(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := testRenderer(nil)
	_, err := r.Render(context.Background(), Normalize(Request{
		Title:    "Flaky upstream",
		ImageURL: srv.URL + "/bg.png",
	}))
	require.Error(t, err)
	assert.Equal(t, ErrTypeUpstreamFetch5xx, Classify(err))
	assert.True(t, IsTransient(Classify(err)))
}

func TestFetchClassification(t *testing.T) {
	fixture := pngFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(fixture)
		case "/garbage":
			_, _ = w.Write([]byte("this is not an image"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	f := NewFetcher(2 * time.Second)
	ctx := context.Background()

	img, err := f.Fetch(ctx, srv.URL+"/ok.png", 200, 100)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 200, bounds.Dx())
	assert.Equal(t, 100, bounds.Dy())

	_, err = f.Fetch(ctx, srv.URL+"/garbage", 200, 100)
	assert.Equal(t, ErrTypeImageDecode, Classify(err))

	_, err = f.Fetch(ctx, srv.URL+"/missing", 200, 100)
	assert.Equal(t, ErrTypeUpstreamFetch4xx, Classify(err))

	_, err = f.Fetch(ctx, srv.URL+"/boom", 200, 100)
	assert.Equal(t, ErrTypeUpstreamFetch5xx, Classify(err))

	_, err = f.Fetch(ctx, "not-a-url", 200, 100)
	assert.Equal(t, ErrTypeValidation, Classify(err))
}

func TestFetchConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead := srv.URL
	srv.Close()

	f := NewFetcher(2 * time.Second)
	_, err := f.Fetch(context.Background(), dead+"/bg.png", 200, 100)
	require.Error(t, err)
	assert.Equal(t, ErrTypeTransientUpstreamFetch, Classify(err))
}
