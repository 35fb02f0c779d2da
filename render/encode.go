package render

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
)

const (
	defaultJPEGQuality = 85
	jpegQualityStep    = 5
	jpegQualityFloor   = 20
)

// encode serializes the canvas. PNG ignores quality. JPEG honors the
// requested quality and, when maxKB is set, walks quality down in fixed
// steps until the output fits the byte budget or the floor is reached.
// Identical inputs always produce byte-identical output.
func encode(img image.Image, format string, quality, maxKB int) ([]byte, error) {
	var buf bytes.Buffer

	if format != FormatJPEG {
		if err := png.Encode(&buf, img); err != nil {
			return nil, newError(ErrTypeRender, err)
		}
		return buf.Bytes(), nil
	}

	q := quality
	if q <= 0 {
		q = defaultJPEGQuality
	}
	if q > 100 {
		q = 100
	}

	budget := maxKB * 1024
	for {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, newError(ErrTypeRender, err)
		}
		if budget <= 0 || buf.Len() <= budget || q <= jpegQualityFloor {
			break
		}
		q -= jpegQualityStep
		if q < jpegQualityFloor {
			q = jpegQualityFloor
		}
	}
	return buf.Bytes(), nil
}
