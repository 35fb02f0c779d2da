package render

import (
	"image/color"

	"github.com/fogleman/gg"
)

const watermarkText = "made with ogserve.app"

// applyWatermark composites the branding mark into the bottom-right corner.
// Non-subscriber output always carries it; the renderer decides, not the style.
func applyWatermark(dc *gg.Context) error {
	w, h := float64(dc.Width()), float64(dc.Height())

	face, err := faceFor("", h*0.05)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(color.RGBA{255, 255, 255, 128})

	textWidth, _ := dc.MeasureString(watermarkText)
	x := w - textWidth - w*0.02
	baseline := h - h*0.08

	dc.DrawString(watermarkText, x, baseline)
	return nil
}
