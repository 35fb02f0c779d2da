package render

import (
	"image/color"
	"strings"

	"github.com/fogleman/gg"
)

const ellipsis = "..."

// safeTruncate collapses runs of whitespace and caps the text at maxChars,
// cutting back to a word boundary where one exists and appending an ellipsis.
func safeTruncate(text string, maxChars int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if len(runes) <= maxChars {
		return normalized
	}
	if maxChars <= len(ellipsis) {
		return string(runes[:maxChars])
	}

	cut := runes[:maxChars-len(ellipsis)]
	if idx := strings.LastIndex(string(cut), " "); idx > 0 {
		cut = []rune(string(cut)[:idx])
	}
	return strings.TrimRight(string(cut), " ") + ellipsis
}

// wrapLines packs words greedily into lines whose rendered width stays within
// maxWidth for the context's current face. A single word wider than the line
// is emitted on its own rather than dropped.
func wrapLines(dc *gg.Context, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	var lines []string
	var current []string

	for _, word := range words {
		test := strings.Join(append(current, word), " ")
		w, _ := dc.MeasureString(test)
		if w <= maxWidth {
			current = append(current, word)
			continue
		}
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current = []string{word}
		} else {
			lines = append(lines, word)
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

type textOptions struct {
	bold     bool // faux-bold: redraw at 1px offsets in all 8 directions
	centered bool
}

// drawTextBlock wraps and draws text starting at the given top y, returning
// the y below the last drawn line. x is ignored for centered blocks.
func drawTextBlock(dc *gg.Context, text string, fontName string, fontSize float64,
	maxWidth, x, y float64, col color.Color, spacing float64, opts textOptions) (float64, error) {

	if text == "" {
		return y, nil
	}

	face, err := faceFor(fontName, fontSize)
	if err != nil {
		return y, err
	}
	dc.SetFontFace(face)
	dc.SetColor(col)

	lineHeight := dc.FontHeight()
	canvasWidth := float64(dc.Width())

	for _, line := range wrapLines(dc, text, maxWidth) {
		lineX := x
		if opts.centered {
			w, _ := dc.MeasureString(line)
			lineX = (canvasWidth - w) / 2
		}
		baseline := y + lineHeight

		if opts.bold {
			for dx := -1.0; dx <= 1; dx++ {
				for dy := -1.0; dy <= 1; dy++ {
					dc.DrawString(line, lineX+dx, baseline+dy)
				}
			}
		} else {
			dc.DrawString(line, lineX, baseline)
		}
		y += lineHeight + spacing
	}
	return y, nil
}
