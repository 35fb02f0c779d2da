package render

import (
	"context"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
)

// composeFunc draws one style variant onto the canvas. The set is closed:
// adding a style means adding an entry here.
type composeFunc func(ctx context.Context, r *Renderer, dc *gg.Context, req Request) error

var styleComposers = map[string]composeFunc{
	StyleBase:       composeBase,
	StyleLogo:       composeLogo,
	StyleJobClassic: composeJobClassic,
	StyleJobLogo:    composeJobLogo,
	StyleJobClean:   composeJobClean,
}

var (
	white      = color.RGBA{255, 255, 255, 255}
	darkGray   = color.RGBA{30, 30, 30, 255}
	slate      = color.RGBA{24, 32, 46, 255}
	gray900    = color.RGBA{17, 24, 39, 255}
	blue300    = color.RGBA{147, 197, 253, 255}
	gray300    = color.RGBA{209, 213, 219, 255}
	gray500    = color.RGBA{107, 114, 128, 255}
	gray600    = color.RGBA{75, 85, 99, 255}
	gray700    = color.RGBA{55, 65, 81, 255}
	offWhite   = color.RGBA{250, 250, 252, 255}
	blue600    = color.RGBA{37, 99, 235, 255}
)

func fillBackground(dc *gg.Context, col color.Color) {
	dc.SetColor(col)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()
}

func darkOverlay(dc *gg.Context, alpha uint8) {
	dc.SetColor(color.RGBA{0, 0, 0, alpha})
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()
}

func composeBase(ctx context.Context, r *Renderer, dc *gg.Context, req Request) error {
	w, h := float64(dc.Width()), float64(dc.Height())

	bg, err := r.fetchOptional(ctx, req.ImageURL, dc.Width(), dc.Height())
	if err != nil {
		return err
	}
	if bg != nil {
		dc.DrawImage(bg, 0, 0)
	} else {
		fillBackground(dc, white)
	}
	darkOverlay(dc, 180)

	leftMargin := w * 0.05
	spacing := h * 0.02
	maxTextWidth := w - 2*leftMargin
	y := h * 0.3

	eyebrow := safeTruncate(strings.ToUpper(req.Eyebrow), 55)
	title := safeTruncate(strings.ToUpper(req.Title), 130)
	subtitle := safeTruncate(req.Subtitle, 180)

	if eyebrow != "" {
		y, err = drawTextBlock(dc, eyebrow, req.Font, h*0.03, maxTextWidth, leftMargin, y, white, spacing, textOptions{})
		if err != nil {
			return err
		}
		y += spacing
	}
	if title != "" {
		y, err = drawTextBlock(dc, title, req.Font, h*0.1, maxTextWidth, leftMargin, y, white, spacing, textOptions{bold: true})
		if err != nil {
			return err
		}
		y += spacing * 3.5
	}
	if subtitle != "" {
		if _, err = drawTextBlock(dc, subtitle, req.Font, h*0.05, maxTextWidth, leftMargin, y, white, spacing, textOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func composeLogo(ctx context.Context, r *Renderer, dc *gg.Context, req Request) error {
	w, h := float64(dc.Width()), float64(dc.Height())

	fillBackground(dc, darkGray)

	logoSize := int(h * 0.4)
	logo, err := r.fetchOptional(ctx, req.ImageURL, logoSize, logoSize)
	if err != nil {
		return err
	}
	if logo != nil {
		logoX := (dc.Width() - logoSize) / 2
		logoY := int(h * 0.15)
		radius := float64(logoSize) / 2

		dc.Push()
		dc.DrawCircle(float64(logoX)+radius, float64(logoY)+radius, radius)
		dc.Clip()
		dc.DrawImage(logo, logoX, logoY)
		dc.ResetClip()
		dc.Pop()
	}

	leftMargin := w * 0.05
	spacing := h * 0.02
	maxTextWidth := w - 2*leftMargin

	title := safeTruncate(req.Title, 90)
	subtitle := safeTruncate(req.Subtitle, 130)

	if _, err = drawTextBlock(dc, title, req.Font, h*0.08, maxTextWidth, 0, h*0.62, white, spacing, textOptions{bold: true, centered: true}); err != nil {
		return err
	}
	if _, err = drawTextBlock(dc, subtitle, req.Font, h*0.05, maxTextWidth, 0, h*0.72, white, spacing, textOptions{centered: true}); err != nil {
		return err
	}
	return nil
}

func composeJobClassic(ctx context.Context, r *Renderer, dc *gg.Context, req Request) error {
	w, h := float64(dc.Width()), float64(dc.Height())

	bg, err := r.fetchOptional(ctx, req.ImageURL, dc.Width(), dc.Height())
	if err != nil {
		return err
	}
	if bg != nil {
		dc.DrawImage(bg, 0, 0)
	} else {
		fillBackground(dc, slate)
	}
	darkOverlay(dc, 130)

	title, subtitle, eyebrow := normalizeJobCopy(req)

	leftMargin := w * 0.08
	maxTextWidth := w * 0.84
	spacing := h * 0.016
	y := h * 0.22

	if eyebrow != "" {
		y, err = drawTextBlock(dc, strings.ToUpper(eyebrow), req.Font, h*0.032, maxTextWidth, leftMargin, y, white, spacing, textOptions{})
		if err != nil {
			return err
		}
		y += h * 0.02
	}
	if title != "" {
		y, err = drawTextBlock(dc, title, req.Font, h*0.09, maxTextWidth, leftMargin, y, white, spacing, textOptions{bold: true})
		if err != nil {
			return err
		}
		y += h * 0.03
	}
	if subtitle != "" {
		if _, err = drawTextBlock(dc, subtitle, req.Font, h*0.05, maxTextWidth, leftMargin, y, white, spacing, textOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func composeJobLogo(ctx context.Context, r *Renderer, dc *gg.Context, req Request) error {
	w, h := float64(dc.Width()), float64(dc.Height())

	fillBackground(dc, gray900)

	title, subtitle, eyebrow := normalizeJobCopy(req)

	leftMargin := w * 0.08
	maxTextWidth := w * 0.6
	spacing := h * 0.016
	y := h * 0.2

	var err error
	if eyebrow != "" {
		y, err = drawTextBlock(dc, strings.ToUpper(eyebrow), req.Font, h*0.03, maxTextWidth, leftMargin, y, blue300, spacing, textOptions{})
		if err != nil {
			return err
		}
		y += h * 0.015
	}
	if title != "" {
		y, err = drawTextBlock(dc, title, req.Font, h*0.085, maxTextWidth, leftMargin, y, white, spacing, textOptions{bold: true})
		if err != nil {
			return err
		}
		y += h * 0.02
	}
	if subtitle != "" {
		if _, err = drawTextBlock(dc, subtitle, req.Font, h*0.05, maxTextWidth, leftMargin, y, gray300, spacing, textOptions{}); err != nil {
			return err
		}
	}

	logoSize := int(h * 0.42)
	logoX := dc.Width() - logoSize - int(w*0.08)
	logoY := int(h * 0.15)
	radius := float64(logoSize) / 2

	logo, err := r.fetchOptional(ctx, req.ImageURL, logoSize, logoSize)
	if err != nil {
		return err
	}
	if logo != nil {
		dc.Push()
		dc.DrawCircle(float64(logoX)+radius, float64(logoY)+radius, radius)
		dc.Clip()
		dc.DrawImage(logo, logoX, logoY)
		dc.ResetClip()
		dc.Pop()
	} else {
		// Placeholder ring where a company logo would sit.
		dc.SetColor(gray600)
		dc.SetLineWidth(4)
		dc.DrawCircle(float64(logoX)+radius, float64(logoY)+radius, radius-2)
		dc.Stroke()

		if _, err = drawTextBlock(dc, "LOGO", req.Font, h*0.03, float64(logoSize),
			float64(logoX)+float64(logoSize)*0.24, float64(logoY)+float64(logoSize)*0.44,
			gray500, 0, textOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func composeJobClean(ctx context.Context, r *Renderer, dc *gg.Context, req Request) error {
	w, h := float64(dc.Width()), float64(dc.Height())

	fillBackground(dc, offWhite)

	accentWidth := w * 0.018
	dc.SetColor(blue600)
	dc.DrawRectangle(0, 0, accentWidth, h)
	dc.Fill()

	title, subtitle, eyebrow := normalizeJobCopy(req)

	contentLeft := accentWidth + w*0.06
	maxTextWidth := w * 0.62
	spacing := h * 0.014
	y := h * 0.22

	var err error
	if eyebrow != "" {
		y, err = drawTextBlock(dc, strings.ToUpper(eyebrow), req.Font, h*0.028, maxTextWidth, contentLeft, y, blue600, spacing, textOptions{})
		if err != nil {
			return err
		}
		y += h * 0.012
	}
	if title != "" {
		y, err = drawTextBlock(dc, title, req.Font, h*0.082, maxTextWidth, contentLeft, y, gray900, spacing, textOptions{bold: true})
		if err != nil {
			return err
		}
		y += h * 0.018
	}
	if subtitle != "" {
		if _, err = drawTextBlock(dc, subtitle, req.Font, h*0.048, maxTextWidth, contentLeft, y, gray700, spacing, textOptions{}); err != nil {
			return err
		}
	}

	logoSize := int(h * 0.28)
	logoX := dc.Width() - logoSize - int(w*0.08)
	logoY := int(h * 0.34)

	logo, err := r.fetchOptional(ctx, req.ImageURL, logoSize, logoSize)
	if err != nil {
		return err
	}
	if logo != nil {
		dc.DrawImage(logo, logoX, logoY)
	} else {
		dc.SetColor(gray300)
		dc.SetLineWidth(3)
		dc.DrawRectangle(float64(logoX), float64(logoY), float64(logoSize), float64(logoSize))
		dc.Stroke()
	}
	return nil
}

// normalizeJobCopy applies the shared truncation budgets of the job styles.
func normalizeJobCopy(req Request) (title, subtitle, eyebrow string) {
	return safeTruncate(req.Title, 110),
		safeTruncate(req.Subtitle, 180),
		safeTruncate(req.Eyebrow, 55)
}
