package render

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// The service bundles the Go font family instead of shipping loose TTC files.
// Legacy font identifiers map onto the closest bundled face; unknown names
// fall back to the regular face so a bad font parameter never fails a render.
var fontTTFs = map[string][]byte{
	"helvetica":  goregular.TTF,
	"bold":       gobold.TTF,
	"markerfelt": goitalic.TTF,
	"papyrus":    gomono.TTF,
}

var (
	fontMu     sync.Mutex
	fontCache  = map[string]*opentype.Font{}
	defaultTTF = goregular.TTF
)

func parsedFont(name string) (*opentype.Font, error) {
	fontMu.Lock()
	defer fontMu.Unlock()

	if f, ok := fontCache[name]; ok {
		return f, nil
	}
	ttf, ok := fontTTFs[name]
	if !ok {
		ttf = defaultTTF
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, newError(ErrTypeRender, err)
	}
	fontCache[name] = f
	return f, nil
}

// faceFor builds a sized face for a font identifier. Faces are cheap to
// create from a parsed font, and per-render faces keep sizing deterministic.
func faceFor(name string, size float64) (font.Face, error) {
	if size < 1 {
		size = 1
	}
	f, err := parsedFont(name)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, newError(ErrTypeRender, err)
	}
	return face, nil
}
