// Package layout renders a roster as a PNG map of window rectangles in
// shared screen coordinates.
package layout

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/mj1618/winsync/internal/model"
)

// LabelMode controls what text is drawn on each window.
type LabelMode int

const (
	// LabelIDs draws the window id, shortened to ShortIDLen characters.
	LabelIDs LabelMode = iota
	// LabelCoords draws "(x,y)" screen-absolute center coordinates.
	LabelCoords
	// LabelNone draws rectangles only.
	LabelNone
)

// ShortIDLen is how many id characters a LabelIDs label keeps.
const ShortIDLen = 8

// MaxCanvas caps either canvas dimension in pixels.
const MaxCanvas = 8192

// ErrEmptyRoster is returned when there is nothing to draw.
var ErrEmptyRoster = errors.New("roster has no windows")

// ParseLabelMode converts a --label flag value.
func ParseLabelMode(s string) (LabelMode, error) {
	switch s {
	case "", "id", "ids":
		return LabelIDs, nil
	case "coords":
		return LabelCoords, nil
	case "none":
		return LabelNone, nil
	default:
		return LabelIDs, fmt.Errorf("unknown label mode %q (expected ids, coords or none)", s)
	}
}

// Options configures Render.
type Options struct {
	// Scale converts screen points to pixels. Zero means 0.25.
	Scale   float64
	Padding int
	Label   LabelMode
	// Highlight is drawn with an opaque outline.
	Highlight string
}

var palette = []color.RGBA{
	{R: 230, G: 80, B: 70, A: 255},
	{R: 70, G: 150, B: 230, A: 255},
	{R: 90, G: 190, B: 100, A: 255},
	{R: 240, G: 180, B: 50, A: 255},
	{R: 170, G: 100, B: 220, A: 255},
	{R: 60, G: 200, B: 200, A: 255},
}

var (
	background   = color.RGBA{R: 24, G: 24, B: 28, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Extent returns the smallest shape containing every window.
func Extent(windows model.Roster) (model.Shape, bool) {
	if len(windows) == 0 {
		return model.Shape{}, false
	}
	minX, minY := windows[0].Shape.X, windows[0].Shape.Y
	maxX, maxY := minX+windows[0].Shape.W, minY+windows[0].Shape.H
	for _, w := range windows[1:] {
		s := w.Shape
		minX = min(minX, s.X)
		minY = min(minY, s.Y)
		maxX = max(maxX, s.X+s.W)
		maxY = max(maxY, s.Y+s.H)
	}
	return model.Shape{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// Render draws every window in join order, later windows on top.
func Render(windows model.Roster, opts Options) (*image.RGBA, error) {
	extent, ok := Extent(windows)
	if !ok {
		return nil, ErrEmptyRoster
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 0.25
	}
	pad := max(opts.Padding, 0)

	width := int(float64(extent.W)*scale) + 2*pad + 1
	height := int(float64(extent.H)*scale) + 2*pad + 1
	if width > MaxCanvas || height > MaxCanvas {
		return nil, fmt.Errorf("canvas %dx%d exceeds %d pixels; lower the scale", width, height, MaxCanvas)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	toPixel := func(v, origin int) int {
		return int(float64(v-origin)*scale) + pad
	}
	for i, w := range windows {
		c := palette[i%len(palette)]
		x1 := toPixel(w.Shape.X, extent.X)
		y1 := toPixel(w.Shape.Y, extent.Y)
		x2 := x1 + int(float64(w.Shape.W)*scale)
		y2 := y1 + int(float64(w.Shape.H)*scale)

		fill := color.RGBA{R: c.R / 4, G: c.G / 4, B: c.B / 4, A: 64}
		draw.Draw(img, image.Rect(x1, y1, x2, y2), image.NewUniform(fill), image.Point{}, draw.Over)

		stroke := c
		if opts.Highlight != "" && w.ID != opts.Highlight {
			stroke.A = 120
		}
		drawRectangle(img, x1, y1, x2, y2, stroke)
		if w.ID == opts.Highlight {
			drawRectangle(img, x1+1, y1+1, x2-1, y2-1, stroke)
		}

		if label := labelFor(w, opts.Label); label != "" {
			drawTextWithOutline(img, label, (x1+x2)/2, (y1+y2)/2, textColor, outlineColor)
		}
	}
	return img, nil
}

// WritePNG renders windows and encodes the result to w.
func WritePNG(w io.Writer, windows model.Roster, opts Options) (image.Rectangle, error) {
	img, err := Render(windows, opts)
	if err != nil {
		return image.Rectangle{}, err
	}
	if err := png.Encode(w, img); err != nil {
		return image.Rectangle{}, fmt.Errorf("encode png: %w", err)
	}
	return img.Bounds(), nil
}

func labelFor(w model.WindowRecord, mode LabelMode) string {
	switch mode {
	case LabelCoords:
		cx, cy := w.Shape.Center()
		return fmt.Sprintf("(%d,%d)", cx, cy)
	case LabelNone:
		return ""
	default:
		id := w.ID
		if len(id) > ShortIDLen {
			id = id[:ShortIDLen]
		}
		return "[" + id + "]"
	}
}
