package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit components including alpha.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult describes one sampled pixel.
//
// Besides the usual representations it reports the BT.601 luminance and
// whether the signature recolorer would treat the pixel as ink, which makes
// it easy to check why a faint pen stroke vanished.
type ColorResult struct {
	Hex       string    `json:"hex"` // "#RRGGBB" (no alpha)
	RGBA      RGBAColor `json:"rgba"`
	HSL       HSLColor  `json:"hsl"`
	Luminance float64   `json:"luminance"`
	IsInk     bool      `json:"is_ink"`
}

// SampleColor extracts the color at (x, y).
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	c := colorful.Color{R: float64(n.R) / 255, G: float64(n.G) / 255, B: float64(n.B) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	lum := Luminance(n.R, n.G, n.B)
	return &ColorResult{
		Hex:       fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B),
		RGBA:      RGBAColor{R: n.R, G: n.G, B: n.B, A: n.A},
		HSL:       HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
		Luminance: math.Round(lum*10000) / 10000,
		IsInk:     n.A >= alphaCutoff && lum < InkThreshold,
	}, nil
}
