package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/lucasb-eyer/go-colorful"
)

// InkThreshold is the luminance below which a pixel counts as ink rather
// than paper.
const InkThreshold = 0.7

// alphaCutoff is the alpha below which a pixel is treated as background.
const alphaCutoff = 128

var paperWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Luminance returns the ITU-R BT.601 brightness of an 8-bit RGB triple,
// normalized to [0, 1].
func Luminance(r, g, b uint8) float64 {
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255.0
}

// InkPixel maps one pixel onto the ink-on-white palette.
//
// Mostly transparent pixels and pixels at or above InkThreshold become opaque
// white. Darker pixels take the ink color with a strength proportional to how
// dark they are: luminance 0 yields exactly ink.
func InkPixel(c color.RGBA, ink color.RGBA) color.RGBA {
	if c.A < alphaCutoff {
		return paperWhite
	}
	l := Luminance(c.R, c.G, c.B)
	if l >= InkThreshold {
		return paperWhite
	}
	intensity := 1 - l/InkThreshold
	return color.RGBA{
		R: inkChannel(ink.R, intensity),
		G: inkChannel(ink.G, intensity),
		B: inkChannel(ink.B, intensity),
		A: 255,
	}
}

func inkChannel(target uint8, intensity float64) uint8 {
	v := math.Round(255 - (255-float64(target))*intensity)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Recolor applies InkPixel to every pixel of img and returns a new image.
// The source is not modified.
func Recolor(img image.Image, ink color.RGBA) *image.RGBA {
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		// adjust.Apply hands over premultiplied values; InkPixel expects
		// straight color.
		return InkPixel(straight(c), ink)
	})
}

func straight(c color.RGBA) color.RGBA {
	if c.A == 0 || c.A == 255 {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
}

// ParseInkColor parses a "#RRGGBB" string into an opaque ink color.
func ParseInkColor(hex string) (color.RGBA, error) {
	if len(hex) != 7 {
		return color.RGBA{}, fmt.Errorf("invalid ink color %q: want #RRGGBB", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid ink color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
