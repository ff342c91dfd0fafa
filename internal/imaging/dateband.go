package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DateLayout is the time layout of the stamped date (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// minDateFontSize is the smallest font size, in pixels, used for the stamp.
const minDateFontSize = 12

var (
	boldFont     *opentype.Font
	boldFontErr  error
	boldFontOnce sync.Once
)

func loadBoldFont() (*opentype.Font, error) {
	boldFontOnce.Do(func() {
		boldFont, boldFontErr = opentype.Parse(gobold.TTF)
	})
	return boldFont, boldFontErr
}

// DateFontSize returns max(12, round(bandHeight*0.6)).
func DateFontSize(bandHeight int) float64 {
	size := math.Round(float64(bandHeight) * 0.6)
	if size < minDateFontSize {
		return minDateFontSize
	}
	return size
}

// FormatStampDate formats t the way it appears in the date band.
func FormatStampDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DrawDateBand paints rows [0, bandHeight) of dst white and writes the date
// of now in bold black text, centered in the band.
//
// Text that does not fit the band is clipped to it, so rows at or below
// bandHeight are never touched.
func DrawDateBand(dst draw.Image, bandHeight int, now time.Time) error {
	if bandHeight <= 0 {
		return nil
	}
	b := dst.Bounds()
	width := b.Dx()
	if bandHeight > b.Dy() {
		return fmt.Errorf("band height %d exceeds image height %d", bandHeight, b.Dy())
	}

	f, err := loadBoldFont()
	if err != nil {
		return fmt.Errorf("failed to parse date font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    DateFontSize(bandHeight),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to create date font face: %w", err)
	}
	defer face.Close()

	band := image.NewRGBA(image.Rect(0, 0, width, bandHeight))
	draw.Draw(band, band.Bounds(), image.White, image.Point{}, draw.Src)

	text := FormatStampDate(now)
	d := &font.Drawer{
		Dst:  band,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	m := face.Metrics()
	textW := d.MeasureString(text)
	textH := m.Ascent + m.Descent
	d.Dot = fixed.Point26_6{
		X: (fixed.I(width) - textW) / 2,
		Y: (fixed.I(bandHeight)-textH)/2 + m.Ascent,
	}
	d.DrawString(text)

	draw.Draw(dst, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+bandHeight), band, image.Point{}, draw.Src)
	return nil
}
