package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// DateBandRatio is the fraction of the output height reserved for the date band.
const DateBandRatio = 0.08

// boundsEpsilon absorbs floating point noise from sin/cos at right angles,
// so a 90° turn of a 1000x1200 image yields exactly 1200x1000.
const boundsEpsilon = 1e-6

// NormalizeRotation maps any angle in degrees onto [0, 360).
func NormalizeRotation(degrees float64) float64 {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return 0
	}
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// RotatedBounds returns the size of the smallest axis-aligned canvas that
// holds a w x h image rotated by the given angle without clipping a corner.
//
//	newW = w*|cos θ| + h*|sin θ|
//	newH = w*|sin θ| + h*|cos θ|
//
// Fractional results are rounded up; values within boundsEpsilon of an
// integer snap to it.
func RotatedBounds(w, h int, degrees float64) (int, int) {
	theta := NormalizeRotation(degrees) * math.Pi / 180
	sin, cos := math.Abs(math.Sin(theta)), math.Abs(math.Cos(theta))
	newW := float64(w)*cos + float64(h)*sin
	newH := float64(w)*sin + float64(h)*cos
	return snapDimension(newW), snapDimension(newH)
}

func snapDimension(v float64) int {
	r := math.Round(v)
	if math.Abs(v-r) < boundsEpsilon {
		return int(r)
	}
	return int(math.Ceil(v))
}

// FlattenOnWhite composites img over an opaque white canvas of the same size,
// removing any transparency. The result always starts at (0,0).
func FlattenOnWhite(img image.Image) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// Rotate turns img clockwise by degrees about its own center and draws it on
// an opaque white canvas sized by RotatedBounds. A zero rotation is a plain
// white flatten.
func Rotate(img image.Image, degrees float64) *image.NRGBA {
	deg := NormalizeRotation(degrees)
	if deg == 0 {
		return FlattenOnWhite(img)
	}

	b := img.Bounds()
	newW, newH := RotatedBounds(b.Dx(), b.Dy(), deg)
	canvas := imaging.New(newW, newH, color.White)

	// imaging.Rotate turns counter-clockwise.
	rotated := imaging.Rotate(img, 360-deg, color.Transparent)
	rb := rotated.Bounds()
	pos := image.Pt((newW-rb.Dx())/2, (newH-rb.Dy())/2)
	return imaging.Overlay(canvas, rotated, pos, 1.0)
}

// BandHeight returns round(targetHeight * DateBandRatio) when a date band is
// requested and 0 otherwise.
func BandHeight(targetHeight int, addDateBand bool) int {
	if !addDateBand {
		return 0
	}
	return int(math.Round(float64(targetHeight) * DateBandRatio))
}

// CenterCrop returns the largest rectangle centered in a srcW x srcH image
// whose aspect ratio matches targetW/targetH.
func CenterCrop(srcW, srcH, targetW, targetH int) image.Rectangle {
	targetRatio := float64(targetW) / float64(targetH)
	srcRatio := float64(srcW) / float64(srcH)

	if srcRatio > targetRatio {
		cropW := clamp(int(math.Round(float64(srcH)*targetRatio)), 1, srcW)
		x := (srcW - cropW) / 2
		return image.Rect(x, 0, x+cropW, srcH)
	}
	cropH := clamp(int(math.Round(float64(srcW)/targetRatio)), 1, srcH)
	y := (srcH - cropH) / 2
	return image.Rect(0, y, srcW, y+cropH)
}

// Place builds the final targetW x targetH white canvas and scales the
// selected part of src into the rows below the reserved band.
//
// When crop is nil a centered crop matching the image area ratio is used.
// A crop reaching past the edges of src is clipped to it; a crop that misses
// src entirely is an error. Scaling uses Lanczos resampling.
func Place(src image.Image, crop *image.Rectangle, targetW, targetH, bandHeight int) (*image.NRGBA, error) {
	areaH := targetH - bandHeight
	if targetW <= 0 || areaH <= 0 {
		return nil, fmt.Errorf("invalid image area %dx%d", targetW, areaH)
	}

	b := src.Bounds()
	var region image.Rectangle
	if crop != nil {
		region = crop.Add(b.Min).Intersect(b)
		if region.Empty() {
			return nil, fmt.Errorf("crop region %v outside image bounds %dx%d", *crop, b.Dx(), b.Dy())
		}
	} else {
		region = CenterCrop(b.Dx(), b.Dy(), targetW, areaH).Add(b.Min)
	}

	canvas := imaging.New(targetW, targetH, color.White)
	part := imaging.Crop(src, region)
	scaled := imaging.Resize(part, targetW, areaH, imaging.Lanczos)
	return imaging.Paste(canvas, scaled, image.Pt(0, bandHeight)), nil
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
