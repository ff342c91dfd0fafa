package pipeline

import (
	"image"
	"image/color"

	"github.com/ironsheep/formphoto-mcp/internal/imaging"
)

// DefaultQualityPreference is used when a request leaves the preference unset.
const DefaultQualityPreference = 80

// CropRegion selects part of the source. X, Y, Width and Height are in the
// coordinate space of the source after it was rotated by RotationDegrees.
type CropRegion struct {
	X               int     `json:"x" yaml:"x"`
	Y               int     `json:"y" yaml:"y"`
	Width           int     `json:"width" yaml:"width"`
	Height          int     `json:"height" yaml:"height"`
	RotationDegrees float64 `json:"rotation_degrees" yaml:"rotation_degrees"`
}

// Rect returns the crop as an image rectangle.
func (c CropRegion) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// OutputSpec describes the image to produce.
type OutputSpec struct {
	TargetWidth  int `json:"target_width"`
	TargetHeight int `json:"target_height"`
	MinBytes     int `json:"min_bytes"`
	MaxBytes     int `json:"max_bytes"`

	// QualityPreference in [0, 100] biases the byte target between MinBytes
	// (30 and below) and MaxBytes (100). Values outside the range are clamped.
	QualityPreference int `json:"quality_preference"`

	AddDateBand bool `json:"add_date_band"`

	// InkColor switches on signature mode when set.
	InkColor *color.RGBA `json:"-"`
}

// Validate checks the spec and the optional crop. It allocates nothing.
func (s OutputSpec) Validate(crop *CropRegion) error {
	if s.TargetWidth <= 0 {
		return &ValidationError{Field: "target_width", Reason: "must be positive"}
	}
	if s.TargetHeight <= 0 {
		return &ValidationError{Field: "target_height", Reason: "must be positive"}
	}
	if s.MinBytes < 0 {
		return &ValidationError{Field: "min_bytes", Reason: "must not be negative"}
	}
	if s.MinBytes > s.MaxBytes {
		return &ValidationError{Field: "max_bytes", Reason: "must be at least min_bytes"}
	}
	if imaging.BandHeight(s.TargetHeight, s.AddDateBand) >= s.TargetHeight {
		return &ValidationError{Field: "target_height", Reason: "too small to hold a date band and an image"}
	}
	if crop != nil && (crop.Width <= 0 || crop.Height <= 0) {
		return &ValidationError{Field: "crop", Reason: "width and height must be positive"}
	}
	return nil
}

// normalized returns a copy with the quality preference clamped.
func (s OutputSpec) normalized() OutputSpec {
	switch {
	case s.QualityPreference < 0:
		s.QualityPreference = 0
	case s.QualityPreference > 100:
		s.QualityPreference = 100
	}
	return s
}

// ParseInkColor parses a "#RRGGBB" string for OutputSpec.InkColor. An empty
// string means no ink color.
func ParseInkColor(hex string) (*color.RGBA, error) {
	if hex == "" {
		return nil, nil
	}
	c, err := imaging.ParseInkColor(hex)
	if err != nil {
		return nil, &ValidationError{Field: "ink_color", Reason: "must be #RRGGBB", Err: err}
	}
	return &c, nil
}
