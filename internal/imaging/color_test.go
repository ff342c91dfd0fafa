package imaging

import (
	"image/color"
	"testing"
)

func TestSampleColor(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 128, 64, 255})

	result, err := SampleColor(img, 50, 50)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}

	if result.Hex != "#FF8040" {
		t.Errorf("Hex: got %s, want #FF8040", result.Hex)
	}
	if result.RGBA != (RGBAColor{R: 255, G: 128, B: 64, A: 255}) {
		t.Errorf("RGBA: got %+v, want (255,128,64,255)", result.RGBA)
	}
	if result.HSL.H != 20 || result.HSL.S != 100 || result.HSL.L != 62 {
		t.Errorf("HSL: got %+v, want H=20 S=100 L=62", result.HSL)
	}
	// Luminance 0.622 is below the ink threshold.
	if !result.IsInk {
		t.Errorf("orange should be ink (luminance %v)", result.Luminance)
	}
}

func TestSampleColor_Ink(t *testing.T) {
	tests := []struct {
		name  string
		c     color.Color
		isInk bool
	}{
		{"black", color.RGBA{0, 0, 0, 255}, true},
		{"dark blue pen", color.RGBA{20, 30, 120, 255}, true},
		{"paper", color.RGBA{250, 248, 240, 255}, false},
		{"transparent", color.RGBA{0, 0, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(4, 4, tt.c)
			result, err := SampleColor(img, 1, 1)
			if err != nil {
				t.Fatalf("SampleColor failed: %v", err)
			}
			if result.IsInk != tt.isInk {
				t.Errorf("IsInk: got %v, want %v (luminance %v)", result.IsInk, tt.isInk, result.Luminance)
			}
		})
	}
}

func TestSampleColor_Gray(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{128, 128, 128, 255})

	result, err := SampleColor(img, 0, 0)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if result.HSL.H != 0 || result.HSL.S != 0 {
		t.Errorf("gray HSL: got %+v, want H=0 S=0", result.HSL)
	}
	if result.Luminance < 0.5 || result.Luminance > 0.51 {
		t.Errorf("Luminance: got %v, want about 0.502", result.Luminance)
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 50},
		{"negative y", 50, -1},
		{"x too large", 100, 50},
		{"y too large", 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SampleColor(img, tt.x, tt.y); err == nil {
				t.Errorf("SampleColor should fail for (%d,%d)", tt.x, tt.y)
			}
		})
	}
}
