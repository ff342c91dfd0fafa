package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
	"time"

	fimaging "github.com/ironsheep/formphoto-mcp/internal/imaging"
)

func skipIfNoTesseract(t *testing.T, err error) {
	t.Helper()
	if strings.Contains(err.Error(), "tesseract") ||
		strings.Contains(err.Error(), "library") ||
		strings.Contains(err.Error(), "language") {
		t.Skip("Tesseract not available")
	}
}

// createStampedPhoto builds a prepared-photo lookalike: a gray body under a
// date band drawn the way the pipeline draws it.
func createStampedPhoto(t *testing.T, width, height int, date time.Time) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{90, 90, 90, 255}), image.Point{}, draw.Src)
	if err := fimaging.DrawDateBand(img, fimaging.BandHeight(height, true), date); err != nil {
		t.Fatalf("failed to draw date band: %v", err)
	}
	return img
}

func TestMatchStampDate(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"07-03-2024", "07-03-2024", true},
		{"07-03-2024\n", "07-03-2024", true},
		{"07 - 03 - 2024", "07-03-2024", true},
		{"noise 31-12-1999 tail", "31-12-1999", true},
		{"31-02-2024", "", false}, // no such day
		{"13-13-2024 01-01-2025", "01-01-2025", true},
		{"7-3-2024", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchStampDate(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MatchStampDate(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestReadDateStamp_BandTooTall(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 20))
	if _, err := ReadDateStamp(img, 21, "eng"); err == nil {
		t.Error("ReadDateStamp should fail when the band exceeds the image")
	}
}

func TestReadDateStamp(t *testing.T) {
	date := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	img := createStampedPhoto(t, 400, 460, date)

	stamp, err := ReadDateStamp(img, 0, "eng")
	if err != nil {
		skipIfNoTesseract(t, err)
		t.Fatalf("ReadDateStamp failed: %v", err)
	}

	if stamp.BandHeight != 37 {
		t.Errorf("BandHeight = %d, want 37", stamp.BandHeight)
	}
	if !stamp.Found {
		// Recognition quality depends on the installed traineddata.
		t.Logf("date not recognized, raw text %q", stamp.Text)
		return
	}
	if stamp.Date != "07-03-2024" {
		t.Errorf("Date = %q, want 07-03-2024", stamp.Date)
	}
}

func TestExtractText_Blank(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	result, err := ExtractText(img, Options{Language: "eng"})
	if err != nil {
		skipIfNoTesseract(t, err)
		t.Fatalf("ExtractText failed: %v", err)
	}
	if result == nil {
		t.Fatal("ExtractText returned nil result")
	}
	if strings.TrimSpace(result.FullText) != "" {
		t.Logf("blank image produced text %q", result.FullText)
	}
}

func TestExtractText_InvalidLanguage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	_, err := ExtractText(img, Options{Language: "invalid_language_code_xyz"})
	if err == nil {
		t.Log("ExtractText did not fail for invalid language - may be Tesseract config")
	}
}
