package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	fimaging "github.com/ironsheep/formphoto-mcp/internal/imaging"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a word with its location and OCR confidence.
type TextRegion struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the complete results of text extraction from an image.
type OCRResult struct {
	FullText string       `json:"full_text"`
	Regions  []TextRegion `json:"regions"`
}

// Options tune a single Tesseract run.
type Options struct {
	// Language is a Tesseract language code such as "eng".
	Language string
	// Whitelist restricts recognized characters when non-empty.
	Whitelist string
	// SingleLine treats the image as one line of text.
	SingleLine bool
}

// ExtractText performs OCR on an in-memory image.
//
// The image is handed to Tesseract as PNG bytes, so no temporary file is
// needed. If word bounding boxes cannot be extracted, FullText is still
// returned with an empty Regions slice.
func ExtractText(img image.Image, opts Options) (*OCRResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(opts.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if opts.SingleLine {
		if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &OCRResult{FullText: text, Regions: []TextRegion{}}, nil
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &OCRResult{FullText: text, Regions: regions}, nil
}

// bandUpscale enlarges the band before recognition. Date text in a 230px
// photo is about 12px tall, well below what Tesseract reads reliably.
const bandUpscale = 4

var stampPattern = regexp.MustCompile(`(\d{2})\s*-\s*(\d{2})\s*-\s*(\d{4})`)

// DateStamp is the outcome of reading a prepared photo's date band.
type DateStamp struct {
	// Text is the raw recognized band text.
	Text string `json:"text"`

	// Date is the normalized DD-MM-YYYY string, empty when none was found.
	Date string `json:"date,omitempty"`

	// Found reports whether a valid calendar date was recognized.
	Found bool `json:"found"`

	BandHeight int `json:"band_height"`

	Confidence float64 `json:"confidence"`
}

// ReadDateStamp reads the date printed in the top band of a prepared photo.
//
// bandHeight <= 0 derives the band from the image height the same way the
// pipeline does. The band is cropped, upscaled and converted to grayscale
// before recognition, with recognition limited to digits and dashes.
func ReadDateStamp(img image.Image, bandHeight int, language string) (*DateStamp, error) {
	b := img.Bounds()
	if bandHeight <= 0 {
		bandHeight = fimaging.BandHeight(b.Dy(), true)
	}
	if bandHeight > b.Dy() {
		return nil, fmt.Errorf("band height %d exceeds image height %d", bandHeight, b.Dy())
	}

	band := imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+bandHeight))
	band = imaging.Resize(band, band.Bounds().Dx()*bandUpscale, 0, imaging.Lanczos)
	gray := imaging.Grayscale(band)

	res, err := ExtractText(gray, Options{
		Language:   language,
		Whitelist:  "0123456789-",
		SingleLine: true,
	})
	if err != nil {
		return nil, err
	}

	stamp := &DateStamp{Text: res.FullText, BandHeight: bandHeight}
	if date, ok := MatchStampDate(res.FullText); ok {
		stamp.Date = date
		stamp.Found = true
	}
	if len(res.Regions) > 0 {
		sum := 0.0
		for _, r := range res.Regions {
			sum += r.Confidence
		}
		stamp.Confidence = sum / float64(len(res.Regions))
	}
	return stamp, nil
}

// MatchStampDate finds the first DD-MM-YYYY date in text that names a real
// calendar day and returns it normalized.
func MatchStampDate(text string) (string, bool) {
	for _, m := range stampPattern.FindAllStringSubmatch(text, -1) {
		date := m[1] + "-" + m[2] + "-" + m[3]
		if _, err := time.Parse(fimaging.DateLayout, date); err == nil {
			return date, true
		}
	}
	return "", false
}
