package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"time"

	"github.com/ironsheep/formphoto-mcp/internal/imaging"
)

// Result is a finished encoding. It is never partially filled: Process
// returns either a complete Result or an error.
type Result struct {
	Bytes     []byte
	SizeBytes int
	Width     int
	Height    int
	ElapsedMs int64

	// Quality is the encoder quality, in (0, 1], that produced Bytes.
	Quality float64
	// Attempts counts encoder calls made for this result.
	Attempts int
	// InBounds reports whether SizeBytes is within [MinBytes, MaxBytes].
	InBounds bool
}

// Processor runs the fixed stage sequence. A Processor holds no per-run
// state and may be shared by concurrent callers.
type Processor struct {
	encoder imaging.Encoder
	now     func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithEncoder replaces the JPEG encoder.
func WithEncoder(enc imaging.Encoder) Option {
	return func(p *Processor) { p.encoder = enc }
}

// WithClock replaces time.Now as the source of the stamped date.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// New creates a Processor with the JPEG encoder and the system clock.
func New(opts ...Option) *Processor {
	p := &Processor{
		encoder: imaging.JPEGEncoder{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process turns source bytes into an encoded image matching spec.
//
// Stages run in order: decode, rotate and flatten, crop and scale into the
// area below the date band, recolor, date band, size-targeted encode. progress
// (may be nil) receives non-decreasing percentages ending at 100 on success.
// ctx is checked between stages.
func (p *Processor) Process(ctx context.Context, src []byte, spec OutputSpec, crop *CropRegion, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	log := Logger()

	if err := spec.Validate(crop); err != nil {
		return nil, err
	}
	spec = spec.normalized()
	pr := newProgressReporter(progress)

	img, err := imaging.Decode(src)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	pr.report(progressDecoded)
	log.Debug("decoded", slog.Int("width", img.Bounds().Dx()), slog.Int("height", img.Bounds().Dy()))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rotation float64
	var cropRect *image.Rectangle
	if crop != nil {
		rotation = imaging.NormalizeRotation(crop.RotationDegrees)
		r := crop.Rect()
		cropRect = &r
	}
	intermediate := imaging.Rotate(img, rotation)
	pr.report(progressRotated)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	band := imaging.BandHeight(spec.TargetHeight, spec.AddDateBand)
	placed, err := imaging.Place(intermediate, cropRect, spec.TargetWidth, spec.TargetHeight, band)
	if err != nil {
		return nil, &ValidationError{Field: "crop", Reason: "does not overlap the rotated image", Err: err}
	}
	pr.report(progressPlaced)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var final draw.Image = placed
	if spec.InkColor != nil {
		final = imaging.Recolor(placed, *spec.InkColor)
	}
	pr.report(progressRecolored)

	if band > 0 {
		if err := imaging.DrawDateBand(final, band, p.now()); err != nil {
			return nil, fmt.Errorf("failed to draw date band: %w", err)
		}
	}
	pr.report(progressBanded)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := imaging.SizeTarget{
		MinBytes:          spec.MinBytes,
		MaxBytes:          spec.MaxBytes,
		QualityPreference: spec.QualityPreference,
	}
	enc, err := imaging.EncodeToSize(final, p.encoder, target, func(a imaging.EncodeAttempt) {
		log.Debug("encode attempt",
			slog.String("phase", a.Phase),
			slog.Float64("quality", a.Quality),
			slog.Int("size", a.Size),
			slog.Any("error", a.Err))
		pr.encodeAttempt(a.Attempt)
	})
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	pr.report(progressEncodeEnd)

	if !enc.InBounds {
		log.Warn("encoded size outside bounds",
			slog.Int("size", enc.Size),
			slog.Int("min_bytes", spec.MinBytes),
			slog.Int("max_bytes", spec.MaxBytes))
	}

	b := final.Bounds()
	res := &Result{
		Bytes:     enc.Data,
		SizeBytes: enc.Size,
		Width:     b.Dx(),
		Height:    b.Dy(),
		ElapsedMs: time.Since(start).Milliseconds(),
		Quality:   enc.Quality,
		Attempts:  enc.Attempts,
		InBounds:  enc.InBounds,
	}
	pr.report(progressDone)
	return res, nil
}
