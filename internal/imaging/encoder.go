package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Quality search bounds. Qualities are fractions in [MinQuality, MaxQuality].
const (
	MinQuality          = 0.1
	MaxQuality          = 1.0
	QualityStep         = 0.05
	MaxSearchIterations = 12
	searchTolerance     = 0.01

	// qualityFloorPreference is the preference at or below which the byte
	// target sits at minBytes.
	qualityFloorPreference = 30
)

// ErrNoEncoding is returned when every encode attempt failed.
var ErrNoEncoding = errors.New("no quality produced an encoding")

// Encoder encodes an image at a quality in (0, 1].
type Encoder interface {
	Encode(img image.Image, quality float64) ([]byte, error)
}

// JPEGEncoder encodes baseline JPEG. Quality q maps to JPEG quality
// round(q*100), clamped to [1, 100].
type JPEGEncoder struct{}

// Encode implements Encoder.
func (JPEGEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality(quality))); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// JPEGQuality converts a fractional quality to the 1-100 JPEG scale.
func JPEGQuality(quality float64) int {
	return clamp(int(math.Round(quality*100)), 1, 100)
}

// SizeTarget describes the byte budget of an encoding.
type SizeTarget struct {
	MinBytes          int
	MaxBytes          int
	QualityPreference int
}

// TargetBytes interpolates between MinBytes and MaxBytes by preference.
// Preferences at or below 30 map to MinBytes, 100 maps to MaxBytes.
func (t SizeTarget) TargetBytes() int {
	pref := float64(clamp(t.QualityPreference, 0, 100))
	frac := (pref - qualityFloorPreference) / (100 - qualityFloorPreference)
	frac = math.Max(0, math.Min(1, frac))
	return t.MinBytes + int(math.Round(float64(t.MaxBytes-t.MinBytes)*frac))
}

func (t SizeTarget) contains(size int) bool {
	return size >= t.MinBytes && size <= t.MaxBytes
}

// Search phases reported in EncodeAttempt.
const (
	PhaseSearch   = "search"
	PhaseFallback = "fallback"
)

// EncodeAttempt describes one call to the underlying encoder.
type EncodeAttempt struct {
	// Attempt is the 1-based index of this call within one EncodeToSize.
	Attempt int
	Phase   string
	Quality float64
	Size    int
	Err     error
}

// SizedEncoding is the outcome of EncodeToSize.
type SizedEncoding struct {
	Data     []byte
	Size     int
	Quality  float64
	Attempts int
	// InBounds reports whether Size landed in [MinBytes, MaxBytes].
	InBounds bool
}

// EncodeToSize searches encoder quality for the encoding whose size is
// closest to target.TargetBytes() while staying inside [MinBytes, MaxBytes].
//
// A binary search over [MinQuality, MaxQuality] runs for at most
// MaxSearchIterations steps. If no attempt lands in bounds, the final
// midpoint is encoded and quality is walked in QualityStep increments
// toward the violated bound. The result can still be out of bounds for
// images that cannot be compressed that far; InBounds tells the caller.
//
// observe, if non-nil, is called after every encoder call.
func EncodeToSize(img image.Image, enc Encoder, target SizeTarget, observe func(EncodeAttempt)) (*SizedEncoding, error) {
	s := &sizeSearch{img: img, enc: enc, target: target, observe: observe}
	goal := float64(target.TargetBytes())

	lo, hi := MinQuality, MaxQuality
	var best *SizedEncoding
	bestDist := math.Inf(1)

	for i := 0; i < MaxSearchIterations && hi-lo > searchTolerance; i++ {
		mid := (lo + hi) / 2
		data, err := s.encode(PhaseSearch, mid)
		if err != nil {
			hi = mid
			continue
		}
		size := len(data)
		if target.contains(size) {
			if dist := math.Abs(float64(size) - goal); dist < bestDist {
				bestDist = dist
				best = &SizedEncoding{Data: data, Size: size, Quality: mid, InBounds: true}
			}
		}
		if float64(size) < goal {
			lo = mid
		} else {
			hi = mid
		}
	}

	if best != nil {
		best.Attempts = s.attempts
		return best, nil
	}
	return s.fallback((lo + hi) / 2)
}

type sizeSearch struct {
	img      image.Image
	enc      Encoder
	target   SizeTarget
	observe  func(EncodeAttempt)
	attempts int
	lastErr  error

	// lastOK is the most recent successful attempt.
	lastOK        []byte
	lastOKQuality float64
}

func (s *sizeSearch) encode(phase string, quality float64) ([]byte, error) {
	data, err := s.enc.Encode(s.img, quality)
	s.attempts++
	if err != nil {
		s.lastErr = err
	} else {
		s.lastOK, s.lastOKQuality = data, quality
	}
	if s.observe != nil {
		s.observe(EncodeAttempt{Attempt: s.attempts, Phase: phase, Quality: quality, Size: len(data), Err: err})
	}
	return data, err
}

// fallback walks quality from q toward whichever bound was missed.
func (s *sizeSearch) fallback(q float64) (*SizedEncoding, error) {
	data, err := s.encode(PhaseFallback, q)
	if err != nil {
		if s.lastOK == nil {
			return nil, fmt.Errorf("%w: %v", ErrNoEncoding, s.lastErr)
		}
		q, data = s.lastOKQuality, s.lastOK
	}

	switch {
	case len(data) > s.target.MaxBytes:
		for len(data) > s.target.MaxBytes && q > MinQuality {
			next := math.Max(MinQuality, q-QualityStep)
			d, err := s.encode(PhaseFallback, next)
			if err != nil {
				break
			}
			q, data = next, d
		}
	case len(data) < s.target.MinBytes:
		for len(data) < s.target.MinBytes && q < MaxQuality {
			next := math.Min(MaxQuality, q+QualityStep)
			d, err := s.encode(PhaseFallback, next)
			if err != nil || len(d) > s.target.MaxBytes {
				break
			}
			q, data = next, d
		}
	}

	return &SizedEncoding{
		Data:     data,
		Size:     len(data),
		Quality:  q,
		Attempts: s.attempts,
		InBounds: s.target.contains(len(data)),
	}, nil
}
