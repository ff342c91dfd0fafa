// Package imaging provides the pixel stages of the photo preparation pipeline.
//
// Each stage is a pure function over an owned buffer and returns a new one:
//
//   - Decode: raw bytes to image.Image, honoring EXIF orientation
//   - Rotate / FlattenOnWhite: clockwise rotation onto an opaque white canvas
//     sized to hold every corner, or a plain white flatten at 0°
//   - Place: crop (explicit or centered) and Lanczos-scale into the rows below
//     an optional date band
//   - Recolor: luminance-based ink-on-white mapping for signatures
//   - DrawDateBand: white top strip with the date in bold, DD-MM-YYYY
//   - EncodeToSize: JPEG quality search toward a byte budget
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y downward. Rectangles are inclusive at Min and
// exclusive at Max. Crop rectangles passed to Place are expressed in the
// coordinate space of the already rotated image.
//
// # Thread Safety
//
// Stage functions share no mutable state and may run concurrently on
// different images. ImageCache is safe for concurrent use.
//
// # Size Targeting
//
// JPEG size is only weakly monotonic in quality, so EncodeToSize keeps the
// in-bounds attempt closest to the target rather than the last one. When no
// attempt fits, it walks quality toward the violated bound and may still
// return an out-of-bounds result; SizedEncoding.InBounds reports that case.
package imaging
