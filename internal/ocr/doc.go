// Package ocr reads text back out of prepared photos using Tesseract (via
// gosseract/v2).
//
// Its main use is verifying the date band: ReadDateStamp crops the band,
// enlarges it and recognizes the DD-MM-YYYY stamp. ExtractText is the general
// entry point and works on in-memory images.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The default language is English ("eng"); digits are the same in every
// Latin-script traineddata, so any installed language works for date stamps.
package ocr
