package payload

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"
)

// Format is the image container recognized from magic bytes.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatUnknown Format = "unknown"
)

// sniffLen is the minimum buffer length considered at all.
const sniffLen = 8

var signatures = []struct {
	format Format
	magic  []byte
}{
	{FormatJPEG, []byte{0xFF, 0xD8, 0xFF}},
	{FormatPNG, []byte{0x89, 0x50, 0x4E, 0x47}},
	{FormatGIF, []byte{0x47, 0x49, 0x46, 0x38}},
}

// Classify matches the head of b against the supported image signatures.
// Buffers shorter than 8 bytes are always unknown.
func Classify(b []byte) Format {
	if len(b) < sniffLen {
		return FormatUnknown
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(b, sig.magic) {
			return sig.format
		}
	}
	return FormatUnknown
}

// Supported reports whether the format can be sent to OCR.
func (f Format) Supported() bool {
	return f != FormatUnknown
}

// DetectedMIME names what the payload looks like; used in rejection messages only.
func DetectedMIME(b []byte) string {
	return mimetype.Detect(b).String()
}
