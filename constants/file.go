package constants

import "strings"

// MediaTypePDF is the only media type accepted for résumé uploads.
const MediaTypePDF = "application/pdf"

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFMediaType reports whether a declared content type names a PDF.
// Parameters such as "; charset=binary" are ignored.
func IsPDFMediaType(mt string) bool {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.EqualFold(strings.TrimSpace(mt), MediaTypePDF)
}

// Rasterization defaults.
const (
	DefaultPageWidth = 2048
	DefaultDPI       = 100
	ImageFormatJPEG  = "jpeg"
	MediaTypeJPEG    = "image/jpeg"
)
