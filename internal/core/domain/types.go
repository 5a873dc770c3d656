package domain

import "strings"

// TypeTable maps supported file extensions to MIME types. It is built
// once at startup and passed read-only to the components that need it.
type TypeTable struct {
	mimes map[string]string
}

// DefaultTypes returns the extension table for the formats the imaging
// backend can decode and encode.
func DefaultTypes() TypeTable {
	return TypeTable{mimes: map[string]string{
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"png":  "image/png",
		"gif":  "image/gif",
		"bmp":  "image/bmp",
		"tif":  "image/tiff",
		"tiff": "image/tiff",
	}}
}

// Supported reports whether the extension belongs to a known image type.
func (t TypeTable) Supported(ext string) bool {
	_, ok := t.mimes[strings.ToLower(ext)]
	return ok
}

// MimeType returns the MIME type for an extension, or an empty string
// when the extension is unknown.
func (t TypeTable) MimeType(ext string) string {
	return t.mimes[strings.ToLower(ext)]
}

// Extensions returns the supported extensions in no particular order.
func (t TypeTable) Extensions() []string {
	exts := make([]string, 0, len(t.mimes))
	for ext := range t.mimes {
		exts = append(exts, ext)
	}
	return exts
}
