package domain

import (
	"path"
	"strings"
)

// PathInfo identifies one addressable image asset. A nil Modifiers map
// denotes the untransformed source; a non-nil map denotes a derived
// variant. Preset carries the alias the modifiers were expanded from,
// when the request used one.
type PathInfo struct {
	Namespace string
	Name      string
	Extension string
	Preset    string
	Modifiers map[string]string
	Version   string
}

// HasModifiers reports whether the path addresses a derived variant.
func (p PathInfo) HasModifiers() bool {
	return p.Modifiers != nil
}

// SourcePath returns the source-tier storage path. Source assets are
// stored without an extension; the requested extension only selects the
// output encoding of derived variants.
func (p PathInfo) SourcePath() string {
	return path.Join(p.Namespace, p.Name)
}

// CachePath returns the cache-tier storage path for the given encoded
// modifier segment.
func (p PathInfo) CachePath(segment string) string {
	file := p.Name
	if p.Extension != "" {
		file += "." + p.Extension
	}
	return path.Join(p.Namespace, segment, file)
}

// FileName returns the name plus extension, or just the name for
// extensionless source paths.
func (p PathInfo) FileName() string {
	if p.Extension == "" {
		return p.Name
	}
	return p.Name + "." + p.Extension
}

// WithSource strips the variant information, yielding the PathInfo of
// the underlying source asset.
func (p PathInfo) WithSource() PathInfo {
	return PathInfo{Namespace: p.Namespace, Name: p.Name}
}

// ParseSourcePath splits a plain storage path like "photos/cat.jpg"
// into a source-tier PathInfo.
func ParseSourcePath(raw string) PathInfo {
	raw = strings.Trim(raw, "/")
	dir, file := path.Split(raw)

	var ext string
	if i := strings.LastIndex(file, "."); i > 0 {
		ext = file[i+1:]
		file = file[:i]
	}

	return PathInfo{
		Namespace: strings.Trim(dir, "/"),
		Name:      file,
		Extension: ext,
	}
}

// Resource is a source image bound to a target path, loaded for one
// request and discarded afterwards. Modified is set once the transform
// pipeline has replaced Data with derived bytes.
type Resource struct {
	Path     PathInfo
	Data     []byte
	MimeType string
	Modified bool
}

// Response is the transport-agnostic answer of the image server: the
// body and the headers a delivery layer should set.
type Response struct {
	Body          []byte
	ContentType   string
	ContentLength int
	CacheControl  string
	Expires       string
}

// Variant is one derived modifier set produced by a Descriptor,
// together with the srcset suffix addressing it ("200w", "2x", or
// empty for the base candidate).
type Variant struct {
	Modifiers map[string]string
	Suffix    string
}

// Descriptor generates the candidate variants of a responsive image
// set from a base modifier map.
type Descriptor interface {
	// Variants returns the candidate modifier sets in output order.
	Variants(base map[string]string) []Variant
	// Default substitutes the descriptor's modifier with the given
	// value, yielding the single variant a plain link should address.
	Default(base map[string]string, value string) map[string]string
	// Key identifies the descriptor's configuration for memoization.
	Key() string
}

// SrcSetEntry is one "url descriptor" candidate of a srcset value.
type SrcSetEntry struct {
	Key string
	URL string
}

// SrcSet is an ordered responsive-image candidate list.
type SrcSet struct {
	Kind    string
	Entries []SrcSetEntry
}

// Serialize joins the entries into an HTML srcset attribute value.
func (s SrcSet) Serialize() string {
	parts := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		if e.Key == "" {
			parts[i] = e.URL
			continue
		}
		parts[i] = e.URL + " " + e.Key
	}
	return strings.Join(parts, ", ")
}
