package service

import (
	"maps"
	"net/url"
	gopath "path"
	"strings"

	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
	"imgforge/internal/core/port"
)

// LinkGenerator builds the externally addressable URL for a derived
// variant. Source assets are never directly link-addressable; every
// external consumer goes through the transformation path.
type LinkGenerator struct {
	cfg     domain.LinkConfig
	codec   *modifier.Codec
	presets *modifier.PresetTable
	signer  port.Signer
}

// NewLinkGenerator builds a generator. A nil signer produces unsigned
// links.
func NewLinkGenerator(cfg domain.LinkConfig, codec *modifier.Codec,
	presets *modifier.PresetTable, signer port.Signer) *LinkGenerator {
	return &LinkGenerator{cfg: cfg, codec: codec, presets: presets, signer: signer}
}

// Link returns the URL addressing the variant described by pi. The
// version and signature query parameters are appended when configured.
func (g *LinkGenerator) Link(pi domain.PathInfo) (string, error) {
	mods, err := g.expand(pi)
	if err != nil {
		return "", err
	}

	segment, err := g.codec.EncodeRaw(mods)
	if err != nil {
		return "", err
	}

	rel := pi.CachePath(segment)

	q := url.Values{}
	if g.cfg.VersionParam != "" && pi.Version != "" {
		q.Set(g.cfg.VersionParam, pi.Version)
	}
	if g.signer != nil && g.cfg.SignatureParam != "" {
		q.Set(g.cfg.SignatureParam, g.signer.CreateToken(rel))
	}

	u := url.URL{
		Path:     "/" + strings.Trim(gopath.Join(g.cfg.BasePath, rel), "/"),
		RawQuery: q.Encode(),
	}

	link := strings.TrimRight(g.cfg.Host, "/") + u.String()

	// The encoded modifier segment may contain percent-escaped
	// characters after URL construction.
	decoded, err := url.PathUnescape(link)
	if err != nil {
		return link, nil
	}
	return decoded, nil
}

// expand resolves a preset alias to its modifier map, substituting the
// preset's default descriptor value when one is configured.
func (g *LinkGenerator) expand(pi domain.PathInfo) (map[string]string, error) {
	if pi.HasModifiers() {
		return pi.Modifiers, nil
	}

	if pi.Preset == "" {
		return nil, domain.NewRequestError(domain.ErrPathFormat,
			"source assets are not link-addressable")
	}

	preset, err := g.presets.Get(pi.Preset)
	if err != nil {
		return nil, err
	}

	mods := maps.Clone(preset.Modifiers)
	if preset.Descriptor != nil && preset.DefaultDescriptorValue != "" {
		mods = preset.Descriptor.Default(mods, preset.DefaultDescriptorValue)
	}
	return mods, nil
}
