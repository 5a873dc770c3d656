package service

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"

	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
)

// WDescriptor generates width-based srcset candidates: one variant per
// width, each suffixed "{n}w". Without a registered width alias it
// collapses to the single base candidate.
type WDescriptor struct {
	alias  string
	widths []int
}

// NewWDescriptor builds a width descriptor over the registry's width
// alias.
func NewWDescriptor(registry *modifier.Registry, widths []int) *WDescriptor {
	alias, _ := registry.Alias(modifier.Width)
	return &WDescriptor{alias: alias, widths: widths}
}

// WidthRange generates the inclusive width list from..to stepping by
// step.
func WidthRange(from, to, step int) []int {
	if step <= 0 || to < from {
		return nil
	}
	var widths []int
	for w := from; w <= to; w += step {
		widths = append(widths, w)
	}
	return widths
}

func (d *WDescriptor) Variants(base map[string]string) []domain.Variant {
	if d.alias == "" {
		return []domain.Variant{{Modifiers: maps.Clone(base)}}
	}

	variants := make([]domain.Variant, 0, len(d.widths))
	for _, w := range d.widths {
		mods := maps.Clone(base)
		if mods == nil {
			mods = make(map[string]string, 1)
		}
		mods[d.alias] = strconv.Itoa(w)
		variants = append(variants, domain.Variant{
			Modifiers: mods,
			Suffix:    fmt.Sprintf("%dw", w),
		})
	}
	return variants
}

func (d *WDescriptor) Default(base map[string]string, value string) map[string]string {
	if d.alias == "" {
		return base
	}
	mods := maps.Clone(base)
	if mods == nil {
		mods = make(map[string]string, 1)
	}
	mods[d.alias] = value
	return mods
}

func (d *WDescriptor) Key() string {
	parts := make([]string, len(d.widths))
	for i, w := range d.widths {
		parts[i] = strconv.Itoa(w)
	}
	return "w:" + strings.Join(parts, ",")
}

// XDescriptor generates pixel-density srcset candidates. Density 1.0
// is always included and stays unsuffixed; every other density is
// suffixed "{d}x".
type XDescriptor struct {
	alias     string
	densities []float64
}

// NewXDescriptor builds a density descriptor over the registry's
// pixel-density alias.
func NewXDescriptor(registry *modifier.Registry, densities []float64) *XDescriptor {
	alias, _ := registry.Alias(modifier.PixelDensity)

	withBase := []float64{1.0}
	for _, d := range densities {
		if d != 1.0 {
			withBase = append(withBase, d)
		}
	}
	sort.Float64s(withBase)

	return &XDescriptor{alias: alias, densities: withBase}
}

func (d *XDescriptor) Variants(base map[string]string) []domain.Variant {
	if d.alias == "" {
		return []domain.Variant{{Modifiers: maps.Clone(base)}}
	}

	variants := make([]domain.Variant, 0, len(d.densities))
	for _, density := range d.densities {
		mods := maps.Clone(base)
		if mods == nil {
			mods = make(map[string]string, 1)
		}
		formatted := strconv.FormatFloat(density, 'f', -1, 64)
		mods[d.alias] = formatted

		var suffix string
		if density != 1.0 {
			suffix = formatted + "x"
		}
		variants = append(variants, domain.Variant{Modifiers: mods, Suffix: suffix})
	}
	return variants
}

func (d *XDescriptor) Default(base map[string]string, value string) map[string]string {
	if d.alias == "" {
		return base
	}
	mods := maps.Clone(base)
	if mods == nil {
		mods = make(map[string]string, 1)
	}
	mods[d.alias] = value
	return mods
}

func (d *XDescriptor) Key() string {
	parts := make([]string, len(d.densities))
	for i, density := range d.densities {
		parts[i] = strconv.FormatFloat(density, 'f', -1, 64)
	}
	return "x:" + strings.Join(parts, ",")
}

// SrcSetGenerator renders srcset attribute values, memoizing per
// descriptor and canonical path for its lifetime.
type SrcSetGenerator struct {
	linker *LinkGenerator

	mu   sync.RWMutex
	memo map[string]string
}

func NewSrcSetGenerator(linker *LinkGenerator) *SrcSetGenerator {
	return &SrcSetGenerator{linker: linker, memo: make(map[string]string)}
}

// Generate builds the comma-joined candidate list for the descriptor
// applied to pi's modifier set.
func (g *SrcSetGenerator) Generate(d domain.Descriptor, pi domain.PathInfo) (string, error) {
	key := memoKey(d, pi)

	g.mu.RLock()
	cached, ok := g.memo[key]
	g.mu.RUnlock()
	if ok {
		return cached, nil
	}

	set, err := g.build(d, pi)
	if err != nil {
		return "", err
	}
	serialized := set.Serialize()

	g.mu.Lock()
	g.memo[key] = serialized
	g.mu.Unlock()

	return serialized, nil
}

func (g *SrcSetGenerator) build(d domain.Descriptor, pi domain.PathInfo) (domain.SrcSet, error) {
	base := pi.Modifiers
	if base == nil {
		base = map[string]string{}
	}

	set := domain.SrcSet{Kind: strings.SplitN(d.Key(), ":", 2)[0]}
	for _, variant := range d.Variants(base) {
		variantPath := pi
		variantPath.Preset = ""
		variantPath.Modifiers = variant.Modifiers

		link, err := g.linker.Link(variantPath)
		if err != nil {
			return domain.SrcSet{}, err
		}
		set.Entries = append(set.Entries, domain.SrcSetEntry{Key: variant.Suffix, URL: link})
	}
	return set, nil
}

// memoKey canonicalizes the modifier map by sorted alias so equal sets
// hit the same entry regardless of construction order.
func memoKey(d domain.Descriptor, pi domain.PathInfo) string {
	aliases := make([]string, 0, len(pi.Modifiers))
	for alias := range pi.Modifiers {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var b strings.Builder
	b.WriteString(d.Key())
	b.WriteByte('|')
	b.WriteString(pi.Namespace)
	b.WriteByte('/')
	b.WriteString(pi.FileName())
	b.WriteByte('|')
	b.WriteString(pi.Version)
	b.WriteByte('|')
	for _, alias := range aliases {
		b.WriteString(alias)
		b.WriteByte('=')
		b.WriteString(pi.Modifiers[alias])
		b.WriteByte(';')
	}
	return b.String()
}
