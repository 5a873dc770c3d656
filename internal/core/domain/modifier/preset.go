package modifier

import (
	"fmt"

	"imgforge/internal/core/domain"
)

// Preset is a named, reusable modifier set. A preset may carry a
// responsive descriptor plus the default value substituted when a
// single link is built instead of a full srcset.
type Preset struct {
	Modifiers              map[string]string
	Descriptor             domain.Descriptor
	DefaultDescriptorValue string
}

// PresetTable resolves preset aliases. Populated at startup, read-only
// afterwards; requests naming a preset are expanded to its modifier map
// before the codec ever sees them.
type PresetTable struct {
	presets map[string]Preset
}

// NewPresetTable returns an empty table.
func NewPresetTable() *PresetTable {
	return &PresetTable{presets: make(map[string]Preset)}
}

// Add registers a preset under an alias, replacing any previous entry.
func (t *PresetTable) Add(alias string, p Preset) {
	t.presets[alias] = p
}

// Get returns the preset registered under alias. A missing preset is a
// user/configuration error, not a fatal one.
func (t *PresetTable) Get(alias string) (Preset, error) {
	p, ok := t.presets[alias]
	if !ok {
		return Preset{}, domain.NewRequestError(domain.ErrPresetNotFound,
			fmt.Sprintf("preset %q is not defined", alias))
	}
	return p, nil
}

// Has reports whether an alias names a preset.
func (t *PresetTable) Has(alias string) bool {
	_, ok := t.presets[alias]
	return ok
}
