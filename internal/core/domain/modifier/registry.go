package modifier

import (
	"fmt"

	"imgforge/internal/core/domain"
)

// Registry maps modifier aliases and canonical names to their
// definitions. It is populated at startup and read-only afterwards.
type Registry struct {
	byName  map[string]Modifier
	byAlias map[string]Modifier
}

// NewRegistry builds a registry from the given modifiers. Duplicate
// names or aliases are a configuration error and abort startup.
func NewRegistry(mods ...Modifier) (*Registry, error) {
	r := &Registry{
		byName:  make(map[string]Modifier, len(mods)),
		byAlias: make(map[string]Modifier, len(mods)),
	}
	for _, m := range mods {
		if err := r.register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(m Modifier) error {
	if m.Name == "" || m.Alias == "" {
		return fmt.Errorf("modifier needs both a name and an alias, got %+v", m)
	}
	if _, ok := r.byName[m.Name]; ok {
		return fmt.Errorf("duplicate modifier name %q", m.Name)
	}
	if _, ok := r.byAlias[m.Alias]; ok {
		return fmt.Errorf("duplicate modifier alias %q", m.Alias)
	}
	if !m.Flag && m.Parse == nil {
		return fmt.Errorf("modifier %q needs a parser or the flag marker", m.Name)
	}

	r.byName[m.Name] = m
	r.byAlias[m.Alias] = m
	return nil
}

// ByAlias looks a modifier up by its URL alias.
func (r *Registry) ByAlias(alias string) (Modifier, bool) {
	m, ok := r.byAlias[alias]
	return m, ok
}

// ByName looks a modifier up by its canonical name.
func (r *Registry) ByName(name string) (Modifier, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Alias returns the URL alias registered for a canonical name.
func (r *Registry) Alias(name string) (string, bool) {
	m, ok := r.byName[name]
	return m.Alias, ok
}

// ParseValues turns a raw alias/value map into typed Values keyed by
// canonical name. Unknown aliases and rejected values are request-time
// errors.
func (r *Registry) ParseValues(raw map[string]string) (Values, error) {
	values := make(map[string]any, len(raw))

	for alias, rawValue := range raw {
		m, ok := r.byAlias[alias]
		if !ok {
			return Values{}, domain.NewRequestError(domain.ErrModifierParse,
				fmt.Sprintf("unknown modifier %q", alias))
		}

		if m.Flag {
			if rawValue != "" {
				return Values{}, domain.NewRequestError(domain.ErrModifierParse,
					fmt.Sprintf("modifier %q takes no value, got %q", alias, rawValue))
			}
			values[m.Name] = true
			continue
		}

		if rawValue == "" {
			return Values{}, domain.NewRequestError(domain.ErrModifierParse,
				fmt.Sprintf("modifier %q requires a value", alias))
		}

		parsed, err := m.Parse(rawValue)
		if err != nil {
			return Values{}, domain.WrapRequestError(domain.ErrModifierParse,
				fmt.Sprintf("invalid value for modifier %q", alias), err)
		}
		values[m.Name] = parsed
	}

	return Values{values: values}, nil
}
