package modifier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"imgforge/internal/core/domain"
)

// Default segment separators.
const (
	DefaultSeparator = ","
	DefaultAssigner  = ":"
)

// Codec encodes a canonical modifier set to a URL path segment and
// back. Encoding always emits entries sorted by canonical modifier
// name, so equal modifier sets map to equal cache keys regardless of
// input order.
type Codec struct {
	registry  *Registry
	separator string
	assigner  string
}

// NewCodec builds a codec over the given registry. Empty separator or
// assigner fall back to the defaults.
func NewCodec(registry *Registry, cfg domain.CodecConfig) *Codec {
	sep := cfg.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	assign := cfg.Assigner
	if assign == "" {
		assign = DefaultAssigner
	}
	return &Codec{registry: registry, separator: sep, assigner: assign}
}

// Encode serializes typed values into a modifier segment. An empty
// value set is an error; callers address untransformed sources without
// going through the codec.
func (c *Codec) Encode(values Values) (string, error) {
	if values.Len() == 0 {
		return "", errors.New("cannot encode an empty modifier set")
	}

	parts := make([]string, 0, values.Len())
	for _, name := range values.Names() {
		m, ok := c.registry.ByName(name)
		if !ok {
			return "", fmt.Errorf("modifier %q is not registered", name)
		}

		if m.Flag {
			if values.Bool(name) {
				parts = append(parts, m.Alias)
			}
			continue
		}

		raw, err := formatValue(values, name)
		if err != nil {
			return "", err
		}
		parts = append(parts, m.Alias+c.assigner+raw)
	}

	if len(parts) == 0 {
		return "", errors.New("cannot encode an empty modifier set")
	}
	return strings.Join(parts, c.separator), nil
}

// Decode splits a modifier segment into a raw alias/value map. Flags
// decode to an empty value; ParseValues turns them into boolean true.
func (c *Codec) Decode(segment string) (map[string]string, error) {
	if segment == "" {
		return nil, domain.NewRequestError(domain.ErrPathFormat, "empty modifier segment")
	}

	raw := make(map[string]string)
	for _, part := range strings.Split(segment, c.separator) {
		tokens := strings.Split(part, c.assigner)
		if len(tokens) > 2 {
			return nil, domain.NewRequestError(domain.ErrModifierParse,
				fmt.Sprintf("malformed modifier %q", part))
		}

		alias := tokens[0]
		m, ok := c.registry.ByAlias(alias)
		if !ok {
			return nil, domain.NewRequestError(domain.ErrModifierParse,
				fmt.Sprintf("unknown modifier %q", alias))
		}

		if len(tokens) == 1 {
			if !m.Flag {
				return nil, domain.NewRequestError(domain.ErrModifierParse,
					fmt.Sprintf("modifier %q requires a value", alias))
			}
			raw[alias] = ""
			continue
		}

		if m.Flag {
			return nil, domain.NewRequestError(domain.ErrModifierParse,
				fmt.Sprintf("modifier %q takes no value, got %q", alias, tokens[1]))
		}
		if tokens[1] == "" {
			return nil, domain.NewRequestError(domain.ErrModifierParse,
				fmt.Sprintf("modifier %q requires a value", alias))
		}
		raw[alias] = tokens[1]
	}

	return raw, nil
}

// EncodeRaw parses and re-encodes a raw alias/value map, yielding the
// canonical segment for it.
func (c *Codec) EncodeRaw(raw map[string]string) (string, error) {
	values, err := c.registry.ParseValues(raw)
	if err != nil {
		return "", err
	}
	return c.Encode(values)
}

func formatValue(values Values, name string) (string, error) {
	v, _ := values.Get(name)
	switch t := v.(type) {
	case int:
		return strconv.Itoa(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case string:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported value type %T for modifier %q", v, name)
	}
}
