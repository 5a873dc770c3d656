package modifier

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical modifier names. ModifierValues are always keyed by these,
// never by the URL alias.
const (
	Width          = "width"
	Height         = "height"
	PixelDensity   = "pixelDensity"
	Quality        = "quality"
	Orientation    = "orientation"
	PreserveFormat = "preserveFormat"
)

// OrientationAuto requests orientation from embedded metadata instead
// of an explicit angle.
const OrientationAuto = "auto"

// Modifier is one named, URL-aliasable transformation parameter. Flag
// modifiers carry no value; their presence parses to boolean true.
type Modifier struct {
	Name  string
	Alias string
	Flag  bool
	Parse func(raw string) (any, error)
}

// Builtins returns the default modifier set.
func Builtins() []Modifier {
	return []Modifier{
		{Name: Width, Alias: "w", Parse: parseDimension},
		{Name: Height, Alias: "h", Parse: parseDimension},
		{Name: PixelDensity, Alias: "pd", Parse: parseDensity},
		{Name: Quality, Alias: "q", Parse: parseQuality},
		{Name: Orientation, Alias: "o", Parse: parseOrientation},
		{Name: PreserveFormat, Alias: "pf", Flag: true},
	}
}

func parseDimension(raw string) (any, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("expected a positive integer, got %q", raw)
	}
	return n, nil
}

func parseDensity(raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return nil, fmt.Errorf("expected a positive number, got %q", raw)
	}
	return f, nil
}

func parseQuality(raw string) (any, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 100 {
		return nil, fmt.Errorf("expected an integer between 1 and 100, got %q", raw)
	}
	return n, nil
}

func parseOrientation(raw string) (any, error) {
	if strings.EqualFold(raw, OrientationAuto) {
		return OrientationAuto, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("expected an angle or %q, got %q", OrientationAuto, raw)
	}
	return n, nil
}
