package service

import (
	"fmt"
	"strconv"

	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
)

// Validator rejects modifier combinations outside the configured
// allow-lists. Validators never mutate; they run in registration order
// and the first failure aborts the chain.
type Validator interface {
	Validate(values modifier.Values) error
}

// BuildValidators assembles the built-in chain from the configured
// allow-lists. Empty lists disable the corresponding validator.
func BuildValidators(cfg domain.LimitsConfig) []Validator {
	var chain []Validator
	if len(cfg.Resolutions) > 0 {
		chain = append(chain, NewResolutionValidator(cfg.Resolutions))
	}
	if len(cfg.PixelDensities) > 0 {
		chain = append(chain, NewDensityValidator(cfg.PixelDensities))
	}
	if len(cfg.Qualities) > 0 {
		chain = append(chain, NewQualityValidator(cfg.Qualities))
	}
	return chain
}

// RunValidators applies the chain, stopping at the first failure.
func RunValidators(chain []Validator, values modifier.Values) error {
	for _, v := range chain {
		if err := v.Validate(values); err != nil {
			return err
		}
	}
	return nil
}

// ResolutionValidator checks the requested width x height combination
// against an allow-list of "WxH" entries.
type ResolutionValidator struct {
	allowed map[string]struct{}
}

func NewResolutionValidator(resolutions []string) *ResolutionValidator {
	allowed := make(map[string]struct{}, len(resolutions))
	for _, r := range resolutions {
		allowed[r] = struct{}{}
	}
	return &ResolutionValidator{allowed: allowed}
}

// Validate checks the combination once both dimensions are requested;
// single-dimension requests derive the other side from the source
// aspect and are not constrained here.
func (v *ResolutionValidator) Validate(values modifier.Values) error {
	w, okW := values.Int(modifier.Width)
	h, okH := values.Int(modifier.Height)
	if !okW || !okH {
		return nil
	}

	key := fmt.Sprintf("%dx%d", w, h)
	if _, ok := v.allowed[key]; !ok {
		return domain.NewRequestError(domain.ErrModifierInvalid,
			fmt.Sprintf("resolution %s is not allowed", key))
	}
	return nil
}

// DensityValidator checks the pixel-density value against an allow-list.
type DensityValidator struct {
	allowed []float64
}

func NewDensityValidator(densities []float64) *DensityValidator {
	return &DensityValidator{allowed: densities}
}

func (v *DensityValidator) Validate(values modifier.Values) error {
	pd, ok := values.Float(modifier.PixelDensity)
	if !ok {
		return nil
	}

	for _, allowed := range v.allowed {
		if pd == allowed {
			return nil
		}
	}
	return domain.NewRequestError(domain.ErrModifierInvalid,
		fmt.Sprintf("pixel density %s is not allowed",
			strconv.FormatFloat(pd, 'f', -1, 64)))
}

// QualityValidator checks the quality value against an allow-list.
type QualityValidator struct {
	allowed []int
}

func NewQualityValidator(qualities []int) *QualityValidator {
	return &QualityValidator{allowed: qualities}
}

func (v *QualityValidator) Validate(values modifier.Values) error {
	q, ok := values.Int(modifier.Quality)
	if !ok {
		return nil
	}

	for _, allowed := range v.allowed {
		if q == allowed {
			return nil
		}
	}
	return domain.NewRequestError(domain.ErrModifierInvalid,
		fmt.Sprintf("quality %d is not allowed", q))
}
