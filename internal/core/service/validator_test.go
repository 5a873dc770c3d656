package service

import (
	"testing"

	"imgforge/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionValidator(t *testing.T) {
	v := NewResolutionValidator([]string{"200x100", "400x200"})

	tests := []struct {
		name    string
		raw     map[string]string
		wantErr bool
	}{
		{
			name:    "allowed combination",
			raw:     map[string]string{"w": "200", "h": "100"},
			wantErr: false,
		},
		{
			name:    "disallowed combination",
			raw:     map[string]string{"w": "200", "h": "300"},
			wantErr: true,
		},
		{
			name:    "single dimension is unconstrained",
			raw:     map[string]string{"w": "999"},
			wantErr: false,
		},
		{
			name:    "no dimensions",
			raw:     map[string]string{"q": "80"},
			wantErr: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(parseTestValues(t, tc.raw))
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrModifierInvalid)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDensityValidator(t *testing.T) {
	v := NewDensityValidator([]float64{1.0, 2.0})

	require.NoError(t, v.Validate(parseTestValues(t, map[string]string{"pd": "2"})))
	require.NoError(t, v.Validate(parseTestValues(t, map[string]string{"w": "10"})))

	err := v.Validate(parseTestValues(t, map[string]string{"pd": "1.5"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModifierInvalid)
	assert.Contains(t, err.Error(), "1.5")
}

func TestQualityValidator(t *testing.T) {
	v := NewQualityValidator([]int{70, 80, 90})

	require.NoError(t, v.Validate(parseTestValues(t, map[string]string{"q": "80"})))
	require.NoError(t, v.Validate(parseTestValues(t, map[string]string{"w": "10"})))

	err := v.Validate(parseTestValues(t, map[string]string{"q": "95"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "95")
}

func TestBuildValidators(t *testing.T) {
	assert.Empty(t, BuildValidators(domain.LimitsConfig{}))

	chain := BuildValidators(domain.LimitsConfig{
		Resolutions:    []string{"200x100"},
		PixelDensities: []float64{1.0},
		Qualities:      []int{80},
	})
	assert.Len(t, chain, 3)
}

func TestRunValidatorsStopsAtFirstFailure(t *testing.T) {
	chain := []Validator{
		NewDensityValidator([]float64{1.0}),
		NewQualityValidator([]int{80}),
	}

	values := parseTestValues(t, map[string]string{"pd": "3", "q": "10"})

	err := RunValidators(chain, values)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixel density")
}
