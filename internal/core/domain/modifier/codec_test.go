package modifier

import (
	"testing"

	"imgforge/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) (*Registry, *Codec) {
	t.Helper()

	registry, err := NewRegistry(Builtins()...)
	require.NoError(t, err)

	return registry, NewCodec(registry, domain.CodecConfig{})
}

func TestEncodeSortsByCanonicalName(t *testing.T) {
	registry, codec := testCodec(t)

	values, err := registry.ParseValues(map[string]string{"w": "100", "h": "50", "q": "80"})
	require.NoError(t, err)

	segment, err := codec.Encode(values)
	require.NoError(t, err)

	// height < quality < width in canonical order
	assert.Equal(t, "h:50,q:80,w:100", segment)
}

func TestEncodeEmptyValues(t *testing.T) {
	registry, codec := testCodec(t)

	values, err := registry.ParseValues(map[string]string{})
	require.NoError(t, err)

	_, err = codec.Encode(values)
	require.Error(t, err)
}

func TestEncodeEmitsFlagsBare(t *testing.T) {
	registry, codec := testCodec(t)

	values, err := registry.ParseValues(map[string]string{"pf": "", "q": "100"})
	require.NoError(t, err)

	segment, err := codec.Encode(values)
	require.NoError(t, err)

	assert.Equal(t, "pf,q:100", segment)
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	registry, codec := testCodec(t)

	tests := []struct {
		name string
		raw  map[string]string
	}{
		{
			name: "dimensions",
			raw:  map[string]string{"w": "100", "h": "50"},
		},
		{
			name: "flag and value",
			raw:  map[string]string{"pf": "", "w": "320"},
		},
		{
			name: "density and quality",
			raw:  map[string]string{"pd": "2", "q": "80"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			values, err := registry.ParseValues(tc.raw)
			require.NoError(t, err)

			segment, err := codec.Encode(values)
			require.NoError(t, err)

			decoded, err := codec.Decode(segment)
			require.NoError(t, err)

			assert.Equal(t, tc.raw, decoded)
		})
	}
}

func TestDecodeOrderIrrelevant(t *testing.T) {
	registry, codec := testCodec(t)

	first, err := codec.Decode("w:100,h:50")
	require.NoError(t, err)
	second, err := codec.Decode("h:50,w:100")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	firstValues, err := registry.ParseValues(first)
	require.NoError(t, err)
	secondValues, err := registry.ParseValues(second)
	require.NoError(t, err)

	firstSegment, err := codec.Encode(firstValues)
	require.NoError(t, err)
	secondSegment, err := codec.Encode(secondValues)
	require.NoError(t, err)

	assert.Equal(t, firstSegment, secondSegment)
}

func TestDecodeErrors(t *testing.T) {
	_, codec := testCodec(t)

	tests := []struct {
		name    string
		segment string
	}{
		{
			name:    "unregistered alias",
			segment: "zz:1",
		},
		{
			name:    "value modifier as bare flag",
			segment: "w",
		},
		{
			name:    "flag modifier with value",
			segment: "pf:1",
		},
		{
			name:    "too many tokens",
			segment: "w:1:2",
		},
		{
			name:    "empty value",
			segment: "w:",
		},
		{
			name:    "empty segment",
			segment: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.segment)
			require.Error(t, err)
		})
	}
}

func TestFlagRoundTripsToTrue(t *testing.T) {
	registry, codec := testCodec(t)

	decoded, err := codec.Decode("pf")
	require.NoError(t, err)

	values, err := registry.ParseValues(decoded)
	require.NoError(t, err)

	assert.True(t, values.Bool(PreserveFormat))
}

func TestCustomSeparators(t *testing.T) {
	registry, err := NewRegistry(Builtins()...)
	require.NoError(t, err)

	codec := NewCodec(registry, domain.CodecConfig{Separator: ";", Assigner: "="})

	values, err := registry.ParseValues(map[string]string{"w": "10", "h": "20"})
	require.NoError(t, err)

	segment, err := codec.Encode(values)
	require.NoError(t, err)
	assert.Equal(t, "h=20;w=10", segment)

	decoded, err := codec.Decode(segment)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"w": "10", "h": "20"}, decoded)
}
