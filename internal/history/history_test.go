package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heurbench/internal/decimal"
)

func TestResolveWithinLimit(t *testing.T) {
	h, err := Parse("[10:1.0;20:3.5;15:9.0]", DefaultDelimiters())
	require.NoError(t, err)
	require.Len(t, h, 3)

	got, outcome := h.Resolve(decimal.MustParse("5.0"))
	assert.Equal(t, Truncated, outcome)
	assert.Equal(t, "20", got.Value.String())
	assert.Equal(t, "3.5", got.Time.String())
}

func TestResolveBeforeFirstImprovement(t *testing.T) {
	h, err := Parse("[10:1.0;20:3.5;15:9.0]", DefaultDelimiters())
	require.NoError(t, err)

	got, outcome := h.Resolve(decimal.MustParse("0.5"))
	assert.Equal(t, None, outcome)
	assert.True(t, got.Value.IsZero())
	assert.True(t, got.Time.IsZero())
}

func TestResolveLatestEntry(t *testing.T) {
	h, err := Parse("10:1.0;20:3.5", DefaultDelimiters())
	require.NoError(t, err)

	got, outcome := h.Resolve(decimal.MustParse("3.5"))
	assert.Equal(t, Latest, outcome)
	assert.Equal(t, "20", got.Value.String())
}

func TestResolveComparesTimesExactly(t *testing.T) {
	h, err := Parse("[1:1e1;2:10.000000000000001]", DefaultDelimiters())
	require.NoError(t, err)

	got, outcome := h.Resolve(decimal.MustParse("10"))
	assert.Equal(t, Truncated, outcome)
	assert.Equal(t, "1", got.Value.String())
}

func TestParseCustomDelimiters(t *testing.T) {
	h, err := Parse("[7|0.1/9|0.4]", Delimiters{Entry: '/', Pair: '|'})
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "9", h[1].Value.String())
}

func TestParseEmptyHistory(t *testing.T) {
	h, err := Parse("[]", DefaultDelimiters())
	require.NoError(t, err)
	got, outcome := h.Resolve(decimal.MustParse("1"))
	assert.Equal(t, Latest, outcome)
	assert.True(t, got.Value.IsZero())
}

func TestParseMalformed(t *testing.T) {
	for _, field := range []string{"[10;20:1]", "[x:1]", "[1:y]"} {
		_, err := Parse(field, DefaultDelimiters())
		require.Error(t, err, field)
		assert.True(t, errors.Is(err, ErrMalformed), field)
	}
}

func TestDelimitersValidate(t *testing.T) {
	assert.NoError(t, DefaultDelimiters().Validate())
	assert.Error(t, Delimiters{Entry: ':', Pair: ':'}.Validate())
	assert.Error(t, Delimiters{Entry: ',', Pair: ':'}.Validate())
}
