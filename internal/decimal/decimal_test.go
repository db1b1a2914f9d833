package decimal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareEquivalentForms(t *testing.T) {
	for _, pair := range [][2]string{
		{"5", "5.0"},
		{"5", "5e0"},
		{"5", "0005"},
		{"5.0", "0005.000"},
		{"1e2", "100"},
		{"1.5e2", "150"},
		{"0.05", "5e-2"},
		{"0", "0.000"},
		{"0", ""},
		{"-0", "0"},
		{"12345678901234567890123", "1.2345678901234567890123e22"},
	} {
		got, err := CompareStrings(pair[0], pair[1])
		require.NoError(t, err)
		assert.Zerof(t, got, "compare(%q, %q)", pair[0], pair[1])
	}
}

func TestCompareOrdering(t *testing.T) {
	cases := []struct {
		u, v string
		want int
	}{
		{"99", "100", -1},
		{"100", "99", 1},
		{"0.5", "0.05", 1},
		{"0.049", "0.05", -1},
		{"1e-3", "0.01", -1},
		{"3.5", "9.0", -1},
		{"2.5e3", "2499.999", 1},
		// these differ only past float64 precision
		{"9007199254740993", "9007199254740992", 1},
		{"0.30000000000000001", "0.3", 1},
		{"-5", "3", -1},
		{"-5", "-3", -1},
		{"-0.1", "0", -1},
		{"7", "", 1},
	}
	for _, tc := range cases {
		got, err := CompareStrings(tc.u, tc.v)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, got, "compare(%q, %q)", tc.u, tc.v)

		rev, err := CompareStrings(tc.v, tc.u)
		require.NoError(t, err)
		assert.Equalf(t, -tc.want, rev, "compare(%q, %q)", tc.v, tc.u)
	}
}

func TestCompareReflexive(t *testing.T) {
	for _, s := range []string{"0", "1", "5.0", "1e2", "0.000123", "123456789e-4", "-42.5"} {
		d := MustParse(s)
		assert.Zero(t, Compare(d, d), s)
		assert.True(t, d.Equal(d), s)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{".", "e5", "1e", "1.2.3", "abc", "1,5", "--1", "1e99999"} {
		_, err := Parse(s)
		require.Errorf(t, err, "parse %q", s)
		assert.True(t, errors.Is(err, ErrSyntax), s)
	}
}

func TestCanonicalAndFloat(t *testing.T) {
	assert.Equal(t, "150", MustParse("1.5e2").Canonical())
	assert.Equal(t, "0.05", MustParse("5e-2").Canonical())
	assert.Equal(t, "12.5", MustParse("0012.500").Canonical())
	assert.Equal(t, "0", MustParse("0.0").Canonical())
	assert.Equal(t, "-3", MustParse("-3.0").Canonical())

	assert.InDelta(t, 150.0, MustParse("1.5e2").Float64(), 1e-12)
	assert.InDelta(t, -0.25, MustParse("-25e-2").Float64(), 1e-12)
	assert.Zero(t, Decimal{}.Float64())
	assert.True(t, Decimal{}.IsZero())
}

func TestStringKeepsOriginalText(t *testing.T) {
	assert.Equal(t, "5e0", MustParse(" 5e0 ").String())
	assert.Equal(t, "0", Decimal{}.String())
}

func TestFromFloat(t *testing.T) {
	assert.True(t, FromFloat(5.0).Equal(MustParse("5")))
	assert.True(t, FromFloat(0.5).Equal(MustParse("0.5")))
	assert.True(t, FromFloat(1e21).Equal(MustParse("1000000000000000000000")))
	assert.True(t, FromFloat(30*0.5).Equal(MustParse("15")))
}
