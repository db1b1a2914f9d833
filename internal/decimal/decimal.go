// Package decimal compares numeric result values in their textual form,
// without converting them to binary floating point.
package decimal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("invalid decimal syntax")

// maxExponent bounds the zero padding a scientific exponent can request.
const maxExponent = 4096

// Decimal is an exact number kept as a canonical digit string and the
// position of the decimal point inside it. The zero value is zero.
type Decimal struct {
	raw    string
	digits string
	point  int
	neg    bool
}

func Parse(s string) (Decimal, error) {
	raw := strings.TrimSpace(s)
	text := raw
	if text == "" {
		return Decimal{}, nil
	}

	neg := false
	switch text[0] {
	case '-':
		neg = true
		text = text[1:]
	case '+':
		text = text[1:]
	}

	exp := 0
	if idx := strings.IndexAny(text, "eE"); idx >= 0 {
		e, err := strconv.Atoi(text[idx+1:])
		if err != nil || e > maxExponent || e < -maxExponent {
			return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, raw)
		}
		exp = e
		text = text[:idx]
	}

	point := len(text)
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		point = idx
		text = text[:idx] + text[idx+1:]
	}
	if text == "" {
		return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, raw)
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, raw)
		}
	}

	digits, point := normalize(text, point+exp)
	if digits == "" {
		neg = false
	}
	return Decimal{raw: raw, digits: digits, point: point, neg: neg}, nil
}

func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromFloat returns the shortest decimal text that round-trips f.
func FromFloat(f float64) Decimal {
	return MustParse(strconv.FormatFloat(f, 'g', -1, 64))
}

// normalize shifts the point, pads with zeros so the point lies inside the
// digit string, and strips the zeros that carry no value.
func normalize(digits string, point int) (string, int) {
	if point < 0 {
		digits = strings.Repeat("0", -point) + digits
		point = 0
	}
	if point > len(digits) {
		digits += strings.Repeat("0", point-len(digits))
	}

	lead := 0
	for lead < point && digits[lead] == '0' {
		lead++
	}
	digits = digits[lead:]
	point -= lead

	digits = strings.TrimRight(digits, "0")
	if point > len(digits) {
		// integral trailing zeros are significant for the position
		digits += strings.Repeat("0", point-len(digits))
	}
	if strings.Trim(digits, "0") == "" {
		return "", 0
	}
	return digits, point
}

// Compare returns +1 if u > v, 0 if they are equal and -1 if u < v.
func Compare(u, v Decimal) int {
	if u.neg != v.neg {
		if u.neg {
			return -1
		}
		return 1
	}
	c := compareMagnitude(u, v)
	if u.neg {
		return -c
	}
	return c
}

func compareMagnitude(u, v Decimal) int {
	if u.point != v.point {
		if u.point > v.point {
			return 1
		}
		return -1
	}
	a, b := u.digits, v.digits
	if len(a) < len(b) {
		a += strings.Repeat("0", len(b)-len(a))
	} else if len(b) < len(a) {
		b += strings.Repeat("0", len(a)-len(b))
	}
	return strings.Compare(a, b)
}

func CompareStrings(u, v string) (int, error) {
	a, err := Parse(u)
	if err != nil {
		return 0, err
	}
	b, err := Parse(v)
	if err != nil {
		return 0, err
	}
	return Compare(a, b), nil
}

func (d Decimal) Equal(o Decimal) bool   { return Compare(d, o) == 0 }
func (d Decimal) Less(o Decimal) bool    { return Compare(d, o) < 0 }
func (d Decimal) Greater(o Decimal) bool { return Compare(d, o) > 0 }
func (d Decimal) IsZero() bool           { return d.digits == "" }
func (d Decimal) Negative() bool         { return d.neg }

// String returns the text the value was parsed from.
func (d Decimal) String() string {
	if d.raw == "" {
		return "0"
	}
	return d.raw
}

// Canonical renders the normalized form, e.g. "1.5e2" becomes "150".
func (d Decimal) Canonical() string {
	if d.digits == "" {
		return "0"
	}
	var b strings.Builder
	if d.neg {
		b.WriteByte('-')
	}
	switch {
	case d.point == 0:
		b.WriteString("0.")
		b.WriteString(d.digits)
	case d.point >= len(d.digits):
		b.WriteString(d.digits)
	default:
		b.WriteString(d.digits[:d.point])
		b.WriteByte('.')
		b.WriteString(d.digits[d.point:])
	}
	return b.String()
}

// Float64 approximates the value. Ordering decisions must use Compare.
func (d Decimal) Float64() float64 {
	if d.digits == "" {
		return 0
	}
	// out-of-range values come back as a signed infinity
	f, _ := strconv.ParseFloat(d.Canonical(), 64)
	return f
}
