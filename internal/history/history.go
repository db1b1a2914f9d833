// Package history parses the incumbent trace recorded for one run and
// replays it against a time limit.
package history

import (
	"errors"
	"fmt"
	"strings"

	"heurbench/internal/decimal"
)

var ErrMalformed = errors.New("malformed history")

type Delimiters struct {
	Entry rune
	Pair  rune
}

func DefaultDelimiters() Delimiters {
	return Delimiters{Entry: ';', Pair: ':'}
}

func (d Delimiters) withDefaults() Delimiters {
	def := DefaultDelimiters()
	if d.Entry == 0 {
		d.Entry = def.Entry
	}
	if d.Pair == 0 {
		d.Pair = def.Pair
	}
	return d
}

func (d Delimiters) Validate() error {
	d = d.withDefaults()
	if d.Entry == d.Pair {
		return fmt.Errorf("history entry and pair delimiters must differ, both are %q", d.Entry)
	}
	for _, r := range []rune{d.Entry, d.Pair} {
		if r == ',' || r == '[' || r == ']' || r == '.' || r == '-' || (r >= '0' && r <= '9') {
			return fmt.Errorf("history delimiter %q clashes with the log format", r)
		}
	}
	return nil
}

// Entry is one improvement: the incumbent value and the elapsed time at
// which it was found.
type Entry struct {
	Value decimal.Decimal
	Time  decimal.Decimal
}

// History lists improvements in the order they were found.
type History []Entry

// Parse reads a bracketed list such as "[10:1.0;20:3.5;15:9.0]". The
// brackets are optional.
func Parse(field string, delims Delimiters) (History, error) {
	delims = delims.withDefaults()
	body := strings.TrimSpace(field)
	body = strings.TrimPrefix(body, "[")
	body = strings.TrimSuffix(body, "]")
	body = strings.TrimSpace(body)
	if body == "" {
		return History{}, nil
	}

	parts := strings.Split(body, string(delims.Entry))
	out := make(History, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rawValue, rawTime, ok := strings.Cut(part, string(delims.Pair))
		if !ok {
			return nil, fmt.Errorf("%w: entry %d %q has no %q separator", ErrMalformed, i+1, part, delims.Pair)
		}
		value, err := decimal.Parse(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d value: %v", ErrMalformed, i+1, err)
		}
		elapsed, err := decimal.Parse(rawTime)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d time: %v", ErrMalformed, i+1, err)
		}
		out = append(out, Entry{Value: value, Time: elapsed})
	}
	return out, nil
}

type Outcome int

const (
	// Latest means the most recent entry is within the limit, so the
	// run's reported result stands.
	Latest Outcome = iota
	// Truncated means an earlier entry was the incumbent at the limit.
	Truncated
	// None means the first improvement came after the limit.
	None
)

func (o Outcome) String() string {
	switch o {
	case Latest:
		return "latest"
	case Truncated:
		return "truncated"
	case None:
		return "none"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Resolve returns the incumbent at limit: the last entry, in chronological
// order, whose time does not exceed limit. With None the returned entry is
// the zero value at time zero.
func (h History) Resolve(limit decimal.Decimal) (Entry, Outcome) {
	for i := len(h) - 1; i >= 0; i-- {
		if decimal.Compare(h[i].Time, limit) <= 0 {
			if i == len(h)-1 {
				return h[i], Latest
			}
			return h[i], Truncated
		}
	}
	if len(h) == 0 {
		return Entry{}, Latest
	}
	return Entry{}, None
}
