// Package report turns computed statistics into the comparison table and
// instance lists.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrMissingTranslation = errors.New("no display name for algorithm")

// NameTable maps an algorithm's abbreviation to its display name.
type NameTable map[string]string

// ReadNameTable reads "abbreviation,display name" lines. The display name
// is everything after the first comma.
func ReadNameTable(r io.Reader) (NameTable, error) {
	names := NameTable{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		abbr, display, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("name table line %d: missing comma: %q", line, text)
		}
		if _, exists := names[abbr]; exists {
			return nil, fmt.Errorf("name table line %d: duplicate abbreviation %q", line, abbr)
		}
		names[abbr] = display
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read name table: %w", err)
	}
	return names, nil
}

func (n NameTable) Display(abbr string) (string, error) {
	display, ok := n[abbr]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingTranslation, abbr)
	}
	return display, nil
}
