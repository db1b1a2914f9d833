// Package registry assigns dense indices to instance, algorithm and seed
// names.
package registry

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Registry maps names to contiguous zero-based indices. An open registry
// assigns indices in first-seen order; a fixed registry only knows the names
// it was built from.
type Registry struct {
	index map[string]int
	names []string
	seen  []bool
	fixed bool
}

func New() *Registry {
	return &Registry{index: make(map[string]int)}
}

// NewFixed builds a registry restricted to names, preserving their order.
// Repeated names keep their first index.
func NewFixed(names []string) *Registry {
	r := New()
	for _, name := range names {
		r.add(name)
	}
	r.fixed = true
	return r
}

// Register returns the index for name, assigning the next one when the
// registry is open. It reports false when a fixed registry does not list it.
func (r *Registry) Register(name string) (int, bool) {
	if idx, ok := r.index[name]; ok {
		r.seen[idx] = true
		return idx, true
	}
	if r.fixed {
		return 0, false
	}
	idx := r.add(name)
	r.seen[idx] = true
	return idx, true
}

func (r *Registry) add(name string) int {
	if idx, ok := r.index[name]; ok {
		return idx
	}
	idx := len(r.names)
	r.index[name] = idx
	r.names = append(r.names, name)
	r.seen = append(r.seen, false)
	return idx
}

func (r *Registry) Index(name string) (int, bool) {
	idx, ok := r.index[name]
	return idx, ok
}

func (r *Registry) Name(idx int) string {
	return r.names[idx]
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *Registry) Len() int {
	return len(r.names)
}

func (r *Registry) Fixed() bool {
	return r.fixed
}

// Unseen lists, in registry order, the names never passed to Register.
func (r *Registry) Unseen() []string {
	var out []string
	for i, ok := range r.seen {
		if !ok {
			out = append(out, r.names[i])
		}
	}
	return out
}

// ReadList reads an inclusion list: one name per line, blank lines and
// lines starting with '#' ignored.
func ReadList(in io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var names []string
	line := 0
	for scanner.Scan() {
		line++
		name := strings.TrimSpace(strings.TrimRight(scanner.Text(), "\r"))
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read name list line %d: %w", line+1, err)
	}
	return names, nil
}
