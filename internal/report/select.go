package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"heurbench/internal/decimal"
	"heurbench/internal/results"
	"heurbench/internal/stats"
)

var ErrUnknownAlgorithm = errors.New("algorithm not in results")

// Selection is the outcome of an instance filter: the accepted names in
// instance registry order and how many instances were rejected.
type Selection struct {
	Accepted []string
	Rejected int
}

// Difficult lists the instances on which at most level algorithms reach
// the best value on every seed. A negative level means half the number of
// algorithms.
func Difficult(ds *results.Dataset, level int) Selection {
	t := ds.Table
	threshold := float64(level)
	if level < 0 {
		threshold = float64(t.Algorithms()) / 2.0
	}

	sel := Selection{Accepted: []string{}}
	for i := 0; i < t.Instances(); i++ {
		if float64(perfectAlgorithms(t, i)) > threshold {
			sel.Rejected++
			continue
		}
		sel.Accepted = append(sel.Accepted, ds.Instances.Name(i))
	}
	return sel
}

// perfectAlgorithms counts the algorithms whose every seed equals the best
// value seen on instance i. The best never drops below zero.
func perfectAlgorithms(t *results.Table, i int) int {
	var best decimal.Decimal
	for s := 0; s < t.Seeds(); s++ {
		for h := 0; h < t.Algorithms(); h++ {
			if v := t.Value(s, i, h); decimal.Compare(v, best) > 0 {
				best = v
			}
		}
	}

	count := 0
	for h := 0; h < t.Algorithms(); h++ {
		all := true
		for s := 0; s < t.Seeds() && all; s++ {
			all = decimal.Compare(t.Value(s, i, h), best) == 0
		}
		if all && t.Seeds() > 0 {
			count++
		}
	}
	return count
}

// Champion lists the instances on which algorithm meets metric's criterion.
func Champion(ds *results.Dataset, r *stats.Report, algorithm string, metric stats.Metric) (Selection, error) {
	if !metric.Valid() {
		return Selection{}, fmt.Errorf("invalid champion metric %d", int(metric))
	}
	h, ok := ds.Algorithms.Index(algorithm)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	sel := Selection{Accepted: []string{}}
	for i := 0; i < r.Derived.Instances; i++ {
		if r.Satisfies(metric, i, h) {
			sel.Accepted = append(sel.Accepted, ds.Instances.Name(i))
		} else {
			sel.Rejected++
		}
	}
	return sel, nil
}

// WriteNames writes one name per line.
func WriteNames(w io.Writer, names []string) error {
	bw := bufio.NewWriter(w)
	for _, name := range names {
		if _, err := bw.WriteString(name + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
