package results

import (
	"fmt"

	"heurbench/internal/decimal"
)

// Cell is one (seed, instance, algorithm) result. Cells never written by
// the log read as zero value at time zero.
type Cell struct {
	Value decimal.Decimal
	Time  decimal.Decimal
	Set   bool
}

// Table is a dense seed × instance × algorithm array allocated once.
type Table struct {
	seeds      int
	instances  int
	algorithms int
	cells      []Cell
}

func NewTable(seeds, instances, algorithms int) *Table {
	if seeds < 0 || instances < 0 || algorithms < 0 {
		panic(fmt.Sprintf("results: negative table dimension %dx%dx%d", seeds, instances, algorithms))
	}
	return &Table{
		seeds:      seeds,
		instances:  instances,
		algorithms: algorithms,
		cells:      make([]Cell, seeds*instances*algorithms),
	}
}

func (t *Table) Seeds() int      { return t.seeds }
func (t *Table) Instances() int  { return t.instances }
func (t *Table) Algorithms() int { return t.algorithms }

func (t *Table) offset(seed, instance, algorithm int) int {
	if seed < 0 || seed >= t.seeds || instance < 0 || instance >= t.instances || algorithm < 0 || algorithm >= t.algorithms {
		panic(fmt.Sprintf("results: cell (%d,%d,%d) outside %dx%dx%d table",
			seed, instance, algorithm, t.seeds, t.instances, t.algorithms))
	}
	return (seed*t.instances+instance)*t.algorithms + algorithm
}

func (t *Table) At(seed, instance, algorithm int) Cell {
	return t.cells[t.offset(seed, instance, algorithm)]
}

func (t *Table) Value(seed, instance, algorithm int) decimal.Decimal {
	return t.cells[t.offset(seed, instance, algorithm)].Value
}

// Set stores a result, replacing any earlier one for the same key.
func (t *Table) Set(seed, instance, algorithm int, value, elapsed decimal.Decimal) {
	t.cells[t.offset(seed, instance, algorithm)] = Cell{Value: value, Time: elapsed, Set: true}
}

// Missing counts cells no record was stored for.
func (t *Table) Missing() int {
	n := 0
	for i := range t.cells {
		if !t.cells[i].Set {
			n++
		}
	}
	return n
}

func (t *Table) Empty() bool {
	return len(t.cells) == 0
}
