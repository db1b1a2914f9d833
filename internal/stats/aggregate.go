package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"heurbench/internal/decimal"
	"heurbench/internal/results"
)

var (
	ErrEmptyTable = errors.New("results table has no cells")
	// ErrNonFinite reports a value outside the float64 range, which the
	// sums and deviations cannot represent.
	ErrNonFinite = errors.New("value out of float64 range")
)

// Best is a value paired with the elapsed time it was reached at.
type Best struct {
	Value decimal.Decimal
	Time  decimal.Decimal
}

// better reports whether b should replace the incumbent: a larger value, or
// an equal value found earlier.
func (b Best) better(incumbent Best) bool {
	switch decimal.Compare(b.Value, incumbent.Value) {
	case 1:
		return true
	case 0:
		return decimal.Compare(b.Time, incumbent.Time) < 0
	default:
		return false
	}
}

// Rival is the best value among the other algorithms on an instance.
// Present is false when the algorithm has no competitor.
type Rival struct {
	Value   decimal.Decimal
	Present bool
}

// Derived holds the per-instance aggregates every metric is built from.
// All tables are indexed [instance][algorithm] or [instance].
type Derived struct {
	Instances  int
	Algorithms int
	Seeds      int

	SumBySeeds [][]float64
	MaxBySeeds [][]Best
	MinBySeeds [][]decimal.Decimal

	BestSum []float64
	BestMax []Best

	// SumButOne is -Inf where there is no other algorithm.
	SumButOne [][]float64
	MaxButOne [][]Rival
}

// Derive computes the aggregate tables for t.
func Derive(t *results.Table) (*Derived, error) {
	if t == nil || t.Empty() {
		return nil, ErrEmptyTable
	}
	ni, nh, ns := t.Instances(), t.Algorithms(), t.Seeds()
	d := &Derived{
		Instances:  ni,
		Algorithms: nh,
		Seeds:      ns,
		SumBySeeds: make([][]float64, ni),
		MaxBySeeds: make([][]Best, ni),
		MinBySeeds: make([][]decimal.Decimal, ni),
		BestSum:    make([]float64, ni),
		BestMax:    make([]Best, ni),
		SumButOne:  make([][]float64, ni),
		MaxButOne:  make([][]Rival, ni),
	}

	seedValues := make([]float64, ns)
	for i := 0; i < ni; i++ {
		d.SumBySeeds[i] = make([]float64, nh)
		d.MaxBySeeds[i] = make([]Best, nh)
		d.MinBySeeds[i] = make([]decimal.Decimal, nh)
		for h := 0; h < nh; h++ {
			first := t.At(0, i, h)
			maxCell := Best{Value: first.Value, Time: first.Time}
			minValue := first.Value
			for s := 0; s < ns; s++ {
				cell := t.At(s, i, h)
				seedValues[s] = cell.Value.Float64()
				if math.IsInf(seedValues[s], 0) {
					return nil, fmt.Errorf("seed %d instance %d algorithm %d value %s: %w", s, i, h, cell.Value, ErrNonFinite)
				}
				if s == 0 {
					continue
				}
				if candidate := (Best{Value: cell.Value, Time: cell.Time}); candidate.better(maxCell) {
					maxCell = candidate
				}
				if decimal.Compare(cell.Value, minValue) < 0 {
					minValue = cell.Value
				}
			}
			d.SumBySeeds[i][h] = floats.Sum(seedValues)
			d.MaxBySeeds[i][h] = maxCell
			d.MinBySeeds[i][h] = minValue
		}

		d.BestSum[i] = floats.Max(d.SumBySeeds[i])
		d.BestMax[i] = d.MaxBySeeds[i][0]
		for h := 1; h < nh; h++ {
			if d.MaxBySeeds[i][h].better(d.BestMax[i]) {
				d.BestMax[i] = d.MaxBySeeds[i][h]
			}
		}

		d.SumButOne[i] = make([]float64, nh)
		d.MaxButOne[i] = make([]Rival, nh)
		for h := 0; h < nh; h++ {
			sum := math.Inf(-1)
			var rival Rival
			for h1 := 0; h1 < nh; h1++ {
				if h1 == h {
					continue
				}
				sum = math.Max(sum, d.SumBySeeds[i][h1])
				v := d.MaxBySeeds[i][h1].Value
				if !rival.Present || decimal.Compare(v, rival.Value) > 0 {
					rival = Rival{Value: v, Present: true}
				}
			}
			d.SumButOne[i][h] = sum
			d.MaxButOne[i][h] = rival
		}
	}
	return d, nil
}

// SoleBest reports whether h's best seed beats every other algorithm's
// best seed on instance i.
func (d *Derived) SoleBest(i, h int) bool {
	rival := d.MaxButOne[i][h]
	return !rival.Present || decimal.Compare(d.MaxBySeeds[i][h].Value, rival.Value) > 0
}

type Options struct {
	// Absolute reports FE, FS, BA and EBA as instance counts instead of
	// fractions of the instance count.
	Absolute bool
}

// Metrics are the per-algorithm scalars of the comparison table.
type Metrics struct {
	FE  float64 `json:"fe"`
	FS  float64 `json:"fs"`
	BA  float64 `json:"ba"`
	EBA float64 `json:"eba"`
	WD  float64 `json:"wd"`
	MD  float64 `json:"md"`
	BD  float64 `json:"bd"`
	AR  float64 `json:"ar"`
}

type Report struct {
	Derived  *Derived
	Metrics  []Metrics
	Absolute bool
}

// Compute derives the aggregate tables from t and the metrics of every
// algorithm, indexed by algorithm registry index.
func Compute(t *results.Table, opts Options) (*Report, error) {
	d, err := Derive(t)
	if err != nil {
		return nil, err
	}
	r := &Report{
		Derived:  d,
		Metrics:  make([]Metrics, d.Algorithms),
		Absolute: opts.Absolute,
	}

	ni := float64(d.Instances)
	worst := make([]float64, d.Instances)
	mean := make([]float64, d.Instances)
	best := make([]float64, d.Instances)
	ranks := make([]float64, 0, d.Instances*d.Seeds)
	for h := 0; h < d.Algorithms; h++ {
		m := &r.Metrics[h]
		for i := 0; i < d.Instances; i++ {
			if r.Satisfies(FE, i, h) {
				m.FE++
			}
			if r.Satisfies(FS, i, h) {
				m.FS++
			}
			if r.Satisfies(BA, i, h) {
				m.BA++
			}
			if r.Satisfies(EBA, i, h) {
				m.EBA++
			}

			worst[i], mean[i], best[i] = 0, 0, 0
			if den := d.BestMax[i].Value.Float64(); den > 0 {
				worst[i] = d.MinBySeeds[i][h].Float64() / den
				mean[i] = d.SumBySeeds[i][h] / float64(d.Seeds) / den
				best[i] = d.MaxBySeeds[i][h].Value.Float64() / den
			}
		}
		if !opts.Absolute {
			m.FE /= ni
			m.FS /= ni
			m.BA /= ni
			m.EBA /= ni
		}
		m.WD = 1 - stat.Mean(worst, nil)
		m.MD = 1 - stat.Mean(mean, nil)
		m.BD = 1 - stat.Mean(best, nil)

		ranks = ranks[:0]
		for i := 0; i < d.Instances; i++ {
			for s := 0; s < d.Seeds; s++ {
				ranks = append(ranks, float64(rank(t, s, i, h)))
			}
		}
		m.AR = stat.Mean(ranks, nil)
	}
	return r, nil
}

// rank is 1 plus the number of algorithms strictly better than h on one
// seed of one instance. Tied algorithms share the smaller rank.
func rank(t *results.Table, seed, instance, h int) int {
	own := t.Value(seed, instance, h)
	r := 1
	for h1 := 0; h1 < t.Algorithms(); h1++ {
		if h1 != h && decimal.Compare(t.Value(seed, instance, h1), own) > 0 {
			r++
		}
	}
	return r
}

// Satisfies reports whether algorithm h meets metric's criterion on
// instance i.
func (r *Report) Satisfies(metric Metric, i, h int) bool {
	d := r.Derived
	switch metric {
	case FE:
		return d.SumBySeeds[i][h] == d.BestSum[i]
	case FS:
		return d.SumBySeeds[i][h] > d.SumButOne[i][h]
	case BA:
		return decimal.Compare(d.MaxBySeeds[i][h].Value, d.BestMax[i].Value) == 0
	case EBA:
		return decimal.Compare(d.MaxBySeeds[i][h].Value, d.BestMax[i].Value) == 0 &&
			decimal.Compare(d.MaxBySeeds[i][h].Time, d.BestMax[i].Time) == 0
	default:
		return false
	}
}
