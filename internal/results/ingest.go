// Package results reads experiment logs into a dense results table.
package results

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"heurbench/internal/decimal"
	"heurbench/internal/history"
	"heurbench/internal/registry"
)

const (
	colTimestamp = iota
	colInstance
	colAlgorithm
	colSeed
	colTimeLimit
	colValue
	colElapsed
	colHistory

	minColumns = colHistory
)

var ErrCoverage = errors.New("inclusion list not covered by results log")

// CoverageError lists inclusion-list names that never appear in the log.
type CoverageError struct {
	MissingInstances  []string
	MissingAlgorithms []string
}

func (e *CoverageError) Error() string {
	var parts []string
	if len(e.MissingInstances) > 0 {
		parts = append(parts, fmt.Sprintf("instances not in results log: %s", strings.Join(e.MissingInstances, ", ")))
	}
	if len(e.MissingAlgorithms) > 0 {
		parts = append(parts, fmt.Sprintf("algorithms not in results log: %s", strings.Join(e.MissingAlgorithms, ", ")))
	}
	return strings.Join(parts, "; ")
}

func (e *CoverageError) Unwrap() error {
	return ErrCoverage
}

type Options struct {
	// Instances and Algorithms restrict ingestion to the listed names when
	// non-nil. Every listed name must then appear in the log.
	Instances  []string
	Algorithms []string
	// TimeScaling multiplies each row's time limit; zero means 1.
	TimeScaling float64
	Delimiters  history.Delimiters
	Logger      *slog.Logger
}

type Summary struct {
	Rows             int
	SkippedInstance  int
	SkippedAlgorithm int
	// Truncated counts rows whose history was cut back to an earlier
	// improvement; NoneWithinLimit counts rows reset to zero.
	Truncated       int
	NoneWithinLimit int
	MissingCells    int
}

type Dataset struct {
	Instances  *registry.Registry
	Algorithms *registry.Registry
	Seeds      *registry.Registry
	Table      *Table
}

type record struct {
	seed, instance, algorithm int
	value, elapsed            decimal.Decimal
}

func Ingest(ctx context.Context, in io.Reader, opts Options) (*Dataset, Summary, error) {
	scaling := opts.TimeScaling
	if scaling == 0 {
		scaling = 1
	}
	if scaling < 0 || scaling > 1 {
		return nil, Summary{}, fmt.Errorf("time scaling must be > 0 and <= 1, got %g", scaling)
	}
	if err := opts.Delimiters.Validate(); err != nil {
		return nil, Summary{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ds := &Dataset{
		Instances:  openOrFixed(opts.Instances),
		Algorithms: openOrFixed(opts.Algorithms),
		Seeds:      registry.New(),
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var summary Summary
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			ds.Table = NewTable(0, ds.Instances.Len(), ds.Algorithms.Len())
			return ds, summary, coverage(ds)
		}
		return nil, Summary{}, fmt.Errorf("read results header: %w", err)
	}

	records := make([]record, 0, 1024)
	line := 1
	for {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, Summary{}, err
			}
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, Summary{}, fmt.Errorf("read results row %d: %w", line, err)
		}
		if blankRecord(row) {
			continue
		}
		summary.Rows++

		if len(row) < minColumns {
			return nil, Summary{}, fmt.Errorf("results row %d has %d fields, want at least %d", line, len(row), minColumns)
		}
		instance, ok := ds.Instances.Register(strings.TrimSpace(row[colInstance]))
		if !ok {
			summary.SkippedInstance++
			continue
		}
		algorithm, ok := ds.Algorithms.Register(strings.TrimSpace(row[colAlgorithm]))
		if !ok {
			summary.SkippedAlgorithm++
			continue
		}
		seed, _ := ds.Seeds.Register(strings.TrimSpace(row[colSeed]))

		rec, outcome, err := resolveRow(row, scaling, opts.Delimiters)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("results row %d: %w", line, err)
		}
		switch outcome {
		case history.Truncated:
			summary.Truncated++
		case history.None:
			summary.NoneWithinLimit++
		}
		rec.seed, rec.instance, rec.algorithm = seed, instance, algorithm
		records = append(records, rec)
	}

	table := NewTable(ds.Seeds.Len(), ds.Instances.Len(), ds.Algorithms.Len())
	for _, rec := range records {
		table.Set(rec.seed, rec.instance, rec.algorithm, rec.value, rec.elapsed)
	}
	ds.Table = table
	summary.MissingCells = table.Missing()

	logger.Info("results ingested",
		"rows", humanize.Comma(int64(summary.Rows)),
		"skipped_instance", humanize.Comma(int64(summary.SkippedInstance)),
		"skipped_algorithm", humanize.Comma(int64(summary.SkippedAlgorithm)),
		"instances", ds.Instances.Len(),
		"algorithms", ds.Algorithms.Len(),
		"seeds", ds.Seeds.Len(),
	)
	if summary.Truncated > 0 || summary.NoneWithinLimit > 0 {
		logger.Info("histories replayed against time limit",
			"scaling", scaling,
			"truncated", humanize.Comma(int64(summary.Truncated)),
			"none_within_limit", humanize.Comma(int64(summary.NoneWithinLimit)),
		)
	}
	if summary.MissingCells > 0 {
		// statistics assume every algorithm ran every seed on every instance
		logger.Warn("results table is ragged; missing cells read as zero",
			"missing_cells", humanize.Comma(int64(summary.MissingCells)),
			"total_cells", humanize.Comma(int64(len(table.cells))),
		)
	}

	if err := coverage(ds); err != nil {
		return nil, summary, err
	}
	return ds, summary, nil
}

func resolveRow(row []string, scaling float64, delims history.Delimiters) (record, history.Outcome, error) {
	value, err := decimal.Parse(row[colValue])
	if err != nil {
		return record{}, history.Latest, fmt.Errorf("value: %w", err)
	}
	elapsed, err := decimal.Parse(row[colElapsed])
	if err != nil {
		return record{}, history.Latest, fmt.Errorf("elapsed time: %w", err)
	}
	rec := record{value: value, elapsed: elapsed}
	if len(row) <= colHistory || strings.TrimSpace(row[colHistory]) == "" {
		return rec, history.Latest, nil
	}

	limit, err := strconv.ParseFloat(strings.TrimSpace(row[colTimeLimit]), 64)
	if err != nil {
		return record{}, history.Latest, fmt.Errorf("time limit: %w", err)
	}
	h, err := history.Parse(row[colHistory], delims)
	if err != nil {
		return record{}, history.Latest, err
	}
	entry, outcome := h.Resolve(decimal.FromFloat(limit * scaling))
	if outcome != history.Latest {
		rec.value, rec.elapsed = entry.Value, entry.Time
	}
	return rec, outcome, nil
}

func openOrFixed(names []string) *registry.Registry {
	if names == nil {
		return registry.New()
	}
	return registry.NewFixed(names)
}

func coverage(ds *Dataset) error {
	var cerr CoverageError
	if ds.Instances.Fixed() {
		cerr.MissingInstances = ds.Instances.Unseen()
	}
	if ds.Algorithms.Fixed() {
		cerr.MissingAlgorithms = ds.Algorithms.Unseen()
	}
	if len(cerr.MissingInstances) == 0 && len(cerr.MissingAlgorithms) == 0 {
		return nil
	}
	return &cerr
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
