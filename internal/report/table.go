package report

import (
	"cmp"
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"heurbench/internal/results"
	"heurbench/internal/stats"
)

var tableHeader = []string{"Heuristic", "FE", "FS", "BA", "EBA", "WD", "MD", "BD", "AR"}

// Row is one line of the comparison table.
type Row struct {
	Algorithm string        `json:"algorithm"`
	Display   string        `json:"display"`
	Index     int           `json:"index"`
	Metrics   stats.Metrics `json:"metrics"`
}

// Rank orders algorithm indices by FE descending, then by -MD descending,
// then by registration index descending.
func Rank(metrics []stats.Metrics) []int {
	order := make([]int, len(metrics))
	for h := range order {
		order[h] = h
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(metrics[b].FE, metrics[a].FE); c != 0 {
			return c
		}
		if c := cmp.Compare(-metrics[b].MD, -metrics[a].MD); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})
	return order
}

// BuildTable ranks the algorithms of r and resolves their display names.
func BuildTable(ds *results.Dataset, r *stats.Report, names NameTable) ([]Row, error) {
	order := Rank(r.Metrics)
	rows := make([]Row, 0, len(order))
	for _, h := range order {
		abbr := ds.Algorithms.Name(h)
		display, err := names.Display(abbr)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			Algorithm: abbr,
			Display:   display,
			Index:     h,
			Metrics:   r.Metrics[h],
		})
	}
	return rows, nil
}

// WriteTable writes rows as the statistics CSV. In absolute mode FE, FS,
// BA and EBA are counts; otherwise they are percentages.
func WriteTable(w io.Writer, rows []Row, absolute bool) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(tableHeader); err != nil {
		return err
	}
	for _, row := range rows {
		m := row.Metrics
		record := make([]string, 0, len(tableHeader))
		record = append(record, row.Display)
		for _, v := range []float64{m.FE, m.FS, m.BA, m.EBA} {
			if absolute {
				record = append(record, strconv.FormatFloat(v, 'f', 0, 64))
			} else {
				record = append(record, strconv.FormatFloat(v*100, 'f', 1, 64))
			}
		}
		for _, v := range []float64{m.WD, m.MD, m.BD} {
			record = append(record, strconv.FormatFloat(v*100, 'f', 2, 64))
		}
		record = append(record, strconv.FormatFloat(m.AR, 'f', 1, 64))
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
