// Package heurbench is the library entry point: it ties ingestion,
// statistics, reporting and the analysis archive together.
package heurbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"heurbench/internal/config"
	"heurbench/internal/history"
	"heurbench/internal/registry"
	"heurbench/internal/report"
	"heurbench/internal/results"
	"heurbench/internal/source"
	"heurbench/internal/stats"
	"heurbench/internal/storage"
)

const defaultDBPath = "heurbench.db"

type Options struct {
	StoreKind string
	DBPath    string
	// CredentialsFile is a Google service account key used for gs://
	// locations. Empty uses the ambient credentials.
	CredentialsFile string
	Logger          *slog.Logger
}

type Client struct {
	store  storage.Store
	opener *source.Opener
	logger *slog.Logger
}

// Inputs name the results log and the optional inclusion lists. Any of
// them may be a gs://bucket/object URI.
type Inputs struct {
	Results    string
	Instances  string
	Algorithms string
	Delimiters history.Delimiters
}

type AnalyzeRequest struct {
	Inputs
	Scaling  float64
	Absolute bool
	// NamesPath is the abbreviation to display-name table.
	NamesPath string
	// StatsOut receives the comparison table; empty skips writing it.
	StatsOut string
	// ReportJSON receives the full JSON report; empty skips writing it.
	ReportJSON string
	Archive    bool
}

type AnalyzeResult struct {
	AnalysisID uuid.UUID
	Rows       []report.Row
	Summary    results.Summary
	Report     *stats.Report
}

type DifficultRequest struct {
	Inputs
	// Level is the most algorithms that may reach the best value on every
	// seed; negative means half the number of algorithms.
	Level int
	Out   string
}

type ChampionRequest struct {
	Inputs
	Scaling   float64
	Algorithm string
	Metric    stats.Metric
	Out       string
}

type RunItem struct {
	ID           uuid.UUID
	CreatedAtUTC time.Time
	ResultsPath  string
	Scaling      float64
	Absolute     bool
	Instances    int
	Algorithms   int
	Seeds        int
	Leader       string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:  store,
		opener: source.NewOpener(opts.CredentialsFile),
		logger: logger,
	}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return errors.Join(storage.CloseIfSupported(c.store), c.opener.Close())
}

// Analyze computes the comparison table for the inputs, writes the
// requested outputs and optionally archives the table.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	if req.NamesPath == "" {
		req.NamesPath = config.DefaultNamesPath
	}
	ds, summary, err := c.load(ctx, req.Inputs, req.Scaling, true)
	if err != nil {
		return AnalyzeResult{}, err
	}
	r, err := stats.Compute(ds.Table, stats.Options{Absolute: req.Absolute})
	if err != nil {
		return AnalyzeResult{}, err
	}

	names, err := c.readNames(ctx, req.NamesPath)
	if err != nil {
		return AnalyzeResult{}, err
	}
	rows, err := report.BuildTable(ds, r, names)
	if err != nil {
		return AnalyzeResult{}, err
	}
	result := AnalyzeResult{Rows: rows, Summary: summary, Report: r}

	if req.StatsOut != "" {
		if err := c.write(ctx, req.StatsOut, func(w io.Writer) error {
			return report.WriteTable(w, rows, req.Absolute)
		}); err != nil {
			return AnalyzeResult{}, err
		}
		c.logger.Info("statistics written", "path", req.StatsOut, "algorithms", len(rows))
	}

	analysis := storage.NewAnalysis(req.Results, scalingOrDefault(req.Scaling), req.Absolute, rows)
	analysis.Instances = ds.Instances.Len()
	analysis.Algorithms = ds.Algorithms.Len()
	analysis.Seeds = ds.Seeds.Len()
	result.AnalysisID = analysis.ID

	if req.ReportJSON != "" {
		artifact := stats.NewReportArtifact(ds, r)
		artifact.CreatedAtUTC = analysis.CreatedAtUTC.Format(time.RFC3339)
		artifact.ResultsPath = req.Results
		artifact.Scaling = analysis.Scaling
		if err := c.write(ctx, req.ReportJSON, func(w io.Writer) error {
			return stats.EncodeReport(w, artifact)
		}); err != nil {
			return AnalyzeResult{}, err
		}
	}

	if req.Archive {
		if err := c.store.SaveAnalysis(ctx, analysis); err != nil {
			return AnalyzeResult{}, fmt.Errorf("archive analysis: %w", err)
		}
		c.logger.Debug("analysis archived", "id", analysis.ID)
	}
	return result, nil
}

// Difficult lists the instances few algorithms solve to the best value on
// every seed. The instance inclusion list is not applied.
func (c *Client) Difficult(ctx context.Context, req DifficultRequest) (report.Selection, error) {
	ds, _, err := c.load(ctx, req.Inputs, 1, false)
	if err != nil {
		return report.Selection{}, err
	}
	sel := report.Difficult(ds, req.Level)
	if err := c.writeSelection(ctx, req.Out, sel); err != nil {
		return report.Selection{}, err
	}
	return sel, nil
}

// Champion lists the instances on which one algorithm meets a metric's
// criterion.
func (c *Client) Champion(ctx context.Context, req ChampionRequest) (report.Selection, error) {
	ds, _, err := c.load(ctx, req.Inputs, req.Scaling, true)
	if err != nil {
		return report.Selection{}, err
	}
	r, err := stats.Compute(ds.Table, stats.Options{})
	if err != nil {
		return report.Selection{}, err
	}
	sel, err := report.Champion(ds, r, req.Algorithm, req.Metric)
	if err != nil {
		return report.Selection{}, err
	}
	if err := c.writeSelection(ctx, req.Out, sel); err != nil {
		return report.Selection{}, err
	}
	return sel, nil
}

// Runs lists archived analyses, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	analyses, err := c.store.ListAnalyses(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, len(analyses))
	for _, a := range analyses {
		item := RunItem{
			ID:           a.ID,
			CreatedAtUTC: a.CreatedAtUTC,
			ResultsPath:  a.ResultsPath,
			Scaling:      a.Scaling,
			Absolute:     a.Absolute,
			Instances:    a.Instances,
			Algorithms:   a.Algorithms,
			Seeds:        a.Seeds,
		}
		if len(a.Rows) > 0 {
			item.Leader = a.Rows[0].Display
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Client) load(ctx context.Context, in Inputs, scaling float64, useInstances bool) (*results.Dataset, results.Summary, error) {
	opts := results.Options{
		TimeScaling: scalingOrDefault(scaling),
		Delimiters:  in.Delimiters,
		Logger:      c.logger,
	}
	var err error
	if useInstances && in.Instances != "" {
		if opts.Instances, err = c.readList(ctx, in.Instances); err != nil {
			return nil, results.Summary{}, err
		}
	}
	if in.Algorithms != "" {
		if opts.Algorithms, err = c.readList(ctx, in.Algorithms); err != nil {
			return nil, results.Summary{}, err
		}
	}

	r, err := c.opener.Open(ctx, in.Results)
	if err != nil {
		return nil, results.Summary{}, err
	}
	defer r.Close()

	ds, summary, err := results.Ingest(ctx, r, opts)
	if err != nil {
		return nil, summary, fmt.Errorf("ingest %s: %w", in.Results, err)
	}
	return ds, summary, nil
}

func (c *Client) readList(ctx context.Context, uri string) ([]string, error) {
	r, err := c.opener.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	names, err := registry.ReadList(r)
	if err != nil {
		return nil, fmt.Errorf("read list %s: %w", uri, err)
	}
	return names, nil
}

func (c *Client) readNames(ctx context.Context, uri string) (report.NameTable, error) {
	r, err := c.opener.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return report.ReadNameTable(r)
}

func (c *Client) write(ctx context.Context, uri string, fill func(io.Writer) error) error {
	w, err := c.opener.Create(ctx, uri)
	if err != nil {
		return err
	}
	if err := fill(w); err != nil {
		_ = w.Abort()
		return fmt.Errorf("write %s: %w", uri, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", uri, err)
	}
	return nil
}

func (c *Client) writeSelection(ctx context.Context, uri string, sel report.Selection) error {
	if uri == "" {
		return nil
	}
	if err := c.write(ctx, uri, func(w io.Writer) error {
		return report.WriteNames(w, sel.Accepted)
	}); err != nil {
		return err
	}
	c.logger.Info("instance list written", "path", uri, "accepted", len(sel.Accepted), "rejected", sel.Rejected)
	return nil
}

func scalingOrDefault(scaling float64) float64 {
	if scaling == 0 {
		return 1
	}
	return scaling
}
