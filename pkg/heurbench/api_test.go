package heurbench

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heurbench/internal/report"
	"heurbench/internal/results"
	"heurbench/internal/stats"
)

const resultsLog = "timestamp,instance,algorithm,seed,time_limit,value,elapsed_time,history\n" +
	"2024-01-01,i1,a1,s1,10,10,1,\n" +
	"2024-01-01,i1,a2,s1,10,20,1,\n" +
	"2024-01-01,i2,a1,s1,10,30,2,\n" +
	"2024-01-01,i2,a2,s1,10,30,1,\n"

type fixture struct {
	dir     string
	results string
	names   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		results: filepath.Join(dir, "results.csv"),
		names:   filepath.Join(dir, "names.csv"),
	}
	require.NoError(t, os.WriteFile(f.results, []byte(resultsLog), 0o644))
	require.NoError(t, os.WriteFile(f.names, []byte("a1,Alpha\na2,Beta\n"), 0o644))
	return f
}

func newClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	require.NoError(t, err)
	require.NoError(t, client.Init(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAnalyzeWritesTableAndArchives(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := newClient(t)

	statsOut := filepath.Join(f.dir, "out", "stats.csv")
	reportOut := filepath.Join(f.dir, "out", "report.json")
	res, err := client.Analyze(ctx, AnalyzeRequest{
		Inputs:     Inputs{Results: f.results},
		NamesPath:  f.names,
		StatsOut:   statsOut,
		ReportJSON: reportOut,
		Archive:    true,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "a2", res.Rows[0].Algorithm)
	assert.Equal(t, 4, res.Summary.Rows)

	data, err := os.ReadFile(statsOut)
	require.NoError(t, err)
	assert.Equal(t, "Heuristic,FE,FS,BA,EBA,WD,MD,BD,AR\n"+
		"Beta,100.0,50.0,100.0,100.0,0.00,0.00,0.00,1.0\n"+
		"Alpha,50.0,0.0,50.0,0.0,25.00,25.00,25.00,1.5\n", string(data))

	fh, err := os.Open(reportOut)
	require.NoError(t, err)
	defer fh.Close()
	artifact, err := stats.DecodeReport(fh)
	require.NoError(t, err)
	assert.Equal(t, f.results, artifact.ResultsPath)
	assert.Equal(t, 1.0, artifact.Scaling)
	assert.Len(t, artifact.Instances, 2)

	runs, err := client.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.AnalysisID, runs[0].ID)
	assert.Equal(t, "Beta", runs[0].Leader)
	assert.Equal(t, 2, runs[0].Instances)
	assert.Equal(t, 2, runs[0].Algorithms)
	assert.Equal(t, 1, runs[0].Seeds)
}

func TestAnalyzeWithoutArchive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := newClient(t)

	_, err := client.Analyze(ctx, AnalyzeRequest{Inputs: Inputs{Results: f.results}, NamesPath: f.names})
	require.NoError(t, err)
	runs, err := client.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestAnalyzeAbsolute(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "abs.csv")
	_, err := newClient(t).Analyze(context.Background(), AnalyzeRequest{
		Inputs:    Inputs{Results: f.results},
		Absolute:  true,
		NamesPath: f.names,
		StatsOut:  out,
	})
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Beta,2,1,2,2,0.00,0.00,0.00,1.0\n")
}

func TestAnalyzeCoverageFailure(t *testing.T) {
	f := newFixture(t)
	algorithms := filepath.Join(f.dir, "algorithms.txt")
	require.NoError(t, os.WriteFile(algorithms, []byte("a1\na3\n"), 0o644))

	_, err := newClient(t).Analyze(context.Background(), AnalyzeRequest{
		Inputs:    Inputs{Results: f.results, Algorithms: algorithms},
		NamesPath: f.names,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, results.ErrCoverage))
}

func TestAnalyzeMissingTranslation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.names, []byte("a1,Alpha\n"), 0o644))
	_, err := newClient(t).Analyze(context.Background(), AnalyzeRequest{
		Inputs:    Inputs{Results: f.results},
		NamesPath: f.names,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, report.ErrMissingTranslation))
}

func TestDifficultWritesInstanceList(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "difficult.txt")
	sel, err := newClient(t).Difficult(context.Background(), DifficultRequest{
		Inputs: Inputs{Results: f.results},
		Level:  1,
		Out:    out,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, sel.Accepted)
	assert.Equal(t, 1, sel.Rejected)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "i1\n", string(data))
}

func TestChampionWritesInstanceList(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "champion.txt")
	client := newClient(t)

	sel, err := client.Champion(context.Background(), ChampionRequest{
		Inputs:    Inputs{Results: f.results},
		Algorithm: "a1",
		Metric:    stats.BA,
		Out:       out,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"i2"}, sel.Accepted)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "i2\n", string(data))

	_, err = client.Champion(context.Background(), ChampionRequest{
		Inputs:    Inputs{Results: f.results},
		Algorithm: "zz",
		Out:       out,
	})
	assert.True(t, errors.Is(err, report.ErrUnknownAlgorithm))
}

func TestInstanceListRestrictsAnalysis(t *testing.T) {
	f := newFixture(t)
	instances := filepath.Join(f.dir, "instances.txt")
	require.NoError(t, os.WriteFile(instances, []byte("i2\n"), 0o644))

	res, err := newClient(t).Analyze(context.Background(), AnalyzeRequest{
		Inputs:    Inputs{Results: f.results, Instances: instances},
		NamesPath: f.names,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.SkippedInstance)
	for _, row := range res.Rows {
		assert.Equal(t, 1.0, row.Metrics.FE, row.Algorithm)
	}
}

func TestFailedWriteLeavesPreviousOutput(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "stats.csv")
	require.NoError(t, os.WriteFile(out, []byte("previous\n"), 0o644))

	errFill := errors.New("disk full")
	err := newClient(t).write(context.Background(), out, func(w io.Writer) error {
		if _, err := io.WriteString(w, "Heuristic,FE\n"); err != nil {
			return err
		}
		return errFill
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errFill))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))
}

func TestNewRejectsUnknownStore(t *testing.T) {
	_, err := New(Options{StoreKind: "postgres"})
	assert.Error(t, err)
}
