package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	loc, err := ParseURI("gs://experiments/maxcut/results.csv")
	require.NoError(t, err)
	assert.True(t, loc.Remote())
	assert.Equal(t, "experiments", loc.Bucket)
	assert.Equal(t, "maxcut/results.csv", loc.Object)
	assert.Equal(t, "gs://experiments/maxcut/results.csv", loc.String())

	loc, err = ParseURI("data/results.csv")
	require.NoError(t, err)
	assert.False(t, loc.Remote())
	assert.Equal(t, "data/results.csv", loc.String())

	for _, bad := range []string{"", "gs://", "gs://bucket", "gs://bucket/", "gs:///object"} {
		_, err := ParseURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	opener := NewOpener("")
	defer opener.Close()

	path := filepath.Join(t.TempDir(), "out", "stats.csv")
	w, err := opener.Create(ctx, path)
	require.NoError(t, err)
	_, err = io.WriteString(w, "Heuristic,FE\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := opener.Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Heuristic,FE\n", string(data))
}

func TestAbortLeavesNoPartialOutput(t *testing.T) {
	ctx := context.Background()
	opener := NewOpener("")
	dir := t.TempDir()

	fresh := filepath.Join(dir, "fresh.csv")
	w, err := opener.Create(ctx, fresh)
	require.NoError(t, err)
	_, err = io.WriteString(w, "Heuristic,FE\nA,")
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	_, err = os.Stat(fresh)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	existing := filepath.Join(dir, "existing.csv")
	require.NoError(t, os.WriteFile(existing, []byte("old\n"), 0o644))
	w, err = opener.Create(ctx, existing)
	require.NoError(t, err)
	_, err = io.WriteString(w, "partial")
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")
}

func TestOpenMissingLocalFile(t *testing.T) {
	_, err := NewOpener("").Open(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMissingCredentialsFile(t *testing.T) {
	opener := NewOpener(filepath.Join(t.TempDir(), "sa.json"))
	_, err := opener.Open(context.Background(), "gs://bucket/object.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
