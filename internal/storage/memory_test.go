package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"heurbench/internal/report"
	"heurbench/internal/stats"
)

func sampleRows() []report.Row {
	return []report.Row{
		{Algorithm: "BURER2002", Display: "Burer et al. (2002)", Index: 1, Metrics: stats.Metrics{FE: 0.75, AR: 1.25}},
		{Algorithm: "FESTA2002G", Display: "Festa et al. (2002)", Index: 0, Metrics: stats.Metrics{FE: 0.5, AR: 1.75}},
	}
}

func TestMemoryStoreAnalysisRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	analysis := NewAnalysis("results.csv", 0.5, false, sampleRows())
	if err := store.SaveAnalysis(ctx, analysis); err != nil {
		t.Fatalf("save analysis: %v", err)
	}
	analysis.Rows[0].Display = "mutated"

	loaded, ok, err := store.GetAnalysis(ctx, analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if !ok {
		t.Fatalf("expected analysis %s", analysis.ID)
	}
	if loaded.Scaling != 0.5 || len(loaded.Rows) != 2 || loaded.Rows[0].Display != "Burer et al. (2002)" {
		t.Fatalf("unexpected analysis loaded: %+v", loaded)
	}

	_, ok, err = store.GetAnalysis(ctx, uuid.New())
	if err != nil || ok {
		t.Fatalf("expected missing analysis, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, 3)
	for i := range ids {
		analysis := NewAnalysis("results.csv", 1, false, sampleRows())
		analysis.CreatedAtUTC = base
		if i == 0 {
			analysis.CreatedAtUTC = base.Add(time.Hour)
		}
		ids[i] = analysis.ID
		if err := store.SaveAnalysis(ctx, analysis); err != nil {
			t.Fatalf("save analysis %d: %v", i, err)
		}
	}

	listed, err := store.ListAnalyses(ctx, 0)
	if err != nil {
		t.Fatalf("list analyses: %v", err)
	}
	want := []uuid.UUID{ids[0], ids[2], ids[1]}
	if len(listed) != len(want) {
		t.Fatalf("expected %d analyses, got %d", len(want), len(listed))
	}
	for i := range want {
		if listed[i].ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], listed[i].ID)
		}
	}

	limited, err := store.ListAnalyses(ctx, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != ids[0] {
		t.Fatalf("unexpected limited listing: %+v", limited)
	}
}

func TestMemoryStoreRejectsVersionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	analysis := NewAnalysis("results.csv", 1, true, nil)
	analysis.CodecVersion = 99
	if err := store.SaveAnalysis(ctx, analysis); err != ErrVersionMismatch {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	if err := NewMemoryStore().SaveAnalysis(context.Background(), NewAnalysis("r.csv", 1, false, nil)); err == nil {
		t.Fatal("expected error before init")
	}
}
