package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"TWPull/internal/domain/models"
)

func TestQlibStoreWriteRead(t *testing.T) {
	dir := t.TempDir()
	store := NewQlibStore(dir)
	ctx := context.Background()

	in := []models.Instrument{
		{
			Symbol:    "TW2330",
			StartDate: time.Date(2003, 6, 30, 0, 0, 0, 0, time.UTC),
			EndDate:   models.DefaultEndDate(),
		},
		{
			Symbol:    "TW2317",
			StartDate: time.Date(2003, 6, 30, 0, 0, 0, 0, time.UTC),
			EndDate:   models.DefaultEndDate(),
		},
	}

	if store.Exists(models.IndexTW50) {
		t.Fatalf("file should not exist before write")
	}
	if err := store.Write(ctx, models.IndexTW50, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !store.Exists(models.IndexTW50) {
		t.Fatalf("file should exist after write")
	}

	raw, err := os.ReadFile(filepath.Join(dir, "instruments", "tw50.txt"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != "TW2330\t2003-06-30\t2099-12-31" {
		t.Fatalf("unexpected line %q", lines[0])
	}

	out, err := store.Read(ctx, models.IndexTW50)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d instruments", len(out))
	}
	for i := range in {
		if out[i].Symbol != in[i].Symbol {
			t.Fatalf("symbol[%d] = %q, want %q", i, out[i].Symbol, in[i].Symbol)
		}
		if !out[i].StartDate.Equal(in[i].StartDate) || !out[i].EndDate.Equal(in[i].EndDate) {
			t.Fatalf("dates[%d] = %v..%v", i, out[i].StartDate, out[i].EndDate)
		}
	}
}

func TestQlibStoreWriteReplaces(t *testing.T) {
	dir := t.TempDir()
	store := NewQlibStore(dir)
	ctx := context.Background()

	first := []models.Instrument{{Symbol: "TW1101", StartDate: time.Now().UTC(), EndDate: models.DefaultEndDate()}}
	second := []models.Instrument{{Symbol: "TW2330", StartDate: time.Now().UTC(), EndDate: models.DefaultEndDate()}}

	if err := store.Write(ctx, models.IndexTWII, first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Write(ctx, models.IndexTWII, second); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	out, err := store.Read(ctx, models.IndexTWII)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out) != 1 || out[0].Symbol != "TW2330" {
		t.Fatalf("unexpected contents %v", out)
	}
}

func TestQlibStoreReadMissing(t *testing.T) {
	store := NewQlibStore(t.TempDir())
	if _, err := store.Read(context.Background(), models.IndexTWII); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
