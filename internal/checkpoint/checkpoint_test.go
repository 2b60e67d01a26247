package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

func TestFileStore_GetUnknownReturnsZero(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cp, err := s.Get(context.Background(), "remoteok")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !cp.IsZero() || cp.Source != "remoteok" {
		t.Errorf("expected zero checkpoint for remoteok, got %+v", cp)
	}
}

func TestFileStore_PutThenGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	posted := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	want := model.Checkpoint{
		Source:         "naukri",
		LastExternalID: "110",
		LastPostedAt:   &posted,
		RecentIDs:      []string{"109", "110"},
		LoadedOffset:   4096,
		UpdatedAt:      posted.Add(time.Hour),
	}
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "naukri")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastExternalID != "110" || got.LoadedOffset != 4096 || len(got.RecentIDs) != 2 {
		t.Errorf("got %+v", got)
	}
	if got.LastPostedAt == nil || !got.LastPostedAt.Equal(posted) {
		t.Errorf("LastPostedAt = %v", got.LastPostedAt)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "naukri.json" {
		t.Errorf("expected only naukri.json to remain, got %v", entries)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "yc.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "yc"); err == nil {
		t.Fatal("expected decode error for corrupt checkpoint")
	}
}

func TestFileStore_PutRequiresSource(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	if err := s.Put(context.Background(), model.Checkpoint{}); err == nil {
		t.Fatal("expected error for checkpoint without source")
	}
}

func TestMemoryStore_SeedIsolatesWrites(t *testing.T) {
	ctx := context.Background()
	file, _ := NewFileStore(t.TempDir())
	if err := file.Put(ctx, model.Checkpoint{Source: "remoteok", LastExternalID: "7"}); err != nil {
		t.Fatal(err)
	}

	mem := NewMemoryStore()
	if err := mem.Seed(ctx, file, []string{"remoteok", "naukri"}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	cp, _ := mem.Get(ctx, "remoteok")
	if cp.LastExternalID != "7" {
		t.Fatalf("seeded checkpoint = %+v", cp)
	}

	if err := mem.Put(ctx, model.Checkpoint{Source: "remoteok", LastExternalID: "9"}); err != nil {
		t.Fatal(err)
	}
	onDisk, _ := file.Get(ctx, "remoteok")
	if onDisk.LastExternalID != "7" {
		t.Errorf("memory write leaked to file store: %+v", onDisk)
	}
}
