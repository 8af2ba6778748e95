package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type rec struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func (r rec) RecordID() string { return r.ID }

func TestFileCollection_FirstTouchSeedsAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recs.json")
	seed := []rec{{ID: "a", Note: "one"}, {ID: "b", Note: "two"}}
	c := NewFileCollection(path, seed)

	first, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(first) != 2 || first[0].ID != "a" || first[1].ID != "b" {
		t.Fatalf("unexpected seeded collection: %#v", first)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("seed file not written: %v", err)
	}

	second, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("second load differs: %d vs %d records", len(second), len(first))
	}
	for i := range first {
		if second[i] != first[i] {
			t.Fatalf("record %d differs: %#v vs %#v", i, second[i], first[i])
		}
	}
}

func TestFileCollection_NilSeedInitializesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recs.json")
	c := NewFileCollection[rec](path, nil)

	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection, got %#v", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected empty JSON array on disk, got %q", data)
	}
}

func TestFileCollection_SaveReplacesWholeCollectionInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recs.json")
	c := NewFileCollection[rec](path, nil)
	ctx := context.Background()

	want := []rec{{ID: "3"}, {ID: "1"}, {ID: "2"}}
	if err := c.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Fatalf("insertion order not preserved at %d: got %q want %q", i, got[i].ID, want[i].ID)
		}
	}
}

func TestFileCollection_SaveLeavesNoStagingFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCollection(filepath.Join(dir, "recs.json"), []rec{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := c.Save(ctx, []rec{{ID: "x"}}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "recs.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only recs.json, got %v", names)
	}
}

func TestFileCollection_UnreadableMediumIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := NewFileCollection[rec](path, nil)
	_, err := c.Load(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEmptyCollectionLoadsAsNonNilSlice(t *testing.T) {
	ctx := context.Background()

	mem := NewMemCollection[rec](nil)
	got, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("mem load: %v", err)
	}
	if got == nil {
		t.Fatal("empty memory collection loaded as nil slice")
	}

	file := NewFileCollection[rec](filepath.Join(t.TempDir(), "recs.json"), nil)
	got, err = file.Load(ctx)
	if err != nil {
		t.Fatalf("file first load: %v", err)
	}
	if got == nil {
		t.Fatal("empty file collection loaded as nil slice on first touch")
	}

	got, err = file.Load(ctx)
	if err != nil {
		t.Fatalf("file second load: %v", err)
	}
	if got == nil {
		t.Fatal("empty file collection loaded as nil slice from disk")
	}
}

func TestMemCollection_LoadReturnsCopies(t *testing.T) {
	c := NewMemCollection([]rec{{ID: "a", Note: "orig"}})
	ctx := context.Background()

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got[0].Note = "mutated"

	again, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again[0].Note != "orig" {
		t.Fatalf("caller mutation leaked into the store: %#v", again[0])
	}
}

func TestFind(t *testing.T) {
	c := NewMemCollection([]rec{{ID: "a"}, {ID: "b"}})
	ctx := context.Background()

	r, ok, err := FindByID(ctx, c, "b")
	if err != nil || !ok || r.ID != "b" {
		t.Fatalf("FindByID: got (%#v, %v, %v)", r, ok, err)
	}

	_, ok, err = FindByID(ctx, c, "zzz")
	if err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
}
