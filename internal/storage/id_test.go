package storage

import (
	"testing"
	"time"
)

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestNow_UTCWholeSeconds(t *testing.T) {
	now := Now()
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", now.Location())
	}
	if now.Nanosecond() != 0 {
		t.Fatalf("expected whole seconds, got %dns", now.Nanosecond())
	}
}
