package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "journal.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}

	e1 := Entry{Timestamp: time.Unix(1, 0).UTC(), UserID: 1, Question: "когда субботник?", Answer: "в субботу"}
	e2 := Entry{Timestamp: time.Unix(2, 0).UTC(), UserID: 2, Question: "где?", Failed: true}
	if err := rec.Append(e1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := rec.Append(e2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	entries, err := rec.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2, got %d", len(entries))
	}
	if entries[0].UserID != 1 || entries[1].UserID != 2 || !entries[1].Failed {
		t.Fatalf("order mismatch: %+v", entries)
	}
}

func TestFileRecorder_SkipsMalformedLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "journal.jsonl")
	if err := os.WriteFile(p, []byte("{not json}\n\n{\"user_id\":5,\"question\":\"q\"}\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	entries, err := rec.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != 5 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
