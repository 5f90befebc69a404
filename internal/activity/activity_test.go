package activity

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRecorderWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	if err := rec.Start("job-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	rec.Log(EventPhase, "job-1", map[string]string{"phase": "form_filling"})
	rec.Log(EventError, "job-1", "navigation timed out")
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 trace file, got %d", len(entries))
	}

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("bad JSONL line: %v", err)
		}
		events = append(events, e)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventPhase || events[0].JobID != "job-1" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Type != EventError {
		t.Errorf("unexpected second event: %+v", events[1])
	}
}

func TestRecorderDropsEventsBeforeStart(t *testing.T) {
	rec, err := NewRecorder(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// Must not panic or create files.
	rec.Log(EventStep, "job-1", "discovering")
	if err := rec.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestRecorderRotation(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < MaxRotatedFiles+3; i++ {
		if err := rec.Start("job-rot"); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
	}
	_ = rec.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) > MaxRotatedFiles {
		t.Errorf("expected at most %d traces, got %d", MaxRotatedFiles, len(entries))
	}
}

func TestMemorySink(t *testing.T) {
	sink := &MemorySink{}
	sink.Log(EventPhase, "j", "started")
	sink.Log(EventError, "j", "boom")
	sink.Log(EventPhase, "j", "failed")

	if got := len(sink.ByType(EventPhase)); got != 2 {
		t.Errorf("expected 2 phase events, got %d", got)
	}
	if got := len(sink.ByType(EventError)); got != 1 {
		t.Errorf("expected 1 error event, got %d", got)
	}
}
