// Package activity mirrors every phase transition and error of a
// submission run into a JSONL trace the surrounding application can tail.
package activity

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	MaxRotatedFiles = 5
	DefaultDir      = "data/traces"
)

// Event represents a single record in the activity trace.
type Event struct {
	Timestamp time.Time   `json:"ts"`
	Type      string      `json:"type"`
	JobID     string      `json:"job_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Well-known event types emitted by the engine.
const (
	EventPhase      = "phase"
	EventStep       = "step"
	EventError      = "error"
	EventFieldError = "field_error"
	EventAttachment = "attachment_error"
	EventMail       = "mail"
)

// Sink receives activity events. The engine is written against this
// capability so tests can collect events in memory.
type Sink interface {
	Log(eventType, jobID string, data interface{})
}

// Recorder is the file-backed Sink: one rotating JSONL file per run.
type Recorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	baseDir string
}

// NewRecorder creates a recorder instance, ensuring the directory exists.
func NewRecorder(baseDir string) (*Recorder, error) {
	if baseDir == "" {
		baseDir = DefaultDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &Recorder{baseDir: baseDir}, nil
}

// Start begins a new trace file for a submission run, rotating old files
// so only the last N traces are kept.
func (r *Recorder) Start(jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}

	if err := r.rotate(); err != nil {
		return fmt.Errorf("rotate traces: %w", err)
	}

	filename := fmt.Sprintf("apply_%s_%d.jsonl", jobID, time.Now().UnixMilli())
	path := filepath.Join(r.baseDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	r.file = f
	r.encoder = json.NewEncoder(f)
	return nil
}

// Log writes an event to the current trace file. Events logged before
// Start (or after Close) are dropped silently.
func (r *Recorder) Log(eventType, jobID string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return
	}

	_ = r.encoder.Encode(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		JobID:     jobID,
		Data:      data,
	})
}

// rotate keeps only the newest MaxRotatedFiles.
func (r *Recorder) rotate() error {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return err
	}

	var traces []struct {
		Name string
		Time time.Time
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		traces = append(traces, struct {
			Name string
			Time time.Time
		}{e.Name(), info.ModTime()})
	}

	sort.Slice(traces, func(i, j int) bool {
		return traces[i].Time.After(traces[j].Time)
	})

	if len(traces) >= MaxRotatedFiles {
		keep := MaxRotatedFiles - 1
		for i := keep; i < len(traces); i++ {
			_ = os.Remove(filepath.Join(r.baseDir, traces[i].Name))
		}
	}
	return nil
}

// Close finishes the current trace.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		r.encoder = nil
		return err
	}
	return nil
}

// LogSink adapts the standard logger into a Sink for wiring where no
// trace directory is configured.
type LogSink struct{}

func (LogSink) Log(eventType, jobID string, data interface{}) {
	log.Printf("[job:%s] %s: %v", jobID, eventType, data)
}

// MemorySink collects events for tests.
type MemorySink struct {
	mu     sync.Mutex
	Events []Event
}

func (s *MemorySink) Log(eventType, jobID string, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, Event{
		Timestamp: time.Now(),
		Type:      eventType,
		JobID:     jobID,
		Data:      data,
	})
}

// ByType returns the collected events matching a type.
func (s *MemorySink) ByType(eventType string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
