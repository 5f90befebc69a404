package vision

import (
	"testing"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

func TestParseFieldsPlainArray(t *testing.T) {
	text := `[
		{"field": "Salary expectation", "type": "text", "required": true,
		 "x": 420, "y": 980, "question": "What are your salary expectations?",
		 "category": "salary"},
		{"field": "CV upload", "type": "file", "required": true, "x": 420, "y": 1100}
	]`

	fields, err := parseFields(text)
	if err != nil {
		t.Fatalf("parseFields failed: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	f := fields[0]
	if f.Origin != domain.OriginVision {
		t.Errorf("expected vision origin, got %q", f.Origin)
	}
	if f.Category != domain.CategorySalary {
		t.Errorf("expected salary category, got %q", f.Category)
	}
	if f.Question == "" || f.X != 420 || !f.Required {
		t.Errorf("unexpected field: %+v", f)
	}
	if fields[1].Kind != domain.KindFile {
		t.Errorf("expected file kind, got %q", fields[1].Kind)
	}
}

func TestParseFieldsFencedOutput(t *testing.T) {
	text := "Here are the fields:\n```json\n" +
		`[{"field": "Name", "type": "text", "x": 10, "y": 20}]` +
		"\n```"
	fields, err := parseFields(text)
	if err != nil {
		t.Fatalf("parseFields failed on fenced output: %v", err)
	}
	if len(fields) != 1 || fields[0].Label != "Name" {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestParseFieldsGarbage(t *testing.T) {
	if _, err := parseFields("I could not find any form on this page."); err == nil {
		t.Error("expected error for non-JSON output")
	}
	if _, err := parseFields(`{"field": "not an array"}`); err == nil {
		t.Error("expected error for non-array output")
	}
}

func TestParseFieldsSkipsUnnamedItems(t *testing.T) {
	text := `[{"type": "text", "x": 1, "y": 2}, {"field": "City", "type": "text", "x": 3, "y": 4}]`
	fields, err := parseFields(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 1 || fields[0].Label != "City" {
		t.Errorf("expected only the labeled field, got %+v", fields)
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	if got := normalizeKind("textarea"); got != domain.KindText {
		t.Errorf("expected text fallback, got %q", got)
	}
	if got := normalizeCategory("compensation"); got != domain.CategoryOther {
		t.Errorf("expected other fallback, got %q", got)
	}
	if got := normalizeCategory("VISA"); got != domain.CategoryVisa {
		t.Errorf("expected case-insensitive category, got %q", got)
	}
}
