package discovery

import (
	"testing"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

func structuralField(ref string, x, y float64) domain.DiscoveredField {
	return domain.DiscoveredField{
		Origin: domain.OriginStructural,
		Kind:   domain.KindText,
		Label:  ref,
		Ref:    ref,
		X:      x,
		Y:      y,
	}
}

func visionField(question string, x, y float64) domain.DiscoveredField {
	return domain.DiscoveredField{
		Origin:   domain.OriginVision,
		Kind:     domain.KindText,
		Question: question,
		X:        x,
		Y:        y,
	}
}

func TestFuseDropsNearbyVisionFields(t *testing.T) {
	structural := []domain.DiscoveredField{
		structuralField("#email", 100, 200),
		structuralField("#phone", 100, 400),
	}
	vision := []domain.DiscoveredField{
		visionField("Email address?", 130, 230),       // within 50px of #email, dropped
		visionField("Salary expectation?", 100, 600),  // far away, kept
		visionField("Phone number?", 149, 351),        // within 50px of #phone, dropped
	}

	fused := Fuse(structural, vision)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused fields, got %d", len(fused))
	}
	last := fused[2]
	if last.Question != "Salary expectation?" {
		t.Errorf("expected the distant vision field to survive, got %+v", last)
	}
	if last.Origin != domain.OriginVision {
		t.Errorf("expected vision origin tag, got %q", last.Origin)
	}
	if last.Ref != "vision:100,600" {
		t.Errorf("expected coordinate ref for vision field, got %q", last.Ref)
	}
}

func TestFuseBoundaryIsInclusive(t *testing.T) {
	structural := []domain.DiscoveredField{structuralField("#a", 0, 0)}

	// Exactly 50px on both axes is still a duplicate.
	fused := Fuse(structural, []domain.DiscoveredField{visionField("dup", 50, 50)})
	if len(fused) != 1 {
		t.Errorf("expected duplicate at 50px to be dropped, got %d fields", len(fused))
	}

	// 50px on one axis but farther on the other is distinct.
	fused = Fuse(structural, []domain.DiscoveredField{visionField("kept", 50, 51)})
	if len(fused) != 2 {
		t.Errorf("expected field at (50,51) to survive, got %d fields", len(fused))
	}
}

func TestFuseWithoutVisionFields(t *testing.T) {
	structural := []domain.DiscoveredField{structuralField("#a", 0, 0)}
	fused := Fuse(structural, nil)
	if len(fused) != 1 {
		t.Fatalf("expected structural fields unchanged, got %d", len(fused))
	}
}

func TestFuseDoesNotMutateInput(t *testing.T) {
	structural := []domain.DiscoveredField{structuralField("#a", 0, 0)}
	_ = Fuse(structural, []domain.DiscoveredField{visionField("q", 500, 500)})
	if len(structural) != 1 {
		t.Error("Fuse must not append to the structural slice")
	}
}
