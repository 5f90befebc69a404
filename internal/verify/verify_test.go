package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

func TestConfirmed(t *testing.T) {
	positive := []string{
		"Thank you for your interest! Application received.",
		"Ihre Bewerbung eingegangen. Vielen Dank!",
		"Merci, candidature envoyée.",
		"Gracias. Solicitud enviada correctamente.",
		"Your application has been forwarded to the hiring team.",
	}
	for _, text := range positive {
		if !Confirmed(text) {
			t.Errorf("Confirmed(%q) = false, want true", text)
		}
	}

	negative := []string{
		"Please review your answers before submitting.",
		"Error: required field missing.",
		"",
	}
	for _, text := range negative {
		if Confirmed(text) {
			t.Errorf("Confirmed(%q) = true, want false", text)
		}
	}
}

type fakePage struct {
	clicked  []string
	clickErr error
	text     string
	textErr  error
}

func (f *fakePage) Click(_ context.Context, field domain.DiscoveredField) error {
	f.clicked = append(f.clicked, field.Ref)
	return f.clickErr
}

func (f *fakePage) Text(_ context.Context) (string, error) {
	return f.text, f.textErr
}

func instant(v *Verifier) *Verifier {
	v.Sleeper = func(context.Context, time.Duration) error { return nil }
	return v
}

func TestSubmitConfirmed(t *testing.T) {
	page := &fakePage{text: "Thank you! Application submitted."}
	fields := []domain.DiscoveredField{
		{Kind: domain.KindText, Ref: "#name"},
		{Kind: domain.KindSubmit, Ref: "#apply"},
	}

	status, reason, err := instant(New(0)).Submit(context.Background(), page, fields)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if status != domain.StatusSubmitted {
		t.Errorf("status = %q, want submitted (reason %q)", status, reason)
	}
	if len(page.clicked) != 1 || page.clicked[0] != "#apply" {
		t.Errorf("clicked = %v, want [#apply]", page.clicked)
	}
}

func TestSubmitNoControl(t *testing.T) {
	page := &fakePage{text: "whatever"}
	fields := []domain.DiscoveredField{{Kind: domain.KindText, Ref: "#name"}}

	status, reason, err := instant(New(0)).Submit(context.Background(), page, fields)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if status != domain.StatusReviewNeeded || reason == "" {
		t.Errorf("status = %q reason = %q, want review_needed with a reason", status, reason)
	}
	if len(page.clicked) != 0 {
		t.Errorf("clicked = %v, want none", page.clicked)
	}
}

func TestSubmitNoConfirmation(t *testing.T) {
	page := &fakePage{text: "Review your answers."}
	fields := []domain.DiscoveredField{{Kind: domain.KindSubmit, Ref: "#apply"}}

	status, _, err := instant(New(0)).Submit(context.Background(), page, fields)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if status != domain.StatusReviewNeeded {
		t.Errorf("status = %q, want review_needed", status)
	}
}

func TestSubmitClickFailure(t *testing.T) {
	page := &fakePage{clickErr: errors.New("detached")}
	fields := []domain.DiscoveredField{{Kind: domain.KindSubmit, Ref: "#apply"}}

	status, _, err := instant(New(0)).Submit(context.Background(), page, fields)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if status != domain.StatusReviewNeeded {
		t.Errorf("status = %q, want review_needed", status)
	}
}
