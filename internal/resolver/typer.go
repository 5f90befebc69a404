package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

// PageTyper drives a rod page: selects, checkboxes and text controls are
// located by the ref selector produced during discovery; vision-only
// fields fall back to coordinate interaction.
type PageTyper struct {
	Page    *rod.Page
	Timeout time.Duration
}

func NewPageTyper(page *rod.Page, timeout time.Duration) *PageTyper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageTyper{Page: page, Timeout: timeout}
}

func (t *PageTyper) Type(ctx context.Context, field domain.DiscoveredField, value string) error {
	if strings.HasPrefix(field.Ref, "vision:") {
		return t.typeByCoordinates(ctx, field, value)
	}

	element, err := t.Page.Context(ctx).Timeout(t.Timeout).Element(field.Ref)
	if err != nil {
		return fmt.Errorf("element not found: %s", field.Ref)
	}

	switch field.Kind {
	case domain.KindSelect:
		if err := element.Select([]string{value}, true, rod.SelectorTypeText); err != nil {
			return fmt.Errorf("select %q: %w", value, err)
		}
		return nil

	case domain.KindCheckbox:
		checked := isAffirmative(value)
		current, err := element.Property("checked")
		if err == nil && current.Bool() == checked {
			return nil
		}
		if err := element.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("toggle checkbox: %w", err)
		}
		return nil

	default:
		// Clear any prefill, then type.
		if err := element.SelectAllText(); err == nil {
			_ = element.Input("")
		}
		if err := element.Input(value); err != nil {
			return fmt.Errorf("type into %s: %w", field.Ref, err)
		}
		return nil
	}
}

// typeByCoordinates clicks the control's on-screen position and inserts
// the text through the keyboard layer.
func (t *PageTyper) typeByCoordinates(ctx context.Context, field domain.DiscoveredField, value string) error {
	page := t.Page.Context(ctx)
	if err := page.Mouse.MoveTo(proto.Point{X: field.X, Y: field.Y}); err != nil {
		return fmt.Errorf("move to (%.0f, %.0f): %w", field.X, field.Y, err)
	}
	if err := page.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click at (%.0f, %.0f): %w", field.X, field.Y, err)
	}
	if err := page.InsertText(value); err != nil {
		return fmt.Errorf("insert text: %w", err)
	}
	return nil
}

func isAffirmative(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "on", "ja", "oui", "checked":
		return true
	}
	return false
}
