package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

// PageSubmitter drives a rod page. Submit controls found only by vision
// are clicked by coordinate.
type PageSubmitter struct {
	Page    *rod.Page
	Timeout time.Duration
}

func NewPageSubmitter(page *rod.Page, timeout time.Duration) *PageSubmitter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageSubmitter{Page: page, Timeout: timeout}
}

func (s *PageSubmitter) Click(ctx context.Context, field domain.DiscoveredField) error {
	page := s.Page.Context(ctx)
	if strings.HasPrefix(field.Ref, "vision:") {
		if err := page.Mouse.MoveTo(proto.Point{X: field.X, Y: field.Y}); err != nil {
			return fmt.Errorf("move to (%.0f, %.0f): %w", field.X, field.Y, err)
		}
		if err := page.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click at (%.0f, %.0f): %w", field.X, field.Y, err)
		}
		return nil
	}

	element, err := page.Timeout(s.Timeout).Element(field.Ref)
	if err != nil {
		return fmt.Errorf("element not found: %s", field.Ref)
	}
	if err := element.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", field.Ref, err)
	}
	return nil
}

func (s *PageSubmitter) Text(ctx context.Context) (string, error) {
	result, err := s.Page.Context(ctx).Timeout(s.Timeout).Eval(`() => document.body.innerText`)
	if err != nil {
		return "", fmt.Errorf("read page text: %w", err)
	}
	return result.Value.Str(), nil
}
