package attach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

// PageSetter attaches files through a rod page. File inputs need a real
// DOM handle; vision-only coordinates cannot receive files.
type PageSetter struct {
	Page    *rod.Page
	Timeout time.Duration
}

func NewPageSetter(page *rod.Page, timeout time.Duration) *PageSetter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageSetter{Page: page, Timeout: timeout}
}

func (s *PageSetter) SetFiles(ctx context.Context, field domain.DiscoveredField, path string) error {
	if strings.HasPrefix(field.Ref, "vision:") {
		return fmt.Errorf("upload field %s has no selector", field.Ref)
	}
	element, err := s.Page.Context(ctx).Timeout(s.Timeout).Element(field.Ref)
	if err != nil {
		return fmt.Errorf("element not found: %s", field.Ref)
	}
	if err := element.SetFiles([]string{path}); err != nil {
		return fmt.Errorf("set files on %s: %w", field.Ref, err)
	}
	return nil
}
