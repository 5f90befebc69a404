package engine

import (
	"context"

	"github.com/go-rod/rod"

	"github.com/khansari2403/Auto-Application-sub000/internal/attach"
	"github.com/khansari2403/Auto-Application-sub000/internal/auth"
	"github.com/khansari2403/Auto-Application-sub000/internal/browser"
	"github.com/khansari2403/Auto-Application-sub000/internal/discovery"
	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
	"github.com/khansari2403/Auto-Application-sub000/internal/resolver"
	"github.com/khansari2403/Auto-Application-sub000/internal/verify"
)

// RodDriver backs the engine with real browser pages.
type RodDriver struct {
	Browser *browser.Manager
	Scanner *discovery.Scanner
	Auth    *auth.Flow
}

func (d *RodDriver) Open(ctx context.Context, jobID, url string) (PageHandle, error) {
	page, err := d.Browser.AcquirePage(ctx, jobID, url)
	if err != nil {
		return nil, err
	}
	return &rodPage{driver: d, page: page}, nil
}

func (d *RodDriver) Release(jobID string) {
	d.Browser.ReleasePage(jobID)
}

type rodPage struct {
	driver *RodDriver
	page   *rod.Page
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) Text(ctx context.Context) (string, error) {
	return p.driver.Browser.PageText(ctx, p.page)
}

func (p *rodPage) Discover(ctx context.Context) ([]domain.DiscoveredField, error) {
	return p.driver.Scanner.Discover(ctx, p.page)
}

func (p *rodPage) Typer() resolver.Typer {
	return resolver.NewPageTyper(p.page, p.driver.Browser.ElementTimeout())
}

func (p *rodPage) FileSetter() attach.FileSetter {
	return attach.NewPageSetter(p.page, p.driver.Browser.ElementTimeout())
}

func (p *rodPage) Submitter() verify.Submitter {
	return verify.NewPageSubmitter(p.page, p.driver.Browser.ElementTimeout())
}

func (p *rodPage) ClearAuth(ctx context.Context, kind auth.Roadblock, profile *domain.Profile) error {
	if p.driver.Auth == nil {
		return auth.ErrManualRequired
	}
	return p.driver.Auth.Clear(ctx, p.page, kind, profile)
}
