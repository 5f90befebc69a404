// Package browser owns the shared Chrome instance and hands out
// exclusive pages, one per job application run.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/khansari2403/Auto-Application-sub000/internal/config"
)

var (
	// ErrPageInUse means another run already owns the page for this job.
	ErrPageInUse = errors.New("browser: page already acquired for job")
	// ErrNotConnected means Start has not run or the browser died.
	ErrNotConnected = errors.New("browser: not connected")
)

// Manager connects to an existing Chrome or launches a new one, and
// tracks one exclusive page per job id.
type Manager struct {
	cfg        config.BrowserConfig
	mu         sync.RWMutex
	browser    *rod.Browser
	pages      map[string]*rod.Page
	controlURL string
}

func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{
		cfg:   cfg,
		pages: make(map[string]*rod.Page),
	}
}

// Start connects to an existing Chrome or launches a new one using Rod's
// launcher. Safe to call again after a browser crash.
func (m *Manager) Start(ctx context.Context) error {
	if m.browser != nil {
		_, err := m.browser.Version()
		if err == nil {
			return nil
		}
		log.Printf("stale browser connection detected, reconnecting...")
		_ = m.browser.Close()
		m.browser = nil
		m.controlURL = ""
		m.mu.Lock()
		m.pages = make(map[string]*rod.Page)
		m.mu.Unlock()
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" && len(m.cfg.Launch) > 0 {
		bin := m.cfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(m.cfg.IsHeadless())
		for _, rawFlag := range m.cfg.Launch[1:] {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		url, err := launch.Launch()
		if err != nil {
			// Fallback: let Rod pick the port and defaults.
			fallback := launcher.New().Bin(bin).Headless(m.cfg.IsHeadless())
			alt, altErr := fallback.Launch()
			if altErr != nil {
				return fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
			}
			controlURL = alt
		} else {
			controlURL = url
		}
	}

	if controlURL == "" {
		return errors.New("no debugger_url or launch command provided")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	m.browser = browser
	m.controlURL = controlURL
	log.Printf("browser connected at %s", controlURL)
	return nil
}

// ControlURL returns the WebSocket debugger URL for the connected browser.
func (m *Manager) ControlURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlURL
}

// IsConnected reports whether the browser is currently connected.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// AcquirePage opens a fresh page for a job and navigates it to url within
// the configured navigation timeout. Each job owns at most one page; a
// second acquire for the same job fails with ErrPageInUse.
func (m *Manager) AcquirePage(ctx context.Context, jobID, url string) (*rod.Page, error) {
	m.mu.Lock()
	if m.browser == nil {
		m.mu.Unlock()
		return nil, ErrNotConnected
	}
	if _, exists := m.pages[jobID]; exists {
		m.mu.Unlock()
		return nil, ErrPageInUse
	}
	// Reserve the slot before the slow page creation.
	m.pages[jobID] = nil
	browser := m.browser
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		delete(m.pages, jobID)
		m.mu.Unlock()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		release()
		return nil, fmt.Errorf("create page: %w", err)
	}
	page = page.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.GetViewportWidth(),
		Height:            m.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		log.Printf("[job:%s] warning: failed to set viewport: %v", jobID, err)
	}

	if err := page.Timeout(m.cfg.NavigationTimeout()).Navigate(url); err != nil {
		_ = page.Close()
		release()
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.Timeout(m.cfg.NavigationTimeout()).WaitLoad(); err != nil {
		_ = page.Close()
		release()
		return nil, fmt.Errorf("wait for %s to load: %w", url, err)
	}

	m.mu.Lock()
	m.pages[jobID] = page
	m.mu.Unlock()
	return page, nil
}

// Page returns the live page for a job when present.
func (m *Manager) Page(jobID string) (*rod.Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[jobID]
	return p, ok && p != nil
}

// ReleasePage closes and forgets a job's page. Releasing an unknown job
// is a no-op.
func (m *Manager) ReleasePage(jobID string) {
	m.mu.Lock()
	page := m.pages[jobID]
	delete(m.pages, jobID)
	m.mu.Unlock()

	if page != nil {
		_ = page.Close()
	}
}

// Screenshot captures a full-page screenshot for the vision pass.
func (m *Manager) Screenshot(ctx context.Context, page *rod.Page) ([]byte, error) {
	return page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// PageText returns the visible text of the document body, bounded by the
// element timeout.
func (m *Manager) PageText(ctx context.Context, page *rod.Page) (string, error) {
	res, err := page.Context(ctx).Timeout(m.cfg.ElementTimeout()).Eval(
		`() => document.body ? document.body.innerText : ""`)
	if err != nil || res == nil {
		return "", err
	}
	return res.Value.String(), nil
}

// Shutdown closes every tracked page and the underlying browser.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, page := range m.pages {
		if page != nil {
			_ = page.Close()
		}
		delete(m.pages, id)
	}

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	m.controlURL = ""
	log.Printf("browser shutdown complete")
	return err
}

// ElementTimeout exposes the configured element wait bound for callers
// that drive individual controls.
func (m *Manager) ElementTimeout() time.Duration {
	return m.cfg.ElementTimeout()
}

// NavigationTimeout exposes the configured navigation bound.
func (m *Manager) NavigationTimeout() time.Duration {
	return m.cfg.NavigationTimeout()
}
