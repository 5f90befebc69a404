package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khansari2403/Auto-Application-sub000/internal/config"
)

func TestNewManager(t *testing.T) {
	m := NewManager(config.BrowserConfig{})
	if m == nil {
		t.Fatal("expected non-nil manager")
	}
	if m.IsConnected() {
		t.Error("fresh manager should not report connected")
	}
	if m.ControlURL() != "" {
		t.Errorf("fresh manager control URL = %q, want empty", m.ControlURL())
	}
}

func TestAcquirePageNotConnected(t *testing.T) {
	m := NewManager(config.BrowserConfig{})
	_, err := m.AcquirePage(context.Background(), "job-1", "https://example.com")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestStartWithoutTarget(t *testing.T) {
	m := NewManager(config.BrowserConfig{})
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("start with no debugger URL and no launch command should fail")
	}
}

func TestReleaseUnknownPage(t *testing.T) {
	m := NewManager(config.BrowserConfig{})
	// Must not panic or block.
	m.ReleasePage("never-acquired")
}

func TestPageLookupMissing(t *testing.T) {
	m := NewManager(config.BrowserConfig{})
	if _, ok := m.Page("job-1"); ok {
		t.Error("lookup of unknown job should report absence")
	}
}

func TestTimeoutAccessors(t *testing.T) {
	m := NewManager(config.BrowserConfig{
		DefaultNavigationTimeout: "45s",
		DefaultElementTimeout:    "5s",
	})
	if got := m.NavigationTimeout(); got != 45*time.Second {
		t.Errorf("NavigationTimeout = %v, want 45s", got)
	}
	if got := m.ElementTimeout(); got != 5*time.Second {
		t.Errorf("ElementTimeout = %v, want 5s", got)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	m := NewManager(config.BrowserConfig{})
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown of unstarted manager: %v", err)
	}
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
