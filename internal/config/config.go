package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures all tunable settings for the autoapply engine.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Vision    VisionConfig    `yaml:"vision"`
	Mailbox   MailboxConfig   `yaml:"mailbox"`
	Store     StoreConfig     `yaml:"store"`
	Documents DocumentsConfig `yaml:"documents"`
	Activity  ActivityConfig  `yaml:"activity"`
	Engine    EngineConfig    `yaml:"engine"`
}

// BrowserConfig configures how we attach to or launch Chrome for Rod.
type BrowserConfig struct {
	// Control endpoint for Rod (e.g., ws://localhost:9222). Optional when launch is set.
	DebuggerURL string `yaml:"debugger_url"`
	// Optional launch command (e.g., ["chrome", "--remote-debugging-port=9222"]).
	Launch []string `yaml:"launch"`
	// Headless controls whether Chrome runs headless. The engine keeps the
	// browser visible by default so a human can take over mid-form.
	Headless *bool `yaml:"headless"`
	// Navigation timeout (e.g., "60s").
	DefaultNavigationTimeout string `yaml:"default_navigation_timeout"`
	// Element wait timeout (e.g., "10s").
	DefaultElementTimeout string `yaml:"default_element_timeout"`
	// How long a submitted session's browser page stays alive (e.g., "30s").
	SubmittedKeepAlive string `yaml:"submitted_keep_alive"`
	// Viewport width for new pages (default: 1920).
	ViewportWidth int `yaml:"viewport_width"`
	// Viewport height for new pages (default: 1080).
	ViewportHeight int `yaml:"viewport_height"`
}

// VisionConfig configures the optional vision pass over a page screenshot.
type VisionConfig struct {
	Enable bool `yaml:"enable"`
	// Model name, e.g. "gemini-2.5-flash".
	Model string `yaml:"model"`
	// Environment variable holding the API key (default: GEMINI_API_KEY).
	APIKeyEnv string `yaml:"api_key_env"`
	// Per-call timeout (e.g., "90s").
	RequestTimeout string `yaml:"request_timeout"`
}

// MailboxConfig configures the verification-code inbox watcher.
type MailboxConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	// Interval between inbox polls (default: "15s").
	PollInterval string `yaml:"poll_interval"`
	// Maximum polls before giving up (default: 12, a 3-minute bound).
	PollAttempts int `yaml:"poll_attempts"`
}

// StoreConfig locates the sqlite database shared by the record store and
// the knowledge base.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DocumentsConfig locates generated application artifacts.
type DocumentsConfig struct {
	Dir string `yaml:"dir"`
}

// ActivityConfig controls the JSONL activity trace consumed by the
// surrounding application.
type ActivityConfig struct {
	Dir string `yaml:"dir"`
}

// EngineConfig holds pacing knobs for human-like form filling.
type EngineConfig struct {
	// Minimum delay between typed fields (default: "300ms").
	TypingDelayMin string `yaml:"typing_delay_min"`
	// Maximum delay between typed fields (default: "900ms").
	TypingDelayMax string `yaml:"typing_delay_max"`
}

// DefaultConfig provides reasonable defaults for local use.
func DefaultConfig() Config {
	return Config{
		Browser: BrowserConfig{
			DefaultNavigationTimeout: "60s",
			DefaultElementTimeout:    "10s",
			SubmittedKeepAlive:       "30s",
			ViewportWidth:            1920,
			ViewportHeight:           1080,
		},
		Vision: VisionConfig{
			Enable:         true,
			Model:          "gemini-2.5-flash",
			APIKeyEnv:      "GEMINI_API_KEY",
			RequestTimeout: "90s",
		},
		Mailbox: MailboxConfig{
			PollInterval: "15s",
			PollAttempts: 12,
		},
		Store:     StoreConfig{Path: "autoapply.db"},
		Documents: DocumentsConfig{Dir: "data/documents"},
		Activity:  ActivityConfig{Dir: "data/traces"},
		Engine: EngineConfig{
			TypingDelayMin: "300ms",
			TypingDelayMax: "900ms",
		},
	}
}

// Load reads YAML config from disk and overlays defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate ensures required fields exist so the engine can start
// deterministically.
func (c *Config) Validate() error {
	if c.Browser.DebuggerURL == "" && len(c.Browser.Launch) == 0 {
		return errors.New("browser.debugger_url or browser.launch must be provided")
	}
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.Mailbox.PollAttempts < 0 {
		return errors.New("mailbox.poll_attempts must not be negative")
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// NavigationTimeout returns the parsed navigation timeout with a sane default.
func (b BrowserConfig) NavigationTimeout() time.Duration {
	return parseDuration(b.DefaultNavigationTimeout, 60*time.Second)
}

// ElementTimeout returns the parsed element wait timeout with a sane default.
func (b BrowserConfig) ElementTimeout() time.Duration {
	return parseDuration(b.DefaultElementTimeout, 10*time.Second)
}

// KeepAlive returns how long a submitted session's page stays open.
func (b BrowserConfig) KeepAlive() time.Duration {
	return parseDuration(b.SubmittedKeepAlive, 30*time.Second)
}

// IsHeadless returns whether Chrome should run headless (default: false).
func (b BrowserConfig) IsHeadless() bool {
	if b.Headless == nil {
		return false
	}
	return *b.Headless
}

// GetViewportWidth returns the viewport width with a sane default.
func (b BrowserConfig) GetViewportWidth() int {
	if b.ViewportWidth <= 0 {
		return 1920
	}
	return b.ViewportWidth
}

// GetViewportHeight returns the viewport height with a sane default.
func (b BrowserConfig) GetViewportHeight() int {
	if b.ViewportHeight <= 0 {
		return 1080
	}
	return b.ViewportHeight
}

// GetRequestTimeout returns the parsed vision call timeout with a sane default.
func (v VisionConfig) GetRequestTimeout() time.Duration {
	return parseDuration(v.RequestTimeout, 90*time.Second)
}

// APIKey reads the configured environment variable.
func (v VisionConfig) APIKey() string {
	env := v.APIKeyEnv
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	return os.Getenv(env)
}

// GetPollInterval returns the inbox poll interval with a sane default.
func (m MailboxConfig) GetPollInterval() time.Duration {
	return parseDuration(m.PollInterval, 15*time.Second)
}

// GetPollAttempts returns the inbox poll attempt bound with a sane default.
func (m MailboxConfig) GetPollAttempts() int {
	if m.PollAttempts <= 0 {
		return 12
	}
	return m.PollAttempts
}

// DelayMin returns the minimum inter-field typing delay.
func (e EngineConfig) DelayMin() time.Duration {
	return parseDuration(e.TypingDelayMin, 300*time.Millisecond)
}

// DelayMax returns the maximum inter-field typing delay. Never less than
// DelayMin.
func (e EngineConfig) DelayMax() time.Duration {
	d := parseDuration(e.TypingDelayMax, 900*time.Millisecond)
	if d < e.DelayMin() {
		return e.DelayMin()
	}
	return d
}
