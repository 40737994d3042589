package config

import (
	"fmt"
	"os"
	"regexp"

	"sitecap/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Session describes one recording run: the site, the scenario the
// recorder should cover, and the knobs for browser, model and storage.
type Session struct {
	// StartURL is where the browser opens. Domain defaults to its
	// normalized host.
	StartURL string `yaml:"start_url"`
	Domain   string `yaml:"domain,omitempty"`

	// Scenario tells the recorder what to cover, in plain language.
	Scenario string `yaml:"scenario"`

	// URLPattern is the regexp the first recorded page context inherits
	// when the model does not supply one. Defaults to the escaped
	// StartURL.
	URLPattern string `yaml:"url_pattern,omitempty"`

	MaxTurns    int     `yaml:"max_turns,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
	MergePolicy string  `yaml:"merge_policy,omitempty"`

	Model   ModelConfig   `yaml:"model,omitempty"`
	Browser BrowserConfig `yaml:"browser,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

type ModelConfig struct {
	// Name overrides OPENROUTER_MODEL_NAME.
	Name string `yaml:"name,omitempty"`
	// BaseURL overrides OPENROUTER_BASE_URL.
	BaseURL string `yaml:"base_url,omitempty"`
}

type BrowserConfig struct {
	Headless     *bool `yaml:"headless,omitempty"`
	Stealth      bool  `yaml:"stealth,omitempty"`
	AutoScroll   *bool `yaml:"auto_scroll,omitempty"`
	SlowMotionMS int   `yaml:"slow_motion_ms,omitempty"`
	TimeoutS     int   `yaml:"timeout_s,omitempty"`
}

// IsHeadless treats an unset value as headless.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

// AutoScrollEnabled treats an unset value as enabled.
func (b BrowserConfig) AutoScrollEnabled() bool {
	return b.AutoScroll == nil || *b.AutoScroll
}

type StorageConfig struct {
	// Path is a directory of JSON documents, or a .db / sqlite: locator
	// for the SQLite store.
	Path string `yaml:"path,omitempty"`
}

type OutputConfig struct {
	// ScreenshotDir enables page screenshots when set.
	ScreenshotDir string `yaml:"screenshot_dir,omitempty"`
	AuditDir      string `yaml:"audit_dir,omitempty"`
	LogDir        string `yaml:"log_dir,omitempty"`
}

func (c *Session) defaults() {
	if c.MaxTurns <= 0 {
		c.MaxTurns = 20
	}
	if c.MergePolicy == "" {
		c.MergePolicy = string(entity.MergeRetain)
	}
	if c.Browser.Headless == nil {
		c.Browser.Headless = boolPtr(true)
	}
	if c.Browser.AutoScroll == nil {
		c.Browser.AutoScroll = boolPtr(true)
	}
	if c.Browser.TimeoutS <= 0 {
		c.Browser.TimeoutS = 15
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "capabilities"
	}
	if c.Output.AuditDir == "" {
		c.Output.AuditDir = "audit"
	}
	if c.Output.LogDir == "" {
		c.Output.LogDir = "log"
	}
}

// Validate checks required fields and normalizes the domain.
func (c *Session) Validate() error {
	if c.StartURL == "" {
		return fmt.Errorf("start_url is required")
	}
	if c.Scenario == "" {
		return fmt.Errorf("scenario is required")
	}

	source := c.Domain
	if source == "" {
		source = c.StartURL
	}
	domain, err := entity.NormalizeDomain(source)
	if err != nil {
		return fmt.Errorf("normalize domain: %w", err)
	}
	c.Domain = domain

	if _, err := entity.ParseMergePolicy(c.MergePolicy); err != nil {
		return err
	}
	if c.URLPattern != "" {
		if _, err := regexp.Compile(c.URLPattern); err != nil {
			return fmt.Errorf("url_pattern does not compile: %w", err)
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	}
	return nil
}

// Load reads a session config file, applies defaults and validates.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Session
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default builds a session config from explicit values, the flags-only
// path of the record command. Callers still run Validate.
func Default(startURL, scenario string) *Session {
	cfg := &Session{StartURL: startURL, Scenario: scenario}
	cfg.defaults()
	return cfg
}

func boolPtr(b bool) *bool {
	return &b
}
