// Package config loads and exposes client configuration. Every cadence and
// budget the client uses (poll interval, attempt ceiling, request timeouts,
// retry count, cache TTL, stall threshold, upload cap) lives here as a
// named field with a documented default instead of a literal at the call
// site.
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Global Koanf instance, initialized once at startup.
var (
	k    *koanf.Koanf
	once sync.Once
)

// InitGlobalConfig initializes the global Koanf instance. It is called
// early in the application lifecycle, before Load.
func InitGlobalConfig() {
	once.Do(func() {
		k = koanf.New(".")
	})
}

// Config is the full configuration tree.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Backend BackendConfig `koanf:"backend"`
	Poll    PollConfig    `koanf:"poll"`
	Cache   CacheConfig   `koanf:"cache"`
	Stall   StallConfig   `koanf:"stall"`
	Export  ExportConfig  `koanf:"export"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// BackendConfig describes the transcription service endpoint and the
// request budgets against it.
type BackendConfig struct {
	// BaseURL is the service root, e.g. "http://localhost:8000".
	BaseURL string `koanf:"base_url"`

	// RequestTimeout budgets quick metadata calls.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// StatusTimeout budgets job-status polls, which carry chunk payloads.
	StatusTimeout time.Duration `koanf:"status_timeout"`

	// MaxRetries is the immediate-retry budget for transient failures.
	MaxRetries int `koanf:"max_retries"`

	// MaxUploadBytes caps submissions client-side.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// PollConfig bounds a polling run.
type PollConfig struct {
	Interval    time.Duration `koanf:"interval"`
	MaxAttempts int           `koanf:"max_attempts"`
}

// CacheConfig bounds the fallback cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// StallConfig tunes the stuck-job heuristic.
type StallConfig struct {
	Threshold time.Duration `koanf:"threshold"`
}

// ExportConfig controls where downloaded transcripts are written and how
// long they are kept.
type ExportConfig struct {
	Dir string `koanf:"dir"`

	// MaxAge prunes older exports on the next export run. Zero keeps
	// everything.
	MaxAge time.Duration `koanf:"max_age"`
}

// DefaultConfig returns the baseline configuration: the production values
// every other source overrides.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8000",
			RequestTimeout: 1000 * time.Millisecond,
			StatusTimeout:  8 * time.Second,
			MaxRetries:     1,
			MaxUploadBytes: 100 << 20,
		},
		Poll: PollConfig{
			Interval:    1500 * time.Millisecond,
			MaxAttempts: 240,
		},
		Cache: CacheConfig{
			TTL: 30 * time.Second,
		},
		Stall: StallConfig{
			Threshold: 2 * time.Minute,
		},
		Export: ExportConfig{
			Dir:    "exports",
			MaxAge: 0,
		},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for koanf's confmap provider,
// so every key is known to the instance before higher-priority sources
// load.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"backend.base_url":         def.Backend.BaseURL,
		"backend.request_timeout":  def.Backend.RequestTimeout,
		"backend.status_timeout":   def.Backend.StatusTimeout,
		"backend.max_retries":      def.Backend.MaxRetries,
		"backend.max_upload_bytes": def.Backend.MaxUploadBytes,

		"poll.interval":     def.Poll.Interval,
		"poll.max_attempts": def.Poll.MaxAttempts,

		"cache.ttl": def.Cache.TTL,

		"stall.threshold": def.Stall.Threshold,

		"export.dir":     def.Export.Dir,
		"export.max_age": def.Export.MaxAge,
	}
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager backed by the global Koanf instance.
func NewManager() *Manager {
	InitGlobalConfig()
	return &Manager{
		koanfInstance: k,
	}
}

// Load loads configuration from the default source chain.
//
// Precedence (highest to lowest):
//  1. Command-line flags (--backend.base_url=...)
//  2. Environment variables (AURITY_BACKEND_BASE_URL=...)
//  3. Config file (YAML)
//  4. Defaults
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	// Check debug flag before creating sources
	debug := false
	if flags != nil {
		debugFlag := flags.Lookup("debug")
		if debugFlag != nil && debugFlag.Value.String() == "true" {
			debug = true
		}
	}

	return m.LoadWithSources(DefaultSources(customConfigFilePath, flags, debug))
}

// LoadWithSources loads the provided sources in priority order (lowest
// first), then unmarshals the merged result.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	for _, src := range sources {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("error loading config from %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	m.currentConfig = newCfg

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// GetValue retrieves a configuration value by key path, e.g.
// GetValue("poll.interval"). Returns nil if the key does not exist.
func (m *Manager) GetValue(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance.Get(key)
}

// BindFlags defines command-line flags corresponding to configuration
// settings. Call when setting up the root cobra command.
func BindFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()

	flags.String("backend.base_url", def.Backend.BaseURL, "Transcription service base URL")
	flags.Duration("poll.interval", def.Poll.Interval, "Delay between status polls")
	flags.Int("poll.max_attempts", def.Poll.MaxAttempts, "Poll attempt ceiling before giving up observing")

	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")
}
