package logsink

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/lixenwraith/config"
)

// Config holds all sink configuration values
type Config struct {
	// Basic settings
	Name      string `toml:"name"`      // Application name, used for the logs subdirectory and file names
	DataRoot  string `toml:"data_root"` // Writable data root; empty resolves the platform location
	Extension string `toml:"extension"`

	// Retention
	MaxFiles int64 `toml:"max_files"` // Files kept in the logs directory after startup pruning

	// Outputs
	EnableFile    bool   `toml:"enable_file"`
	EnableConsole bool   `toml:"enable_console"` // Mirror messages to the console
	ConsoleTarget string `toml:"console_target"` // "stderr" or "stdout"
	Filter        string `toml:"filter"`         // "default", "errors_only", or "terse"

	// Flush cycle
	FlushIntervalMs    int64 `toml:"flush_interval_ms"`    // Interval for delivering buffered messages
	EnablePeriodicSync bool  `toml:"enable_periodic_sync"` // Sync the log file on flush when dirty

	// Subscriber markup
	EscapeMarkup  bool   `toml:"escape_markup"`  // HTML-escape message text in rendered batches
	CriticalColor string `toml:"critical_color"` // Color of the critical marker

	// Heartbeat configuration
	HeartbeatLevel     int64 `toml:"heartbeat_level"`      // 0=disabled, 1=proc, 2=proc+disk
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // Interval seconds for heartbeat
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Name:      "logsink",
	DataRoot:  "",
	Extension: "log",

	// Retention
	MaxFiles: defaultMaxFiles,

	// Outputs
	EnableFile:    true,
	EnableConsole: true,
	ConsoleTarget: "stderr",
	Filter:        "default",

	// Flush cycle
	FlushIntervalMs:    defaultFlushInterval.Milliseconds(),
	EnablePeriodicSync: true,

	// Subscriber markup
	EscapeMarkup:  true,
	CriticalColor: "#ff1f00",

	// Heartbeat settings
	HeartbeatLevel:     HeartbeatOff,
	HeartbeatIntervalS: 60,
}

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+)$`)

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config.
// A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()

	if err := loader.RegisterStruct("logsink.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "logsink.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides keyed by toml tag
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig copies values found by the loader into the Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Keep default
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmtErrorf("name cannot be empty")
	}

	if strings.ContainsAny(c.Name, `/\`) {
		return fmtErrorf("name cannot contain path separators: %s", c.Name)
	}

	if strings.HasPrefix(c.Extension, ".") {
		return fmtErrorf("extension should not start with dot: %s", c.Extension)
	}

	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	if _, err := ParseFilter(c.Filter); err != nil {
		return err
	}

	if !colorPattern.MatchString(c.CriticalColor) {
		return fmtErrorf("invalid critical_color: '%s'", c.CriticalColor)
	}

	if c.MaxFiles < 1 {
		return fmtErrorf("max_files must be positive: %d", c.MaxFiles)
	}

	if c.FlushIntervalMs <= 0 {
		return fmtErrorf("flush_interval_ms must be positive: %d", c.FlushIntervalMs)
	}

	if c.HeartbeatLevel < HeartbeatOff || c.HeartbeatLevel > HeartbeatDisk {
		return fmtErrorf("heartbeat_level must be between 0 and 2: %d", c.HeartbeatLevel)
	}

	if c.HeartbeatLevel > HeartbeatOff && c.HeartbeatIntervalS <= 0 {
		return fmtErrorf("heartbeat_interval_s must be positive when heartbeat is enabled: %d",
			c.HeartbeatIntervalS)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// fileLayoutChanged reports whether two configs disagree on where and how the log file is written
func fileLayoutChanged(a, b *Config) bool {
	return a.Name != b.Name ||
		a.DataRoot != b.DataRoot ||
		a.Extension != b.Extension ||
		a.MaxFiles != b.MaxFiles ||
		a.EnableFile != b.EnableFile
}

// processorChanged reports whether the flush loop must restart to pick up new timers
func processorChanged(a, b *Config) bool {
	return a.FlushIntervalMs != b.FlushIntervalMs ||
		a.HeartbeatLevel != b.HeartbeatLevel ||
		a.HeartbeatIntervalS != b.HeartbeatIntervalS
}
