package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvFileEnvVar    = "SELECTION_CONTEXT_ENV"
	StrategiesEnvVar = "STRATEGIES"
	DefaultHotkey    = "Ctrl+Alt+G"

	DefaultTreeMaxDepth    = 6
	DefaultTreeMaxChildren = 15
	DefaultContextChars    = 150

	DefaultStrategyTimeout       = 1500 * time.Millisecond
	DefaultFallbackTimeout       = 3 * time.Second
	DefaultAXCallTimeout         = 500 * time.Millisecond
	DefaultClipboardPollInterval = 20 * time.Millisecond
	DefaultClipboardPollTimeout  = 400 * time.Millisecond
	DefaultKeyDelay              = 50 * time.Millisecond
	DefaultClipboardHold         = time.Hour

	DefaultPortStart = 49600
	DefaultPortEnd   = 49610
)

type LoadOptions struct {
	EnvPathOverride    string
	StrategiesOverride string
}

type Config struct {
	EnvPath           string
	EnableFileLogging bool
	Hotkey            string

	// Strategies is the configured chain; empty means the platform default.
	Strategies      []string
	TreeMaxDepth    int
	TreeMaxChildren int
	ContextChars    int

	StrategyTimeout       time.Duration
	FallbackTimeout       time.Duration
	AXCallTimeout         time.Duration
	ClipboardPollInterval time.Duration
	ClipboardPollTimeout  time.Duration
	KeyDelay              time.Duration
	// ClipboardHold bounds how long a handed-off clipboard is kept alive
	// where the clipboard dies with the process that wrote it.
	ClipboardHold         time.Duration

	// Key combos as written by the user, e.g. "ctrl+a". Empty means the
	// platform default.
	SelectAllCombo string
	CopyCombo      string
	DeselectCombo  string

	FallbackCopySelection bool

	PortStart int
	PortEnd   int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) explicit override path
	// 2) .env in the application (executable) directory
	// 3) the file named by SELECTION_CONTEXT_ENV
	// Variables already set in the environment always win.
	envPath := resolveEnvPath(opts)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	strategies := splitList(os.Getenv(StrategiesEnvVar))
	if override := strings.TrimSpace(opts.StrategiesOverride); override != "" {
		strategies = splitList(override)
	}

	portStart := getIntWithDefault("SINGLEINSTANCE_PORT_START", DefaultPortStart)
	portEnd := getIntWithDefault("SINGLEINSTANCE_PORT_END", DefaultPortEnd)
	if portEnd < portStart {
		portEnd = portStart
	}

	cfg := &Config{
		EnvPath:           envPath,
		EnableFileLogging: getBoolWithDefault("ENABLE_FILE_LOGGING", false),
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),

		Strategies:      strategies,
		TreeMaxDepth:    getIntWithDefault("TREE_MAX_DEPTH", DefaultTreeMaxDepth),
		TreeMaxChildren: getIntWithDefault("TREE_MAX_CHILDREN", DefaultTreeMaxChildren),
		ContextChars:    getCountWithDefault("CONTEXT_CHARS", DefaultContextChars),

		StrategyTimeout:       getMillisWithDefault("STRATEGY_TIMEOUT_MS", DefaultStrategyTimeout),
		FallbackTimeout:       getMillisWithDefault("FALLBACK_TIMEOUT_MS", DefaultFallbackTimeout),
		AXCallTimeout:         getMillisWithDefault("AX_CALL_TIMEOUT_MS", DefaultAXCallTimeout),
		ClipboardPollInterval: getMillisWithDefault("CLIPBOARD_POLL_INTERVAL_MS", DefaultClipboardPollInterval),
		ClipboardPollTimeout:  getMillisWithDefault("CLIPBOARD_POLL_TIMEOUT_MS", DefaultClipboardPollTimeout),
		KeyDelay:              getMillisWithDefault("KEY_DELAY_MS", DefaultKeyDelay),
		ClipboardHold:         getMillisWithDefault("CLIPBOARD_HOLD_MS", DefaultClipboardHold),

		SelectAllCombo: strings.TrimSpace(os.Getenv("SELECT_ALL_COMBO")),
		CopyCombo:      strings.TrimSpace(os.Getenv("COPY_COMBO")),
		DeselectCombo:  strings.TrimSpace(os.Getenv("DESELECT_COMBO")),

		FallbackCopySelection: getBoolWithDefault("FALLBACK_COPY_SELECTION", true),

		PortStart: portStart,
		PortEnd:   portEnd,
	}

	return cfg, nil
}

func resolveEnvPath(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.EnvPathOverride); override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntWithDefault ignores values that are not positive integers.
func getIntWithDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// getCountWithDefault is getIntWithDefault but accepts zero.
func getCountWithDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

func getMillisWithDefault(key string, defaultValue time.Duration) time.Duration {
	if n := getIntWithDefault(key, 0); n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
