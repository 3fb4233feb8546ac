package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("STRATEGIES", "direct-focus, clipboard ,")
	t.Setenv("TREE_MAX_DEPTH", "4")
	t.Setenv("STRATEGY_TIMEOUT_MS", "900")
	t.Setenv("COPY_COMBO", " cmd+c ")
	t.Setenv("FALLBACK_COPY_SELECTION", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if cfg.Hotkey != "Ctrl+Shift+T" {
		t.Errorf("Expected Hotkey to be 'Ctrl+Shift+T', got '%s'", cfg.Hotkey)
	}
	if len(cfg.Strategies) != 2 || cfg.Strategies[0] != "direct-focus" || cfg.Strategies[1] != "clipboard" {
		t.Errorf("Expected two strategies, got %q", cfg.Strategies)
	}
	if cfg.TreeMaxDepth != 4 {
		t.Errorf("Expected TreeMaxDepth 4, got %d", cfg.TreeMaxDepth)
	}
	if cfg.StrategyTimeout != 900*time.Millisecond {
		t.Errorf("Expected StrategyTimeout 900ms, got %v", cfg.StrategyTimeout)
	}
	if cfg.CopyCombo != "cmd+c" {
		t.Errorf("Expected CopyCombo 'cmd+c', got '%s'", cfg.CopyCombo)
	}
	if cfg.FallbackCopySelection {
		t.Errorf("Expected FallbackCopySelection to be false")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HOTKEY", "STRATEGIES", "TREE_MAX_DEPTH", "TREE_MAX_CHILDREN", "CONTEXT_CHARS", "AX_CALL_TIMEOUT_MS", "FALLBACK_COPY_SELECTION"} {
		t.Setenv(k, "")
	}
	t.Setenv("TREE_MAX_CHILDREN", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Expected default hotkey, got '%s'", cfg.Hotkey)
	}
	if cfg.Strategies != nil {
		t.Errorf("Expected no strategies, got %q", cfg.Strategies)
	}
	if cfg.TreeMaxDepth != DefaultTreeMaxDepth || cfg.TreeMaxChildren != DefaultTreeMaxChildren {
		t.Errorf("Expected default bounds, got %d/%d", cfg.TreeMaxDepth, cfg.TreeMaxChildren)
	}
	if cfg.ContextChars != DefaultContextChars {
		t.Errorf("Expected default context chars, got %d", cfg.ContextChars)
	}
	if cfg.AXCallTimeout != DefaultAXCallTimeout {
		t.Errorf("Expected default AX timeout, got %v", cfg.AXCallTimeout)
	}
	if !cfg.FallbackCopySelection {
		t.Errorf("Expected FallbackCopySelection to default to true")
	}
}

func TestLoadWithOptionsEnvFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "selctx.env")
	if err := os.WriteFile(envFile, []byte("CONTEXT_CHARS=42\nSTRATEGIES=clipboard\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONTEXT_CHARS", "")
	t.Setenv("STRATEGIES", "")
	os.Unsetenv("CONTEXT_CHARS")
	os.Unsetenv("STRATEGIES")

	cfg, err := LoadWithOptions(LoadOptions{EnvPathOverride: envFile, StrategiesOverride: "active-window"})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.EnvPath != envFile {
		t.Errorf("Expected EnvPath %s, got %s", envFile, cfg.EnvPath)
	}
	if cfg.ContextChars != 42 {
		t.Errorf("Expected CONTEXT_CHARS from env file, got %d", cfg.ContextChars)
	}
	if len(cfg.Strategies) != 1 || cfg.Strategies[0] != "active-window" {
		t.Errorf("Expected override to win, got %q", cfg.Strategies)
	}
}

func TestContextCharsZeroKeepsFullContext(t *testing.T) {
	t.Setenv("CONTEXT_CHARS", "0")
	t.Setenv("FALLBACK_TIMEOUT_MS", "2500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.ContextChars != 0 {
		t.Errorf("Expected CONTEXT_CHARS 0 to be kept, got %d", cfg.ContextChars)
	}
	if cfg.ClipboardHold != DefaultClipboardHold {
		t.Errorf("Expected default clipboard hold, got %v", cfg.ClipboardHold)
	}
	if cfg.FallbackTimeout != 2500*time.Millisecond {
		t.Errorf("Expected fallback timeout 2.5s, got %v", cfg.FallbackTimeout)
	}

	t.Setenv("CONTEXT_CHARS", "-1")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.ContextChars != DefaultContextChars {
		t.Errorf("Expected negative CONTEXT_CHARS to fall back, got %d", cfg.ContextChars)
	}
}

func TestPortRangeIsOrdered(t *testing.T) {
	t.Setenv("SINGLEINSTANCE_PORT_START", "50000")
	t.Setenv("SINGLEINSTANCE_PORT_END", "49000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.PortStart != 50000 || cfg.PortEnd != 50000 {
		t.Errorf("Expected collapsed range 50000-50000, got %d-%d", cfg.PortStart, cfg.PortEnd)
	}
}
