package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selection-context/src/clipboard"
	"selection-context/src/config"
	"selection-context/src/input"
	"selection-context/src/input/inputtest"
)

func TestCombosOverrideDefaults(t *testing.T) {
	cfg := &config.Config{CopyCombo: "ctrl+insert", DeselectCombo: "Esc"}
	c, err := Combos(cfg)
	require.NoError(t, err)
	assert.Equal(t, "ctrl+insert", c.Copy.String())
	assert.Equal(t, "escape", c.Deselect.String())
	assert.Equal(t, input.DefaultCombos().SelectAll, c.SelectAll)
}

func TestCombosRejectsEmpty(t *testing.T) {
	_, err := Combos(&config.Config{SelectAllCombo: "+"})
	assert.ErrorContains(t, err, "SELECT_ALL_COMBO")
}

func TestEngineOptions(t *testing.T) {
	cfg := &config.Config{
		Strategies:            []string{"clipboard"},
		TreeMaxDepth:          3,
		TreeMaxChildren:       0,
		StrategyTimeout:       time.Second,
		FallbackTimeout:       4 * time.Second,
		ContextChars:          20,
		FallbackCopySelection: false,
	}
	o := EngineOptions(cfg)
	assert.Equal(t, []string{"clipboard"}, o.Strategies)
	assert.Equal(t, 3, o.Bounds.MaxDepth)
	assert.Equal(t, 15, o.Bounds.MaxChildren)
	assert.Equal(t, time.Second, o.StrategyTimeout)
	assert.Equal(t, 4*time.Second, o.FallbackTimeout)
	assert.Equal(t, 20, o.ContextChars)
	assert.False(t, o.CopySelection)
}

func TestEngineDepsOmitsMissingClipboard(t *testing.T) {
	caps := &Capabilities{}
	assert.Nil(t, caps.EngineDeps().Clipboard)

	caps.Clipboard = clipboard.NewManager(clipboard.NewMemoryBackend(clipboard.Snapshot{}), &inputtest.Keys{}, clipboard.Options{})
	assert.NotNil(t, caps.EngineDeps().Clipboard)
}
