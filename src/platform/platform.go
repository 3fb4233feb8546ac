// Package platform assembles the live OS capabilities the engine runs on.
package platform

import (
	"fmt"
	"log"

	"selection-context/src/accessibility"
	"selection-context/src/clipboard"
	"selection-context/src/config"
	"selection-context/src/engine"
	"selection-context/src/input"
	"selection-context/src/walker"
	"selection-context/src/window"
)

// Capabilities are the OS bindings for this process. Clipboard is nil when
// the system clipboard could not be initialized.
type Capabilities struct {
	Accessibility accessibility.Provider
	Windows       window.Resolver
	Keys          input.Synthesizer
	Clipboard     *clipboard.Manager
	Combos        input.Combos
}

// Default binds the real accessibility API, window resolver, keyboard and
// clipboard for the running OS.
func Default(cfg *config.Config) (*Capabilities, error) {
	combos, err := Combos(cfg)
	if err != nil {
		return nil, err
	}
	caps := &Capabilities{
		Accessibility: newProvider(cfg),
		Windows:       window.NewResolver(),
		Keys:          input.NewRobotSynthesizer(cfg.KeyDelay),
		Combos:        combos,
	}
	if err := clipboard.Init(); err != nil {
		log.Printf("platform: clipboard unavailable, copy fallback disabled: %v", err)
	} else {
		caps.Clipboard = clipboard.NewManager(clipboard.SystemBackend{}, caps.Keys, clipboard.Options{
			PollInterval: cfg.ClipboardPollInterval,
			PollTimeout:  cfg.ClipboardPollTimeout,
		})
	}
	log.Printf("platform: accessibility provider %q", caps.Accessibility.Name())
	return caps, nil
}

// EngineDeps hands the capabilities to the engine.
func (c *Capabilities) EngineDeps() engine.Deps {
	d := engine.Deps{
		Accessibility: c.Accessibility,
		Windows:       c.Windows,
		Combos:        c.Combos,
	}
	if c.Clipboard != nil {
		d.Clipboard = c.Clipboard
	}
	return d
}

// Combos applies configured key combos over the platform defaults.
func Combos(cfg *config.Config) (input.Combos, error) {
	c := input.DefaultCombos()
	for _, o := range []struct {
		name string
		raw  string
		dst  *input.KeyCombo
	}{
		{"SELECT_ALL_COMBO", cfg.SelectAllCombo, &c.SelectAll},
		{"COPY_COMBO", cfg.CopyCombo, &c.Copy},
		{"DESELECT_COMBO", cfg.DeselectCombo, &c.Deselect},
	} {
		if o.raw == "" {
			continue
		}
		k, err := input.ParseCombo(o.raw)
		if err != nil {
			return input.Combos{}, fmt.Errorf("%s: %w", o.name, err)
		}
		*o.dst = k
	}
	return c, nil
}

// EngineOptions maps configuration onto engine options.
func EngineOptions(cfg *config.Config) engine.Options {
	o := engine.DefaultOptions()
	o.Strategies = cfg.Strategies
	o.Bounds = bounds(cfg)
	o.StrategyTimeout = cfg.StrategyTimeout
	o.FallbackTimeout = cfg.FallbackTimeout
	o.ContextChars = cfg.ContextChars
	o.CopySelection = cfg.FallbackCopySelection
	return o
}

func bounds(cfg *config.Config) walker.Bounds {
	return walker.Bounds{MaxDepth: cfg.TreeMaxDepth, MaxChildren: cfg.TreeMaxChildren}.Normalize()
}

// NewEngine is Default followed by engine.New.
func NewEngine(cfg *config.Config) (*engine.Engine, *Capabilities, error) {
	caps, err := Default(cfg)
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.New(caps.EngineDeps(), EngineOptions(cfg))
	if err != nil {
		return nil, nil, err
	}
	return e, caps, nil
}
