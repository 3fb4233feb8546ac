package runtimeinit

import (
	"fmt"
	"log"

	"selection-context/src/config"
	"selection-context/src/engine"
	"selection-context/src/platform"
)

type Options struct {
	LoadOptions config.LoadOptions
	// Config skips loading when already available.
	Config       *config.Config
	SetupLogging func(bool)
	// Build replaces platform.NewEngine.
	Build func(*config.Config) (*engine.Engine, *platform.Capabilities, error)
}

// Runtime is everything a command needs to retrieve selections.
type Runtime struct {
	Config *config.Config
	Engine *engine.Engine
	Caps   *platform.Capabilities
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.LoadWithOptions(opts.LoadOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	build := opts.Build
	if build == nil {
		build = platform.NewEngine
	}
	eng, caps, err := build(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize platform: %w", err)
	}
	if caps != nil && caps.Accessibility != nil && !caps.Accessibility.Trusted() {
		log.Printf("accessibility access is not granted to this process; retrievals report permission-denied until it is")
	}
	log.Printf("engine ready, strategies=%v", eng.Strategies())

	return &Runtime{Config: cfg, Engine: eng, Caps: caps}, nil
}
