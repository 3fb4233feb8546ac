package runtimeinit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selection-context/src/config"
	"selection-context/src/engine"
	"selection-context/src/platform"
)

func fakeBuild(cfg *config.Config) (*engine.Engine, *platform.Capabilities, error) {
	e, err := engine.NewWithStrategies(engine.Deps{}, engine.DefaultOptions(), []engine.Strategy{{
		Name: "fixed",
		Run: func(context.Context, *engine.Env) (engine.Result, error) {
			return engine.Result{SelectedText: "book"}, nil
		},
	}})
	return e, &platform.Capabilities{}, err
}

func TestBootstrapUsesGivenConfig(t *testing.T) {
	cfg := &config.Config{EnableFileLogging: true}
	var logging []bool
	rt, err := Bootstrap(Options{
		Config:       cfg,
		SetupLogging: func(b bool) { logging = append(logging, b) },
		Build:        fakeBuild,
	})
	require.NoError(t, err)
	assert.Same(t, cfg, rt.Config)
	assert.Equal(t, []bool{true}, logging)

	res, err := rt.Engine.GetSelectedTextWithContext()
	require.NoError(t, err)
	assert.Equal(t, "book", res.SelectedText)
}

func TestBootstrapLoadsConfig(t *testing.T) {
	t.Setenv("CONTEXT_CHARS", "77")
	rt, err := Bootstrap(Options{Build: fakeBuild})
	require.NoError(t, err)
	assert.Equal(t, 77, rt.Config.ContextChars)
}

func TestBootstrapBuildFailure(t *testing.T) {
	_, err := Bootstrap(Options{
		Config: &config.Config{},
		Build: func(*config.Config) (*engine.Engine, *platform.Capabilities, error) {
			return nil, nil, errors.New("no display")
		},
	})
	assert.ErrorContains(t, err, "no display")
}
