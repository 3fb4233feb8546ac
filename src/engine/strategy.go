package engine

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"selection-context/src/accessibility"
)

const (
	DirectFocus           = "direct-focus"
	ActiveWindow          = "active-window"
	AlternativeAttributes = "alternative-attributes"
	ClipboardFallback     = "clipboard"
)

// Func is one way of finding the selection. It returns a Result or an error
// the orchestrator classifies with the error kinds of this package.
type Func func(ctx context.Context, env *Env) (Result, error)

// Strategy is a named entry in the chain.
type Strategy struct {
	Name string
	Run  Func
	// Timeout overrides Options.StrategyTimeout when positive.
	Timeout time.Duration
}

func (s Strategy) timeout(opts Options) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return opts.StrategyTimeout
}

var builtins = map[string]Func{
	DirectFocus:           directFocus,
	ActiveWindow:          activeWindow,
	AlternativeAttributes: alternativeAttributes,
	ClipboardFallback:     clipboardFallback,
}

// DefaultOrder is the chain used when none is configured. Platforms without
// an accessibility backend go straight to the clipboard.
func DefaultOrder() []string { return orderFor(runtime.GOOS) }

func orderFor(goos string) []string {
	switch goos {
	case "darwin", "linux", "windows":
		return Names()
	}
	return []string{ClipboardFallback}
}

// Names lists the built-in strategy names.
func Names() []string {
	return []string{DirectFocus, ActiveWindow, AlternativeAttributes, ClipboardFallback}
}

// Resolve maps configured names to built-in strategies. Names are matched
// case-insensitively; unknown and duplicate names are errors.
func Resolve(names []string, opts Options) ([]Strategy, error) {
	seen := make(map[string]bool, len(names))
	out := make([]Strategy, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		run, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q (known: %s)", raw, strings.Join(Names(), ", "))
		}
		if seen[name] {
			return nil, fmt.Errorf("strategy %q listed twice", name)
		}
		seen[name] = true
		s := Strategy{Name: name, Run: run}
		if name == ClipboardFallback {
			s.Timeout = opts.FallbackTimeout
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no strategies configured")
	}
	return out, nil
}

// Env carries the capabilities of one retrieval. The accessibility session
// is opened on first use and closed when the retrieval ends.
type Env struct {
	ctx  context.Context
	deps Deps
	opts Options

	opened  bool
	session accessibility.Session
	openErr error
}

func newEnv(ctx context.Context, deps Deps, opts Options) *Env {
	return &Env{ctx: ctx, deps: deps, opts: opts}
}

// Accessibility returns the retrieval's session, opening it once.
func (e *Env) Accessibility() (accessibility.Session, error) {
	if e.opened {
		return e.session, e.openErr
	}
	e.opened = true
	p := e.deps.Accessibility
	switch {
	case p == nil:
		e.openErr = accessibility.ErrUnsupported
	case !p.Trusted():
		e.openErr = fmt.Errorf("%s: %w", p.Name(), accessibility.ErrPermissionDenied)
	default:
		e.session, e.openErr = p.Open(e.ctx)
	}
	return e.session, e.openErr
}

func (e *Env) close() {
	if e.session == nil {
		return
	}
	if err := e.session.Close(); err != nil {
		logf("engine: closing accessibility session: %v", err)
	}
	e.session = nil
}
