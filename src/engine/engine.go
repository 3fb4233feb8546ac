// Package engine runs the ordered chain of selection strategies and returns
// the first valid result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"selection-context/src/accessibility"
	"selection-context/src/input"
	"selection-context/src/walker"
	"selection-context/src/window"
)

const (
	DefaultStrategyTimeout = 1500 * time.Millisecond
	DefaultFallbackTimeout = 3 * time.Second
	DefaultContextChars    = 150
)

var logf = log.Printf

// Copier is the part of the clipboard manager the engine drives.
type Copier interface {
	CaptureContextViaCopy(selectAll, copyCombo, deselect input.KeyCombo) (string, error)
	CaptureSelectionAndContext(c input.Combos) (selection, context string, err error)
	PeekText() (string, error)
}

// Deps are the platform capabilities. Any of them may be nil; strategies
// that need a missing capability report NotFound.
type Deps struct {
	Accessibility accessibility.Provider
	Windows       window.Resolver
	Clipboard     Copier
	Combos        input.Combos
}

type Options struct {
	// Strategies names the chain in order. Empty means DefaultOrder.
	Strategies      []string
	Bounds          walker.Bounds
	StrategyTimeout time.Duration
	// FallbackTimeout bounds the clipboard strategy, which waits on the OS.
	FallbackTimeout time.Duration
	// ContextChars is how many runes of context to keep on each side of the
	// selection. Zero or less keeps the whole context.
	ContextChars int
	// CopySelection makes the clipboard strategy copy the selection before
	// selecting all.
	CopySelection bool
}

func DefaultOptions() Options {
	return Options{
		Bounds:          walker.DefaultBounds(),
		StrategyTimeout: DefaultStrategyTimeout,
		FallbackTimeout: DefaultFallbackTimeout,
		ContextChars:    DefaultContextChars,
		CopySelection:   true,
	}
}

func (o Options) normalize() Options {
	o.Bounds = o.Bounds.Normalize()
	if o.StrategyTimeout <= 0 {
		o.StrategyTimeout = DefaultStrategyTimeout
	}
	if o.FallbackTimeout <= 0 {
		o.FallbackTimeout = DefaultFallbackTimeout
	}
	if len(o.Strategies) == 0 {
		o.Strategies = DefaultOrder()
	}
	return o
}

// Engine holds no state between retrievals beyond its configuration.
type Engine struct {
	deps       Deps
	opts       Options
	strategies []Strategy
}

// New builds an engine over the built-in strategies named in opts.
func New(deps Deps, opts Options) (*Engine, error) {
	opts = opts.normalize()
	strategies, err := Resolve(opts.Strategies, opts)
	if err != nil {
		return nil, err
	}
	return &Engine{deps: deps, opts: opts, strategies: strategies}, nil
}

// NewWithStrategies builds an engine over an explicit chain.
func NewWithStrategies(deps Deps, opts Options, strategies []Strategy) (*Engine, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies configured")
	}
	opts = opts.normalize()
	opts.Strategies = make([]string, 0, len(strategies))
	for _, s := range strategies {
		if s.Run == nil {
			return nil, fmt.Errorf("strategy %q has no implementation", s.Name)
		}
		opts.Strategies = append(opts.Strategies, s.Name)
	}
	return &Engine{deps: deps, opts: opts, strategies: strategies}, nil
}

func (e *Engine) Strategies() []string { return append([]string(nil), e.opts.Strategies...) }

// budgetSlack covers opening and closing the accessibility session.
const budgetSlack = 500 * time.Millisecond

// Budget is the longest one pass over the chain can take. Callers size their
// retrieval deadline from it so the last strategy always gets its full time.
func (e *Engine) Budget() time.Duration { return budget(e.strategies, e.opts) }

// BudgetFor is Budget for the engine New would build from opts.
func BudgetFor(opts Options) (time.Duration, error) {
	opts = opts.normalize()
	strategies, err := Resolve(opts.Strategies, opts)
	if err != nil {
		return 0, err
	}
	return budget(strategies, opts), nil
}

func budget(strategies []Strategy, opts Options) time.Duration {
	total := budgetSlack
	for _, s := range strategies {
		total += s.timeout(opts)
	}
	return total
}

// GetSelectedTextWithContext is Retrieve without a caller deadline.
func (e *Engine) GetSelectedTextWithContext() (Result, error) {
	return e.Retrieve(context.Background())
}

// Retrieve runs the strategies in order and returns the first valid result.
// At most one strategy succeeds. PermissionDenied stops the chain; any other
// failure moves on to the next strategy. When every strategy fails the error
// is an *EngineError matching ErrAllStrategiesFailed.
func (e *Engine) Retrieve(ctx context.Context) (Result, error) {
	env := newEnv(ctx, e.deps, e.opts)
	defer env.close()

	var (
		attempts []Attempt
		last     *StrategyError
	)
	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			last = moreSpecific(last, asStrategyError(s.Name, err))
			break
		}
		start := time.Now()
		res, err := e.run(ctx, s, env)
		if err == nil {
			res.Strategy = s.Name
			res, err = finalize(res, e.opts.ContextChars)
		}
		elapsed := time.Since(start)
		if err == nil {
			logf("engine: %s succeeded in %v (%s, %d chars selected)", s.Name, elapsed, res.Kind, len([]rune(res.SelectedText)))
			return res, nil
		}
		serr := asStrategyError(s.Name, err)
		attempts = append(attempts, Attempt{Strategy: s.Name, Err: serr, Elapsed: elapsed})
		logf("engine: %s failed after %v: %v", s.Name, elapsed, serr)
		if serr.Kind == KindPermissionDenied {
			return Result{}, &EngineError{Kind: EnginePermissionDenied, Last: serr, Attempts: attempts}
		}
		last = moreSpecific(last, serr)
	}
	return Result{}, &EngineError{Kind: EngineAllStrategiesFailed, Last: last, Attempts: attempts}
}

type outcome struct {
	res Result
	err error
}

// run executes one strategy under its deadline. A strategy that overruns is
// reported as Timeout; run still waits for it to return so that strategies
// never overlap. Every native call a strategy makes is individually bounded.
func (e *Engine) run(ctx context.Context, s Strategy, env *Env) (Result, error) {
	timeout := s.timeout(e.opts)
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			logf("engine: %s capped to the %v left of the caller's deadline", s.Name, left.Round(time.Millisecond))
			timeout = left
		}
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: strategy panicked: %v", ErrPlatform, r)}
			}
		}()
		res, err := s.Run(sctx, env)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err == nil && sctx.Err() != nil {
			return Result{}, timeoutErr(s.Name, timeout, sctx.Err())
		}
		return o.res, o.err
	case <-sctx.Done():
		o := <-done
		if o.err != nil && !errors.Is(o.err, context.DeadlineExceeded) && !errors.Is(o.err, context.Canceled) {
			logf("engine: %s returned after its deadline: %v", s.Name, o.err)
		}
		return Result{}, timeoutErr(s.Name, timeout, sctx.Err())
	}
}

func timeoutErr(name string, timeout time.Duration, cause error) error {
	if errors.Is(cause, context.Canceled) {
		return &StrategyError{Kind: KindTimeout, Strategy: name, Err: cause}
	}
	return &StrategyError{Kind: KindTimeout, Strategy: name, Err: fmt.Errorf("%w after %v", ErrTimeout, timeout)}
}
