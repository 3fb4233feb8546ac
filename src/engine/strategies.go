package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"selection-context/src/accessibility"
	"selection-context/src/probe"
	"selection-context/src/walker"
)

// directFocus reads the selection off the focused element.
func directFocus(ctx context.Context, env *Env) (Result, error) {
	sess, err := env.Accessibility()
	if err != nil {
		return Result{}, err
	}
	n, err := sess.FocusedNode()
	if err != nil {
		return Result{}, err
	}
	c := probe.Classify(n, probe.Strict)
	if c.HasSelection() {
		return Result{SelectedText: c.SelectedText, Context: c.Context}, nil
	}
	return Result{}, classificationErr(c, "focused element has no selection")
}

// activeWindow resolves the frontmost application and walks its tree.
func activeWindow(ctx context.Context, env *Env) (Result, error) {
	if env.deps.Windows == nil {
		return Result{}, fmt.Errorf("%w: no window resolver", ErrNotFound)
	}
	win, err := env.deps.Windows.ActiveWindow()
	if err != nil {
		return Result{}, err
	}
	sess, err := env.Accessibility()
	if err != nil {
		return Result{}, err
	}
	app, err := sess.ApplicationNode(win.PID)
	if err != nil {
		return Result{}, err
	}
	logf("engine: walking %q (pid %d)", win.AppName, win.PID)

	c := probe.Classify(app, probe.Application)
	if c.HasSelection() {
		return Result{SelectedText: c.SelectedText, Context: c.Context}, nil
	}
	var focusedText string
	if c.Focused {
		focusedText = c.Context
	}
	var worst error
	for cand := range walker.Walk(ctx, app, env.opts.Bounds) {
		if cand.Depth == 0 {
			continue
		}
		c := probe.Classify(cand.Node, probe.Strict)
		if errors.Is(c.Err, accessibility.ErrPermissionDenied) {
			return Result{}, c.Err
		}
		if c.HasSelection() {
			return Result{SelectedText: c.SelectedText, Context: c.Context}, nil
		}
		if focusedText == "" && c.Focused {
			focusedText = c.Context
		}
		if errors.Is(c.Err, accessibility.ErrTimeout) {
			worst = c.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if focusedText != "" {
		return Result{Kind: KindContextOnly, Context: focusedText}, nil
	}
	if worst != nil {
		return Result{}, worst
	}
	return Result{}, fmt.Errorf("%w: no selection in %q", ErrNotFound, win.AppName)
}

// alternativeAttributes retries the focused element with the wide policy and,
// failing that, accepts the current clipboard text when the element's value
// corroborates it.
func alternativeAttributes(ctx context.Context, env *Env) (Result, error) {
	sess, err := env.Accessibility()
	if err != nil {
		return Result{}, err
	}
	n, err := sess.FocusedNode()
	if err != nil {
		return Result{}, err
	}
	c := probe.Classify(n, probe.Wide)
	if c.HasSelection() {
		return Result{SelectedText: c.SelectedText, Context: c.Context}, nil
	}
	if c.Context != "" && env.deps.Clipboard != nil {
		clip, err := env.deps.Clipboard.PeekText()
		if err == nil && strings.TrimSpace(clip) != "" && strings.Contains(c.Context, clip) {
			logf("engine: clipboard text corroborated by focused element")
			return Result{SelectedText: clip, Context: c.Context}, nil
		}
	}
	return Result{}, classificationErr(c, "no alternative attribute holds a selection")
}

// clipboardFallback simulates copy inside a clipboard transaction.
func clipboardFallback(ctx context.Context, env *Env) (Result, error) {
	cb := env.deps.Clipboard
	if cb == nil {
		return Result{}, fmt.Errorf("%w: no clipboard", ErrNotFound)
	}
	combos := env.deps.Combos
	if !env.opts.CopySelection {
		text, err := cb.CaptureContextViaCopy(combos.SelectAll, combos.Copy, combos.Deselect)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindContextOnly, Context: text}, nil
	}
	sel, text, err := cb.CaptureSelectionAndContext(combos)
	switch {
	case err != nil && sel == "":
		return Result{}, err
	case err != nil:
		logf("engine: context copy failed after selection copy: %v", err)
		return Result{SelectedText: sel}, nil
	case sel != "":
		return Result{SelectedText: sel, Context: text}, nil
	default:
		return Result{Kind: KindContextOnly, Context: text}, nil
	}
}

func classificationErr(c probe.Classification, msg string) error {
	if errors.Is(c.Err, accessibility.ErrPermissionDenied) || errors.Is(c.Err, accessibility.ErrTimeout) {
		return c.Err
	}
	return fmt.Errorf("%w: %s (role %s)", ErrNotFound, msg, c.Role)
}
