package engine

import (
	"fmt"
	"strings"
)

// Kind tells a real selection apart from a context-only recovery.
type Kind int

const (
	// KindSelection: SelectedText is non-empty; Context, if set, contains it.
	KindSelection Kind = iota
	// KindContextOnly: nothing was selected, but the focused element's text
	// was recovered. SelectedText is empty and Context is non-empty.
	KindContextOnly
)

func (k Kind) String() string {
	switch k {
	case KindSelection:
		return "selection"
	case KindContextOnly:
		return "context-only"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of one retrieval.
type Result struct {
	SelectedText string
	Context      string
	Kind         Kind
	// Strategy names the strategy that produced the result.
	Strategy string
}

func (r Result) HasContext() bool { return r.Context != "" }

// Text is what a caller shows for the result: the selection, or the context
// when nothing was selected.
func (r Result) Text() string {
	if r.Kind == KindContextOnly {
		return r.Context
	}
	return r.SelectedText
}

// finalize enforces the result invariants and trims the context.
func finalize(r Result, contextChars int) (Result, error) {
	switch r.Kind {
	case KindSelection:
		if strings.TrimSpace(r.SelectedText) == "" {
			return Result{}, fmt.Errorf("%w: empty selection", ErrNotFound)
		}
		if r.Context == "" {
			return r, nil
		}
		excerpt, ok := Excerpt(r.Context, r.SelectedText, contextChars, contextChars)
		if !ok {
			r.Context = ""
			return r, nil
		}
		r.Context = excerpt
		return r, nil
	case KindContextOnly:
		if strings.TrimSpace(r.Context) == "" {
			return Result{}, fmt.Errorf("%w: empty context", ErrNotFound)
		}
		r.SelectedText = ""
		return r, nil
	default:
		return Result{}, fmt.Errorf("%w: unknown result kind %d", ErrPlatform, int(r.Kind))
	}
}
