package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"selection-context/src/accessibility"
	"selection-context/src/clipboard"
	"selection-context/src/window"
)

// ErrorKind classifies a strategy failure.
type ErrorKind int

const (
	// KindNotFound: no candidate; the chain moves on.
	KindNotFound ErrorKind = iota
	// KindPermissionDenied: accessibility is unavailable; the chain stops.
	KindPermissionDenied
	// KindTimeout: a bounded wait expired; the chain moves on.
	KindTimeout
	// KindPlatform: an unexpected OS failure; the chain moves on.
	KindPlatform
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindPermissionDenied:
		return "permission-denied"
	case KindTimeout:
		return "timeout"
	case KindPlatform:
		return "platform-error"
	default:
		return fmt.Sprintf("error-kind(%d)", int(k))
	}
}

var (
	ErrNotFound            = errors.New("no candidate found")
	ErrPermissionDenied    = errors.New("accessibility permission denied")
	ErrTimeout             = errors.New("timed out")
	ErrPlatform            = errors.New("platform error")
	ErrAllStrategiesFailed = errors.New("all strategies failed")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrPlatform
	}
}

// StrategyError is one strategy's failure.
type StrategyError struct {
	Kind     ErrorKind
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Strategy, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Strategy, e.Kind, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *StrategyError) Is(target error) bool { return target == e.Kind.sentinel() }

// Attempt records one strategy run for diagnostics.
type Attempt struct {
	Strategy string
	Err      *StrategyError
	Elapsed  time.Duration
}

// EngineErrorKind is the terminal failure of a retrieval.
type EngineErrorKind int

const (
	EnginePermissionDenied EngineErrorKind = iota
	EngineAllStrategiesFailed
)

// EngineError is returned by Retrieve when no result could be produced.
type EngineError struct {
	Kind EngineErrorKind
	// Last is the most specific strategy error seen.
	Last     *StrategyError
	Attempts []Attempt
}

func (e *EngineError) Error() string {
	var b strings.Builder
	if e.Kind == EnginePermissionDenied {
		b.WriteString(ErrPermissionDenied.Error())
	} else {
		b.WriteString(ErrAllStrategiesFailed.Error())
	}
	if e.Last != nil {
		b.WriteString(": ")
		b.WriteString(e.Last.Error())
	}
	return b.String()
}

func (e *EngineError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

func (e *EngineError) Is(target error) bool {
	switch e.Kind {
	case EnginePermissionDenied:
		return target == ErrPermissionDenied
	default:
		return target == ErrAllStrategiesFailed
	}
}

// ErrorKindName is the machine-readable kind of any error Retrieve returns.
func ErrorKindName(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		if ee.Kind == EnginePermissionDenied {
			return KindPermissionDenied.String()
		}
		return "all-strategies-failed"
	}
	return kindOf(err).String()
}

func asStrategyError(name string, err error) *StrategyError {
	var se *StrategyError
	if errors.As(err, &se) {
		return se
	}
	return &StrategyError{Kind: kindOf(err), Strategy: name, Err: err}
}

func kindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, accessibility.ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrTimeout),
		errors.Is(err, accessibility.ErrTimeout),
		errors.Is(err, clipboard.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accessibility.ErrNoFocus),
		errors.Is(err, accessibility.ErrNotFound),
		errors.Is(err, accessibility.ErrNoValue),
		errors.Is(err, accessibility.ErrAttributeUnsupported),
		errors.Is(err, accessibility.ErrUnsupported),
		errors.Is(err, window.ErrNoActiveWindow):
		return KindNotFound
	default:
		return KindPlatform
	}
}

// moreSpecific keeps the error that tells the caller most: anything beats
// NotFound, and a later error beats an earlier one of equal rank.
func moreSpecific(cur, next *StrategyError) *StrategyError {
	if cur == nil {
		return next
	}
	if next.Kind == KindNotFound && cur.Kind != KindNotFound {
		return cur
	}
	return next
}
