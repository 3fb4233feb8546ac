package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"selection-context/src/engine"
	"selection-context/src/logutil"
	"selection-context/src/singleinstance"
)

// DefaultDeadline fits one pass over the default strategy chain. Callers that
// know their engine should pass Engine.Budget instead.
const DefaultDeadline = 8 * time.Second

type RetrieveFunc func(ctx context.Context) (engine.Result, error)

// ResultTarget delivers the outcome of one retrieval.
type ResultTarget interface {
	OnSuccess(res engine.Result) error
	OnFailure(err error) error
}

type Options struct {
	Deadline time.Duration
	Retrieve RetrieveFunc
	Target   ResultTarget
}

// Execute runs one retrieval under a deadline and hands the outcome to the
// target.
func Execute(ctx context.Context, opts Options) (engine.Result, error) {
	if opts.Retrieve == nil {
		return engine.Result{}, errors.New("Retrieve is required")
	}
	if opts.Target == nil {
		return engine.Result{}, errors.New("Target is required")
	}

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	res, err := opts.Retrieve(jobCtx)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return engine.Result{}, err
	}

	if err := opts.Target.OnSuccess(res); err != nil {
		_ = opts.Target.OnFailure(err)
		return engine.Result{}, err
	}
	return res, nil
}

// ToResponse converts a result to its wire and JSON form.
func ToResponse(res engine.Result) singleinstance.Response {
	return singleinstance.Response{
		SelectedText: res.SelectedText,
		Context:      res.Context,
		Kind:         res.Kind.String(),
		Strategy:     res.Strategy,
	}
}

// ErrorResponse converts a failure to its wire and JSON form.
func ErrorResponse(err error) singleinstance.Response {
	var re *singleinstance.RemoteError
	if errors.As(err, &re) {
		return singleinstance.Response{ErrorKind: re.Kind, Error: re.Message}
	}
	return singleinstance.Response{ErrorKind: engine.ErrorKindName(err), Error: err.Error()}
}

// StdoutTarget prints the selection, or the context when nothing was selected.
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(res engine.Result) error {
	_, err := fmt.Fprintln(writerOrStdout(t.Writer), res.Text())
	return err
}

func (t StdoutTarget) OnFailure(err error) error {
	return nil
}

// JSONTarget writes one JSON object per outcome, failures included.
type JSONTarget struct {
	Writer io.Writer
}

func (t JSONTarget) OnSuccess(res engine.Result) error {
	return json.NewEncoder(writerOrStdout(t.Writer)).Encode(ToResponse(res))
}

func (t JSONTarget) OnFailure(err error) error {
	if err == nil {
		return nil
	}
	return json.NewEncoder(writerOrStdout(t.Writer)).Encode(ErrorResponse(err))
}

// TextWriter puts text on the clipboard.
type TextWriter interface {
	Write(text string) error
}

// ClipboardTarget replaces the clipboard with the selection once the
// retrieval, and with it the clipboard restore, is complete.
type ClipboardTarget struct {
	Clipboard TextWriter
}

func (t ClipboardTarget) OnSuccess(res engine.Result) error {
	if t.Clipboard == nil {
		return errors.New("clipboard target missing clipboard")
	}
	return t.Clipboard.Write(res.Text())
}

func (t ClipboardTarget) OnFailure(err error) error {
	return nil
}

// DelegatedTarget answers a client of the resident server.
type DelegatedTarget struct {
	Conn        singleinstance.Conn
	ToClipboard bool
	Clipboard   TextWriter
}

func (t DelegatedTarget) OnSuccess(res engine.Result) error {
	if t.Conn == nil {
		return errors.New("delegated target missing connection")
	}
	if t.ToClipboard {
		if err := (ClipboardTarget{Clipboard: t.Clipboard}).OnSuccess(res); err != nil {
			return fmt.Errorf("clipboard error: %w", err)
		}
	}
	return t.Conn.RespondSuccess(ToResponse(res))
}

func (t DelegatedTarget) OnFailure(err error) error {
	if t.Conn == nil {
		return nil
	}
	if err == nil {
		return t.Conn.RespondError("", "unknown session error")
	}
	r := ErrorResponse(err)
	return t.Conn.RespondError(r.ErrorKind, r.Error)
}

// LogTarget only records the outcome; used for hotkey-triggered retrievals
// without an output.
type LogTarget struct {
	Logf func(format string, args ...any)
}

func (t LogTarget) OnSuccess(res engine.Result) error {
	if !res.HasContext() {
		t.Logf("%s via %s: %s, no context", res.Kind, res.Strategy, logutil.Redact(res.SelectedText))
		return nil
	}
	t.Logf("%s via %s: %s, context %s", res.Kind, res.Strategy, logutil.Redact(res.SelectedText), logutil.Redact(res.Context))
	return nil
}

func (t LogTarget) OnFailure(err error) error {
	t.Logf("retrieval failed: %v", err)
	return nil
}

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
