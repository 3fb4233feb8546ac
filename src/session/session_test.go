package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selection-context/src/engine"
	"selection-context/src/singleinstance"
)

type recordingTarget struct {
	ok   []engine.Result
	errs []error
	fail error
}

func (r *recordingTarget) OnSuccess(res engine.Result) error {
	r.ok = append(r.ok, res)
	return r.fail
}

func (r *recordingTarget) OnFailure(err error) error {
	r.errs = append(r.errs, err)
	return nil
}

var book = engine.Result{SelectedText: "book", Context: "this is a book", Kind: engine.KindSelection, Strategy: engine.DirectFocus}

func TestExecuteDeliversResult(t *testing.T) {
	target := &recordingTarget{}
	res, err := Execute(context.Background(), Options{
		Retrieve: func(ctx context.Context) (engine.Result, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "retrieval runs under a deadline")
			return book, nil
		},
		Target: target,
	})
	require.NoError(t, err)
	assert.Equal(t, book, res)
	assert.Equal(t, []engine.Result{book}, target.ok)
	assert.Empty(t, target.errs)
}

func TestExecuteReportsFailure(t *testing.T) {
	target := &recordingTarget{}
	boom := errors.New("boom")
	_, err := Execute(context.Background(), Options{
		Retrieve: func(context.Context) (engine.Result, error) { return engine.Result{}, boom },
		Target:   target,
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, target.ok)
	assert.Equal(t, []error{boom}, target.errs)
}

func TestExecuteTargetFailure(t *testing.T) {
	target := &recordingTarget{fail: errors.New("write failed")}
	_, err := Execute(context.Background(), Options{
		Retrieve: func(context.Context) (engine.Result, error) { return book, nil },
		Target:   target,
	})
	assert.ErrorContains(t, err, "write failed")
	assert.Len(t, target.errs, 1)
}

func TestExecuteDeadline(t *testing.T) {
	_, err := Execute(context.Background(), Options{
		Deadline: 10 * time.Millisecond,
		Retrieve: func(ctx context.Context) (engine.Result, error) {
			<-ctx.Done()
			return engine.Result{}, ctx.Err()
		},
		Target: &recordingTarget{},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteRequiresFields(t *testing.T) {
	_, err := Execute(context.Background(), Options{Target: &recordingTarget{}})
	assert.Error(t, err)
	_, err = Execute(context.Background(), Options{Retrieve: func(context.Context) (engine.Result, error) { return book, nil }})
	assert.Error(t, err)
}

func TestStdoutTarget(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, StdoutTarget{Writer: &buf}.OnSuccess(book))
	require.NoError(t, StdoutTarget{Writer: &buf}.OnSuccess(engine.Result{Kind: engine.KindContextOnly, Context: "whole field"}))
	assert.Equal(t, "book\nwhole field\n", buf.String())
}

func TestJSONTarget(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONTarget{Writer: &buf}.OnSuccess(book))

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "book", got["selected_text"])
	assert.Equal(t, "this is a book", got["context"])
	assert.Equal(t, "selection", got["kind"])
	assert.Equal(t, "direct-focus", got["strategy"])

	buf.Reset()
	require.NoError(t, JSONTarget{Writer: &buf}.OnFailure(&engine.EngineError{Kind: engine.EnginePermissionDenied}))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "permission-denied", got["error_kind"])
}

type fakeClipboard struct{ text string }

func (f *fakeClipboard) Write(text string) error {
	f.text = text
	return nil
}

func TestClipboardTarget(t *testing.T) {
	cb := &fakeClipboard{}
	require.NoError(t, ClipboardTarget{Clipboard: cb}.OnSuccess(book))
	assert.Equal(t, "book", cb.text)
	assert.Error(t, ClipboardTarget{}.OnSuccess(book))
}

type fakeConn struct {
	resp      singleinstance.Response
	errKind   string
	errMsg    string
	responded bool
}

func (c *fakeConn) Request() singleinstance.Request { return singleinstance.Request{} }
func (c *fakeConn) RespondSuccess(r singleinstance.Response) error {
	c.resp, c.responded = r, true
	return nil
}
func (c *fakeConn) RespondError(kind, msg string) error {
	c.errKind, c.errMsg, c.responded = kind, msg, true
	return nil
}
func (c *fakeConn) Close() error { return nil }

func TestDelegatedTarget(t *testing.T) {
	conn := &fakeConn{}
	cb := &fakeClipboard{}
	require.NoError(t, DelegatedTarget{Conn: conn, ToClipboard: true, Clipboard: cb}.OnSuccess(book))
	assert.Equal(t, "book", conn.resp.SelectedText)
	assert.Equal(t, "book", cb.text)

	conn = &fakeConn{}
	require.NoError(t, DelegatedTarget{Conn: conn}.OnFailure(&engine.EngineError{Kind: engine.EngineAllStrategiesFailed}))
	assert.Equal(t, "all-strategies-failed", conn.errKind)
	assert.NotEmpty(t, conn.errMsg)
}

func TestLogTarget(t *testing.T) {
	var lines []string
	target := LogTarget{Logf: func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}}

	require.NoError(t, target.OnSuccess(engine.Result{SelectedText: "book", Strategy: engine.DirectFocus}))
	require.NoError(t, target.OnSuccess(engine.Result{
		SelectedText: "book",
		Context:      "this is a book",
		Strategy:     engine.ActiveWindow,
	}))
	require.Len(t, lines, 2)
	assert.Equal(t, "selection via direct-focus: [4 runes], no context", lines[0])
	assert.Contains(t, lines[1], "context \"this\"...\"book\" [14 runes]")
	assert.NotContains(t, lines[1], "this is a book")
}

func TestErrorResponsePassesRemoteKind(t *testing.T) {
	r := ErrorResponse(&singleinstance.RemoteError{Kind: "timeout", Message: "slow"})
	assert.Equal(t, "timeout", r.ErrorKind)
	assert.Equal(t, "slow", r.Error)
}
