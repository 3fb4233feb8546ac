package clipboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.design/x/clipboard"
)

// OwnershipEndsWithProcess is true where the clipboard content is served by
// the process that wrote it (X11 selections). Content this process writes is
// lost when it exits unless another process takes it over.
var OwnershipEndsWithProcess = runtime.GOOS == "linux"

// ownership remembers what this process last put on the clipboard and the
// channel that closes once another application replaces it.
type ownership struct {
	mu   sync.Mutex
	snap Snapshot
	lost <-chan struct{}
}

var owner ownership

func (o *ownership) record(s Snapshot, lost <-chan struct{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snap, o.lost = s, lost
}

func (o *ownership) current() (Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lost == nil || o.snap.format == FormatEmpty {
		return Snapshot{}, false
	}
	select {
	case <-o.lost:
		return Snapshot{}, false
	default:
		return o.snap, true
	}
}

// Owned returns the content this process wrote last, if the clipboard still
// holds it.
func Owned() (Snapshot, bool) {
	return owner.current()
}

func write(s Snapshot) <-chan struct{} {
	var lost <-chan struct{}
	switch s.format {
	case FormatText:
		lost = clipboard.Write(clipboard.FmtText, s.data)
	case FormatImage:
		lost = clipboard.Write(clipboard.FmtImage, s.data)
	default:
		lost = clipboard.Write(clipboard.FmtText, []byte{})
	}
	owner.record(s, lost)
	return lost
}

// ErrHoldExpired is returned by Hold when limit elapsed while the content
// was still ours.
var ErrHoldExpired = errors.New("clipboard hold expired")

// Hold writes s and keeps serving it until another application takes the
// clipboard over, ctx is done or limit elapses. ready runs once the content
// is on the clipboard.
func Hold(ctx context.Context, s Snapshot, limit time.Duration, ready func()) error {
	if err := Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	lost := write(s)
	if ready != nil {
		ready()
	}
	return waitLost(ctx, lost, limit)
}

func waitLost(ctx context.Context, lost <-chan struct{}, limit time.Duration) error {
	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case <-lost:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrHoldExpired
	}
}

// EncodeSnapshot writes s as a header line ("text 14") followed by the raw
// bytes, for handing content to another process.
func EncodeSnapshot(w io.Writer, s Snapshot) error {
	if _, err := fmt.Fprintf(w, "%s %d\n", s.format, len(s.data)); err != nil {
		return err
	}
	_, err := w.Write(s.data)
	return err
}

// DecodeSnapshot reads what EncodeSnapshot wrote.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot header: %w", err)
	}
	name, size, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return Snapshot{}, fmt.Errorf("malformed snapshot header %q", header)
	}
	n, err := strconv.Atoi(size)
	if err != nil || n < 0 {
		return Snapshot{}, fmt.Errorf("malformed snapshot size %q", size)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(br, data); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot body: %w", err)
	}
	switch name {
	case FormatText.String():
		return TextSnapshot(string(data)), nil
	case FormatImage.String():
		return ImageSnapshot(data), nil
	case FormatEmpty.String():
		return Snapshot{}, nil
	default:
		return Snapshot{}, fmt.Errorf("unknown snapshot format %q", name)
	}
}
