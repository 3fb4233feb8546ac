// Package clipboard owns every read and write of the system clipboard. The
// clipboard is shared with the user and updated asynchronously by other
// applications, so mutations only happen inside a Manager transaction that
// restores the prior contents on every exit path.
package clipboard

import (
	"bytes"
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

var (
	ErrTimeout              = errors.New("timed out waiting for clipboard change")
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
	ErrInputSynthesisFailed = errors.New("input synthesis failed")
)

// Format is the kind of content a snapshot holds.
type Format int

const (
	FormatEmpty Format = iota
	FormatText
	FormatImage
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatImage:
		return "image"
	default:
		return "empty"
	}
}

// Snapshot is an opaque capture of clipboard content used only for restoring.
type Snapshot struct {
	format Format
	data   []byte
}

// TextSnapshot captures plain text.
func TextSnapshot(s string) Snapshot {
	if s == "" {
		return Snapshot{}
	}
	return Snapshot{format: FormatText, data: []byte(s)}
}

// ImageSnapshot captures encoded image bytes (PNG for the system backend).
func ImageSnapshot(b []byte) Snapshot {
	if len(b) == 0 {
		return Snapshot{}
	}
	return Snapshot{format: FormatImage, data: append([]byte(nil), b...)}
}

func (s Snapshot) Format() Format { return s.format }

// Equal compares two snapshots byte for byte.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.format == o.format && bytes.Equal(s.data, o.data)
}

// Backend is the raw clipboard capability.
type Backend interface {
	Snapshot() (Snapshot, error)
	Restore(s Snapshot) error
	ReadText() (string, error)
	Clear() error
}

var (
	initOnce sync.Once
	initErr  error
)

// Init prepares the system clipboard. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

// SystemBackend talks to the OS clipboard through golang.design/x/clipboard.
// Init must have succeeded before use.
type SystemBackend struct{}

func (SystemBackend) Snapshot() (Snapshot, error) {
	if err := Init(); err != nil {
		return Snapshot{}, err
	}
	if b := clipboard.Read(clipboard.FmtText); len(b) > 0 {
		return Snapshot{format: FormatText, data: b}, nil
	}
	if b := clipboard.Read(clipboard.FmtImage); len(b) > 0 {
		return Snapshot{format: FormatImage, data: b}, nil
	}
	return Snapshot{}, nil
}

func (SystemBackend) Restore(s Snapshot) error {
	if err := Init(); err != nil {
		return err
	}
	write(s)
	return nil
}

func (SystemBackend) ReadText() (string, error) {
	if err := Init(); err != nil {
		return "", err
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (SystemBackend) Clear() error {
	if err := Init(); err != nil {
		return err
	}
	write(Snapshot{})
	return nil
}
