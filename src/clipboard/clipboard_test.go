package clipboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selection-context/src/input"
	"selection-context/src/input/inputtest"
)

var combos = input.Combos{
	SelectAll: input.KeyCombo{Key: "a", Modifiers: []string{"ctrl"}},
	Copy:      input.KeyCombo{Key: "c", Modifiers: []string{"ctrl"}},
	Deselect:  input.KeyCombo{Key: "right"},
}

var fastOpts = Options{PollInterval: 2 * time.Millisecond, PollTimeout: 60 * time.Millisecond}

// editor simulates a focused text field holding doc with selection selected.
func editor(b *MemoryBackend, doc, selected string) *inputtest.Keys {
	all := false
	return &inputtest.Keys{OnKey: func(k input.KeyCombo) error {
		switch k.String() {
		case "ctrl+a":
			all = true
		case "right":
			all = false
		case "ctrl+c":
			switch {
			case all:
				go func() {
					time.Sleep(5 * time.Millisecond)
					b.SetText(doc)
				}()
			case selected != "":
				b.SetText(selected)
			}
		}
		return nil
	}}
}

func TestCaptureContextRestoresClipboard(t *testing.T) {
	b := NewMemoryBackend(TextSnapshot("OLD"))
	before := b.Current()
	keys := editor(b, "this is a book", "")
	m := NewManager(b, keys, fastOpts)

	text, err := m.CaptureContextViaCopy(combos.SelectAll, combos.Copy, combos.Deselect)
	require.NoError(t, err)
	assert.Equal(t, "this is a book", text)
	assert.True(t, b.Current().Equal(before), "clipboard must be restored")
	assert.Equal(t, []string{"ctrl+a", "ctrl+c", "right"}, keys.Sent())
	assert.Equal(t, 1, keys.Releases())
}

func TestCopyOfUnchangedTextIsObserved(t *testing.T) {
	b := NewMemoryBackend(TextSnapshot("this is a book"))
	keys := editor(b, "this is a book", "")
	m := NewManager(b, keys, fastOpts)

	text, err := m.CaptureContextViaCopy(combos.SelectAll, combos.Copy, combos.Deselect)
	require.NoError(t, err)
	assert.Equal(t, "this is a book", text)
	assert.Equal(t, "this is a book", string(b.Current().data))
}

func TestCaptureContextTimeoutRestoresClipboard(t *testing.T) {
	b := NewMemoryBackend(TextSnapshot("OLD"))
	keys := &inputtest.Keys{}
	m := NewManager(b, keys, fastOpts)

	start := time.Now()
	_, err := m.CaptureContextViaCopy(combos.SelectAll, combos.Copy, combos.Deselect)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "OLD", string(b.Current().data))
	assert.Contains(t, keys.Sent(), "right", "selection is cancelled even on timeout")
}

func TestCaptureContextInputFailure(t *testing.T) {
	b := NewMemoryBackend(TextSnapshot("OLD"))
	keys := &inputtest.Keys{OnKey: func(k input.KeyCombo) error {
		if k.Key == "a" {
			return errors.New("no display")
		}
		return nil
	}}
	m := NewManager(b, keys, fastOpts)

	_, err := m.CaptureContextViaCopy(combos.SelectAll, combos.Copy, combos.Deselect)
	require.ErrorIs(t, err, ErrInputSynthesisFailed)
	assert.True(t, b.Current().Equal(TextSnapshot("OLD")))
	assert.NotContains(t, keys.Sent(), "right", "nothing was selected, nothing to cancel")
}

func TestSnapshotFailureIsUnavailable(t *testing.T) {
	b := NewMemoryBackend(TextSnapshot("OLD"))
	b.FailReads(errors.New("display gone"))
	keys := &inputtest.Keys{}
	m := NewManager(b, keys, fastOpts)

	_, err := m.CaptureContextViaCopy(combos.SelectAll, combos.Copy, combos.Deselect)
	require.ErrorIs(t, err, ErrClipboardUnavailable)
	assert.Empty(t, keys.Sent(), "no input is synthesized without a snapshot")
}

func TestImageClipboardIsRestored(t *testing.T) {
	img := ImageSnapshot([]byte{0x89, 'P', 'N', 'G'})
	b := NewMemoryBackend(img)
	m := NewManager(b, editor(b, "doc", ""), fastOpts)

	_, err := m.CaptureContextViaCopy(combos.SelectAll, combos.Copy, combos.Deselect)
	require.NoError(t, err)
	assert.True(t, b.Current().Equal(img))
	assert.Equal(t, FormatImage, b.Current().Format())
}

func TestCaptureSelectionAndContext(t *testing.T) {
	b := NewMemoryBackend(TextSnapshot("OLD"))
	keys := editor(b, "this is a book", "book")
	m := NewManager(b, keys, fastOpts)

	sel, ctx, err := m.CaptureSelectionAndContext(combos)
	require.NoError(t, err)
	assert.Equal(t, "book", sel)
	assert.Equal(t, "this is a book", ctx)
	assert.Equal(t, "OLD", string(b.Current().data))
	assert.Equal(t, []string{"ctrl+c", "ctrl+a", "ctrl+c", "right"}, keys.Sent())
}

func TestCaptureSelectionAndContextWithoutSelection(t *testing.T) {
	b := NewMemoryBackend(Snapshot{})
	m := NewManager(b, editor(b, "this is a book", ""), fastOpts)

	sel, ctx, err := m.CaptureSelectionAndContext(combos)
	require.NoError(t, err)
	assert.Empty(t, sel)
	assert.Equal(t, "this is a book", ctx)
	assert.Equal(t, FormatEmpty, b.Current().Format())
}

func TestPeekDoesNotWrite(t *testing.T) {
	b := NewMemoryBackend(TextSnapshot("OLD"))
	m := NewManager(b, &inputtest.Keys{}, fastOpts)
	s, err := m.PeekText()
	require.NoError(t, err)
	assert.Equal(t, "OLD", s)
	assert.Zero(t, b.Writes())
}

func TestWrite(t *testing.T) {
	b := NewMemoryBackend(Snapshot{})
	m := NewManager(b, &inputtest.Keys{}, fastOpts)
	require.NoError(t, m.Write("book"))
	assert.True(t, b.Current().Equal(TextSnapshot("book")))
}

func TestOptionsNormalize(t *testing.T) {
	o := Options{}.normalize()
	assert.Equal(t, DefaultPollInterval, o.PollInterval)
	assert.Equal(t, DefaultPollTimeout, o.PollTimeout)

	o = Options{PollInterval: time.Second, PollTimeout: 10 * time.Millisecond}.normalize()
	assert.Equal(t, o.PollTimeout, o.PollInterval)
}
