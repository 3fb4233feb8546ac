package clipboard

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"selection-context/src/input"
)

const (
	DefaultPollInterval = 20 * time.Millisecond
	DefaultPollTimeout  = 400 * time.Millisecond
)

// Options tunes how long a transaction waits for the OS to publish a copy.
type Options struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func (o Options) normalize() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = DefaultPollTimeout
	}
	if o.PollInterval > o.PollTimeout {
		o.PollInterval = o.PollTimeout
	}
	return o
}

// Manager is the sole owner of the save/restore discipline around the
// clipboard. Transactions are serialized process-wide.
type Manager struct {
	backend Backend
	keys    input.Synthesizer
	opts    Options

	mu sync.Mutex
}

func NewManager(backend Backend, keys input.Synthesizer, opts Options) *Manager {
	return &Manager{backend: backend, keys: keys, opts: opts.normalize()}
}

// CaptureContextViaCopy selects everything in the focused element, copies it,
// deselects and returns the copied text. The clipboard is restored to its
// prior content whatever happens.
func (m *Manager) CaptureContextViaCopy(selectAll, copyCombo, deselect input.KeyCombo) (string, error) {
	var text string
	err := m.transact(deselect, func(t *txn) error {
		if err := t.selectAll(selectAll); err != nil {
			return err
		}
		var err error
		text, err = t.copy(copyCombo)
		return err
	})
	return text, err
}

// CaptureSelectionAndContext copies the current selection, then selects all
// and copies again, inside one transaction. An empty selection with a
// non-empty context means nothing was selected but the element has text.
func (m *Manager) CaptureSelectionAndContext(c input.Combos) (selection, context string, err error) {
	err = m.transact(c.Deselect, func(t *txn) error {
		var err error
		selection, err = t.copy(c.Copy)
		switch {
		case errors.Is(err, ErrTimeout):
			log.Printf("clipboard: plain copy produced nothing; no selection")
		case err != nil:
			return err
		}
		if err := t.selectAll(c.SelectAll); err != nil {
			return err
		}
		context, err = t.copy(c.Copy)
		return err
	})
	return selection, context, err
}

// PeekText reads the clipboard text without modifying it.
func (m *Manager) PeekText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.backend.ReadText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return s, nil
}

// Write replaces the clipboard with text. It is used to deliver results, never
// inside a retrieval.
func (m *Manager) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.backend.Restore(TextSnapshot(text)); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}

func (m *Manager) transact(deselect input.KeyCombo, body func(*txn) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved, err := m.backend.Snapshot()
	if err != nil {
		return fmt.Errorf("%w: snapshot: %v", ErrClipboardUnavailable, err)
	}
	log.Printf("clipboard: saved %s content", saved.Format())

	t := &txn{m: m}
	defer func() {
		if t.selected && !deselect.IsZero() {
			if derr := m.keys.SendKeyCombo(deselect); derr != nil {
				log.Printf("clipboard: deselect %s failed: %v", deselect, derr)
			}
		}
		if rerr := m.backend.Restore(saved); rerr != nil {
			err = errors.Join(err, fmt.Errorf("%w: restore: %v", ErrClipboardUnavailable, rerr))
			return
		}
		log.Printf("clipboard: restored %s content", saved.Format())
	}()

	if err := m.keys.ReleaseModifiers(); err != nil {
		log.Printf("clipboard: release modifiers: %v", err)
	}
	return body(t)
}

type txn struct {
	m        *Manager
	selected bool
}

func (t *txn) press(k input.KeyCombo) error {
	if err := t.m.keys.SendKeyCombo(k); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInputSynthesisFailed, k, err)
	}
	return nil
}

func (t *txn) selectAll(k input.KeyCombo) error {
	if err := t.press(k); err != nil {
		return err
	}
	t.selected = true
	return nil
}

// copy clears the clipboard, presses the copy combo and waits for text to show up.
func (t *txn) copy(k input.KeyCombo) (string, error) {
	if err := t.m.backend.Clear(); err != nil {
		return "", fmt.Errorf("%w: clear: %v", ErrClipboardUnavailable, err)
	}
	if err := t.press(k); err != nil {
		return "", err
	}
	return t.m.await()
}

// await polls until the clipboard holds text or the poll timeout elapses.
// Copies land asynchronously, so a single immediate read is unreliable.
func (m *Manager) await() (string, error) {
	deadline := time.Now().Add(m.opts.PollTimeout)
	polls := 0
	for {
		polls++
		s, err := m.backend.ReadText()
		if err != nil {
			return "", fmt.Errorf("%w: read: %v", ErrClipboardUnavailable, err)
		}
		if s != "" {
			log.Printf("clipboard: change observed after %d polls", polls)
			return s, nil
		}
		if !time.Now().Before(deadline) {
			return "", fmt.Errorf("%w after %v", ErrTimeout, m.opts.PollTimeout)
		}
		time.Sleep(m.opts.PollInterval)
	}
}
