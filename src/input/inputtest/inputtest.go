// Package inputtest provides a scripted key synthesizer for tests.
package inputtest

import (
	"sync"

	"selection-context/src/input"
)

// Keys records every combo and optionally reacts to it.
type Keys struct {
	// OnKey runs after a combo is recorded; returning an error fails the send.
	OnKey func(k input.KeyCombo) error

	mu       sync.Mutex
	sent     []string
	releases int
}

func (k *Keys) SendKeyCombo(c input.KeyCombo) error {
	k.mu.Lock()
	k.sent = append(k.sent, c.String())
	hook := k.OnKey
	k.mu.Unlock()
	if hook != nil {
		return hook(c)
	}
	return nil
}

func (k *Keys) ReleaseModifiers() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.releases++
	return nil
}

// Sent returns the combos sent so far, e.g. "ctrl+c".
func (k *Keys) Sent() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.sent...)
}

func (k *Keys) Releases() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.releases
}
