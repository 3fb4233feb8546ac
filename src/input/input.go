// Package input describes key combinations and synthesizes them against the
// focused application.
package input

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var ErrEmptyCombo = errors.New("empty key combo")

// KeyCombo is one key pressed while holding zero or more modifiers.
type KeyCombo struct {
	Key       string
	Modifiers []string
}

func (k KeyCombo) IsZero() bool { return k.Key == "" }

func (k KeyCombo) String() string {
	parts := append(append([]string(nil), k.Modifiers...), k.Key)
	return strings.Join(parts, "+")
}

// Synthesizer sends key events to whatever currently has input focus.
type Synthesizer interface {
	SendKeyCombo(combo KeyCombo) error
	// ReleaseModifiers lifts any modifier still held down, e.g. by the hotkey
	// that triggered the retrieval.
	ReleaseModifiers() error
}

// Combos are the three combinations the clipboard fallback needs.
type Combos struct {
	SelectAll KeyCombo
	Copy      KeyCombo
	Deselect  KeyCombo
}

// DefaultCombos returns the platform's select-all, copy and deselect keys.
func DefaultCombos() Combos {
	return combosFor(runtime.GOOS)
}

func combosFor(goos string) Combos {
	mod := "ctrl"
	if goos == "darwin" {
		mod = "cmd"
	}
	return Combos{
		SelectAll: KeyCombo{Key: "a", Modifiers: []string{mod}},
		Copy:      KeyCombo{Key: "c", Modifiers: []string{mod}},
		Deselect:  KeyCombo{Key: "right"},
	}
}

// ParseCombo converts "Ctrl+Shift+A" style strings into a KeyCombo. The last
// non-modifier part is the key.
func ParseCombo(s string) (KeyCombo, error) {
	var k KeyCombo
	for _, part := range strings.Split(strings.ToLower(s), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m, ok := modifierName(part); ok {
			k.Modifiers = append(k.Modifiers, m)
			continue
		}
		if k.Key != "" {
			return KeyCombo{}, fmt.Errorf("combo %q has more than one key", s)
		}
		k.Key = keyName(part)
	}
	if k.Key == "" {
		return KeyCombo{}, fmt.Errorf("%w: %q", ErrEmptyCombo, s)
	}
	return k, nil
}

func modifierName(part string) (string, bool) {
	switch part {
	case "ctrl", "control":
		return "ctrl", true
	case "alt", "option", "opt":
		return "alt", true
	case "shift":
		return "shift", true
	case "cmd", "command", "win", "super", "meta":
		return "cmd", true
	default:
		return "", false
	}
}

func keyName(part string) string {
	switch part {
	case "esc":
		return "escape"
	case "return":
		return "enter"
	case "arrowright":
		return "right"
	case "arrowleft":
		return "left"
	default:
		return part
	}
}
