package hotkey

import (
	"errors"
	"testing"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		in       string
		expected []string
	}{
		{"Ctrl+Alt+G", []string{"ctrl", "alt", "g"}},
		{"cmd+shift+1", []string{"cmd", "shift", "1"}},
		{"Win+F12", []string{"cmd", "f12"}},
		{"Control + Option + Space", []string{"ctrl", "alt", "space"}},
		{"ctrl+esc", []string{"ctrl", "esc"}},
		{"f24", []string{"f24"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHotkey(tt.in)
			if err != nil {
				t.Fatalf("ParseHotkey(%q) error: %v", tt.in, err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("ParseHotkey(%q) = %v, expected %v", tt.in, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("ParseHotkey(%q)[%d] = %q, expected %q", tt.in, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestParseHotkeyRejects(t *testing.T) {
	for _, in := range []string{"", "ctrl+alt", "ctrl+a+b", "ctrl+f25", "ctrl+unknown", "ctrl+f0"} {
		if _, err := ParseHotkey(in); !errors.Is(err, ErrInvalidHotkey) {
			t.Errorf("ParseHotkey(%q) error = %v, expected ErrInvalidHotkey", in, err)
		}
	}
}
