package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	gohook "github.com/robotn/gohook"
)

var ErrInvalidHotkey = errors.New("invalid hotkey")

// Listen registers the global hotkey and blocks, invoking callback on every
// press, until ctx is done. The callback runs on the hook goroutine and must
// not block; hand work off to a queue.
func Listen(ctx context.Context, hotkeyConfig string, callback func()) error {
	keys, err := ParseHotkey(hotkeyConfig)
	if err != nil {
		return err
	}
	log.Printf("Hotkey listener configured for: %s (%v)", hotkeyConfig, keys)

	gohook.Register(gohook.KeyDown, keys, func(gohook.Event) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey callback: %v", r)
			}
		}()
		log.Printf("Hotkey activated: %s", hotkeyConfig)
		if callback != nil {
			callback()
		}
	})

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("gohook.Start() returned nil channel")
	}
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			gohook.End()
		case <-stopped:
		}
	}()
	<-gohook.Process(evChan)
	close(stopped)
	log.Printf("Hotkey event loop ended")
	return ctx.Err()
}

// ParseHotkey converts a hotkey string like "Ctrl+Alt+g" to normalized key
// names: modifiers first, then exactly one regular key.
func ParseHotkey(hotkeyConfig string) ([]string, error) {
	var mods []string
	key := ""
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "ctrl", "control":
			mods = append(mods, "ctrl")
		case "alt", "option", "opt":
			mods = append(mods, "alt")
		case "shift":
			mods = append(mods, "shift")
		case "win", "cmd", "super", "command", "meta":
			mods = append(mods, "cmd")
		default:
			if key != "" {
				return nil, fmt.Errorf("%w %q: more than one non-modifier key", ErrInvalidHotkey, hotkeyConfig)
			}
			name, ok := normalizeKey(part)
			if !ok {
				return nil, fmt.Errorf("%w %q: unknown key %q", ErrInvalidHotkey, hotkeyConfig, part)
			}
			key = name
		}
	}
	if key == "" {
		return nil, fmt.Errorf("%w %q: no key", ErrInvalidHotkey, hotkeyConfig)
	}
	return append(mods, key), nil
}

func normalizeKey(k string) (string, bool) {
	if len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9') {
		return k, true
	}
	if len(k) >= 2 && len(k) <= 3 && k[0] == 'f' {
		n := 0
		for _, c := range k[1:] {
			if c < '0' || c > '9' {
				return "", false
			}
			n = n*10 + int(c-'0')
		}
		return k, n >= 1 && n <= 24
	}
	switch k {
	case "space", "tab", "backspace", "home", "end", "insert", "delete",
		"pageup", "pagedown", "left", "right", "up", "down":
		return k, true
	case "enter", "return":
		return "enter", true
	case "esc", "escape":
		return "esc", true
	case "del":
		return "delete", true
	case "pgup":
		return "pageup", true
	case "pgdn":
		return "pagedown", true
	default:
		return "", false
	}
}
