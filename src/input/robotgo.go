package input

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"
)

// RobotSynthesizer sends combos through robotgo. Calls are serialized so two
// combos never interleave their key events.
type RobotSynthesizer struct {
	// Delay is slept after each combo so the target application can react.
	Delay time.Duration

	mu sync.Mutex
}

func NewRobotSynthesizer(delay time.Duration) *RobotSynthesizer {
	return &RobotSynthesizer{Delay: delay}
}

func (r *RobotSynthesizer) SendKeyCombo(combo KeyCombo) error {
	if combo.IsZero() {
		return ErrEmptyCombo
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	args := make([]interface{}, 0, len(combo.Modifiers))
	for _, m := range combo.Modifiers {
		args = append(args, m)
	}
	log.Printf("input: tap %s", combo)
	if err := robotgo.KeyTap(combo.Key, args...); err != nil {
		return fmt.Errorf("key tap %s: %w", combo, err)
	}
	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}
	return nil
}

func (r *RobotSynthesizer) ReleaseModifiers() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, m := range []string{"ctrl", "alt", "shift", "cmd"} {
		if err := robotgo.KeyToggle(m, "up"); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release %s: %w", m, err)
		}
	}
	return firstErr
}
