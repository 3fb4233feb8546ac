//go:build linux

package platform

import (
	"selection-context/src/accessibility"
	"selection-context/src/accessibility/atspi"
	"selection-context/src/config"
)

func newProvider(cfg *config.Config) accessibility.Provider {
	return atspi.New(cfg.AXCallTimeout, bounds(cfg))
}
