//go:build windows

package platform

import (
	"selection-context/src/accessibility"
	"selection-context/src/accessibility/uia"
	"selection-context/src/config"
)

func newProvider(cfg *config.Config) accessibility.Provider {
	return uia.New(cfg.AXCallTimeout)
}
