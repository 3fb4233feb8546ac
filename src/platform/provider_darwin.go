//go:build darwin

package platform

import (
	"selection-context/src/accessibility"
	"selection-context/src/accessibility/axapi"
	"selection-context/src/config"
)

func newProvider(cfg *config.Config) accessibility.Provider {
	return axapi.New(cfg.AXCallTimeout)
}
