//go:build !darwin && !linux && !windows

package platform

import (
	"selection-context/src/accessibility"
	"selection-context/src/config"
)

func newProvider(*config.Config) accessibility.Provider {
	return accessibility.Unsupported{}
}
