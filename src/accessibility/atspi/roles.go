package atspi

import (
	"strings"

	"selection-context/src/accessibility"
)

// AT-SPI state bits, see atspi-constants.h.
const (
	stateActive  = 1
	stateFocused = 12
)

func roleFor(name string) string {
	switch strings.ToLower(name) {
	case "text", "paragraph", "terminal":
		return accessibility.RoleTextArea
	case "entry", "password text", "spin button", "editbar":
		return accessibility.RoleTextField
	case "document web":
		return accessibility.RoleWebArea
	case "document frame", "document text", "document email", "document presentation", "document spreadsheet":
		return accessibility.RoleDocument
	case "application":
		return accessibility.RoleApplication
	case "frame", "window", "dialog":
		return accessibility.RoleWindow
	case "", "unknown", "invalid":
		return accessibility.RoleUnknown
	default:
		return strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}
}

// hasState tests a bit in the two-word AT-SPI state set.
func hasState(set []uint32, bit uint) bool {
	word := int(bit / 32)
	if word >= len(set) {
		return false
	}
	return set[word]&(1<<(bit%32)) != 0
}
