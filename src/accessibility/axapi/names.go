// Package axapi reads the macOS accessibility tree through the AXUIElement
// API, loaded at run time with purego.
package axapi

import (
	"fmt"
	"strings"

	"selection-context/src/accessibility"
)

// AXError codes from AXError.h.
const (
	axSuccess                  = 0
	axFailure                  = -25200
	axIllegalArgument          = -25201
	axInvalidUIElement         = -25202
	axCannotComplete           = -25204
	axAttributeUnsupported     = -25205
	axNotImplemented           = -25208
	axAPIDisabled              = -25211
	axNoValue                  = -25212
	axParameterizedUnsupported = -25213
)

// nativeAttributes maps portable attribute names to AX attribute names.
var nativeAttributes = map[string]string{
	accessibility.AttrSelectedText:     "AXSelectedText",
	accessibility.AttrValue:            "AXValue",
	accessibility.AttrTitle:            "AXTitle",
	accessibility.AttrHelp:             "AXHelp",
	accessibility.AttrDescription:      "AXDescription",
	accessibility.AttrCharacterCount:   "AXNumberOfCharacters",
	accessibility.AttrFocused:          "AXFocused",
	accessibility.AttrPlaceholder:      "AXPlaceholderValue",
	accessibility.AttrLabel:            "AXLabelValue",
	accessibility.AttrDocument:         "AXDocument",
	accessibility.AttrValueDescription: "AXValueDescription",
}

const (
	attrRole           = "AXRole"
	attrChildren       = "AXChildren"
	attrFocusedElement = "AXFocusedUIElement"
)

func errFor(code int32, what string) error {
	var base error
	switch code {
	case axSuccess:
		return nil
	case axAPIDisabled:
		base = accessibility.ErrPermissionDenied
	case axCannotComplete:
		base = accessibility.ErrTimeout
	case axNoValue:
		base = accessibility.ErrNoValue
	case axAttributeUnsupported, axParameterizedUnsupported:
		base = accessibility.ErrAttributeUnsupported
	case axInvalidUIElement:
		base = accessibility.ErrNotFound
	case axNotImplemented:
		base = accessibility.ErrUnsupported
	default:
		return fmt.Errorf("%s: AXError %d", what, code)
	}
	return fmt.Errorf("%s: %w", what, base)
}

func roleFor(ax string) string {
	switch ax {
	case "AXTextArea":
		return accessibility.RoleTextArea
	case "AXTextField", "AXComboBox", "AXSearchField", "AXSecureTextField":
		return accessibility.RoleTextField
	case "AXWebArea":
		return accessibility.RoleWebArea
	case "AXApplication":
		return accessibility.RoleApplication
	case "AXWindow", "AXSheet", "AXDrawer":
		return accessibility.RoleWindow
	case "":
		return accessibility.RoleUnknown
	default:
		return strings.ToLower(strings.TrimPrefix(ax, "AX"))
	}
}
