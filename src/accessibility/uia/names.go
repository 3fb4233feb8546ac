// Package uia reads the Windows accessibility tree through UI Automation,
// driven over COM with go-ole.
package uia

import (
	"fmt"
	"strings"

	"selection-context/src/accessibility"
)

// HRESULTs UI Automation reports for element and pattern calls.
const (
	hrAccessDenied        = 0x80070005
	hrElementNotAvailable = 0x80040201
	hrElementNotEnabled   = 0x80040200
	hrNoClickablePoint    = 0x80040202
	hrNotSupported        = 0x80040204
	hrInvalidOperation    = 0x80131509
	hrTimeout             = 0x80131505
	hrNoInterface         = 0x80004002
)

// Control type ids from UIAutomationClient.h.
const (
	controlButton   = 50000
	controlEdit     = 50004
	controlText     = 50020
	controlPane     = 50033
	controlDocument = 50030
	controlWindow   = 50032
	controlGroup    = 50026
	controlCustom   = 50025
	controlComboBox = 50003
)

var controlNames = map[int32]string{
	controlButton:   "button",
	controlText:     "text",
	controlPane:     "pane",
	controlGroup:    "group",
	controlCustom:   "custom",
	controlComboBox: accessibility.RoleTextField,
	50001:           "calendar",
	50002:           "checkbox",
	50005:           "hyperlink",
	50006:           "image",
	50007:           "list-item",
	50008:           "list",
	50009:           "menu",
	50010:           "menu-bar",
	50011:           "menu-item",
	50013:           "radio-button",
	50018:           "tab",
	50019:           "tab-item",
	50021:           "toolbar",
	50023:           "tree",
	50024:           "tree-item",
	50028:           "data-grid",
	50029:           "data-item",
	50031:           "split-button",
	50036:           "table",
	50037:           "title-bar",
}

// Pattern ids and the text unit used to widen a selection.
const (
	patternValue    = 10002
	patternText     = 10014
	textUnitPara    = 4
	maxParentClimbs = 20
)

// roleFor maps a control type to a canonical role. Multi-line edits are
// reported by the caller through the text pattern, so an edit is a field here.
func roleFor(controlType int32) string {
	switch controlType {
	case controlEdit:
		return accessibility.RoleTextField
	case controlDocument:
		return accessibility.RoleDocument
	case controlWindow:
		return accessibility.RoleWindow
	case 0:
		return accessibility.RoleUnknown
	}
	if name, ok := controlNames[controlType]; ok {
		return name
	}
	return fmt.Sprintf("control-%d", controlType)
}

// errFor maps a failed HRESULT onto the accessibility sentinels. Success
// codes, S_FALSE included, map to nil.
func errFor(hr uint32, what string) error {
	if hr&0x80000000 == 0 {
		return nil
	}
	var base error
	switch hr {
	case hrAccessDenied:
		base = accessibility.ErrPermissionDenied
	case hrTimeout:
		base = accessibility.ErrTimeout
	case hrElementNotAvailable, hrElementNotEnabled, hrNoClickablePoint:
		base = accessibility.ErrNotFound
	case hrNotSupported, hrNoInterface, hrInvalidOperation:
		base = accessibility.ErrAttributeUnsupported
	default:
		return fmt.Errorf("%s: HRESULT 0x%08X", what, hr)
	}
	return fmt.Errorf("%s: %w", what, base)
}

// paragraphContext prefers the paragraph around the selection and falls back
// to the whole document, as long as the text still contains the selection.
func paragraphContext(selection, paragraph, document string) (string, bool) {
	if selection == "" {
		if document != "" {
			return document, true
		}
		return "", false
	}
	for _, candidate := range []string{paragraph, document} {
		if candidate != "" && candidate != selection && strings.Contains(candidate, selection) {
			return candidate, true
		}
	}
	return "", false
}
