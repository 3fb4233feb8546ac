// Package probe classifies a single accessibility node: does it hold the
// user's selection, or the text surrounding it?
package probe

import (
	"errors"
	"strings"

	"selection-context/src/accessibility"
)

// Policy decides which attributes are read and how they are interpreted.
type Policy struct {
	Name string
	// SelectionAttributes are the only attributes ever accepted as the selection.
	SelectionAttributes []string
	// ContextAttributes are candidates for the surrounding text, in priority order.
	ContextAttributes []string
	// LongestContext picks the longest usable context instead of the first.
	LongestContext bool
	// DescriptionsAsContext lets help and description text compete as context.
	DescriptionsAsContext bool
	// AcceptFocusedValue lets a focused node's value stand in for the selection
	// when no selection attribute is present. Only valid for application
	// elements: a focused text field's value is its whole content.
	AcceptFocusedValue bool
}

// Strict reads the selection and value attributes only.
var Strict = Policy{
	Name:                "strict",
	SelectionAttributes: []string{accessibility.AttrSelectedText},
	ContextAttributes:   []string{accessibility.AttrValue},
}

// Application is Strict plus the focused-value rule used when reading an
// application element directly.
var Application = Policy{
	Name:                "application",
	SelectionAttributes: []string{accessibility.AttrSelectedText},
	ContextAttributes:   []string{accessibility.AttrValue},
	AcceptFocusedValue:  true,
}

// Wide is the less strict list used once the strict strategies came up empty.
// It never promotes a value to the selection.
var Wide = Policy{
	Name:                "wide",
	SelectionAttributes: []string{accessibility.AttrSelectedText},
	ContextAttributes: []string{
		accessibility.AttrValue,
		accessibility.AttrDocument,
		accessibility.AttrValueDescription,
		accessibility.AttrLabel,
		accessibility.AttrPlaceholder,
	},
	LongestContext:        true,
	DescriptionsAsContext: true,
}

// Classification is what a node looks like to the engine.
type Classification struct {
	SelectedText string
	Context      string
	Focused      bool
	Role         string
	// Title, Help and Description are kept for diagnostics and never become
	// the selection.
	Title       string
	Help        string
	Description string
	// CharacterCount is -1 when the platform did not report it.
	CharacterCount int64
	// Err is the most severe attribute failure, if any attribute failed
	// with something other than "absent".
	Err error
}

// HasSelection reports whether the node is a selection candidate.
func (c Classification) HasSelection() bool { return c.SelectedText != "" }

// Classify reads the policy's attributes plus title, help, description,
// character count and the focused flag. Every read is independent; one failure never stops the others.
func Classify(n accessibility.Node, p Policy) Classification {
	c := Classification{Role: n.Role(), CharacterCount: -1}
	read := func(name string) (accessibility.Value, bool) {
		v, err := n.Attribute(name)
		if err != nil {
			c.Err = worse(c.Err, err)
			return accessibility.Value{}, false
		}
		return v, true
	}

	for _, name := range p.SelectionAttributes {
		if v, ok := read(name); ok {
			if s, ok := v.NonEmptyText(); ok {
				c.SelectedText = s
				break
			}
		}
	}

	type text struct{ attr, s string }
	var found []text
	for _, name := range p.ContextAttributes {
		v, ok := read(name)
		if !ok {
			continue
		}
		if s, ok := v.NonEmptyText(); ok {
			found = append(found, text{attr: name, s: s})
		}
	}

	if v, ok := read(accessibility.AttrTitle); ok {
		c.Title, _ = v.Text()
	}
	if v, ok := read(accessibility.AttrHelp); ok {
		c.Help, _ = v.Text()
	}
	if v, ok := read(accessibility.AttrDescription); ok {
		c.Description, _ = v.Text()
	}
	if p.DescriptionsAsContext {
		for _, t := range []text{{accessibility.AttrDescription, c.Description}, {accessibility.AttrHelp, c.Help}} {
			if strings.TrimSpace(t.s) != "" {
				found = append(found, t)
			}
		}
	}
	if v, ok := read(accessibility.AttrCharacterCount); ok {
		if n, ok := v.Number(); ok {
			c.CharacterCount = n
		}
	}
	if v, ok := read(accessibility.AttrFocused); ok {
		c.Focused, _ = v.Truth()
	}

	value := ""
	contexts := make([]string, 0, len(found))
	for _, t := range found {
		// A node reporting zero characters has no usable value whatever it returns.
		if t.attr == accessibility.AttrValue {
			if c.CharacterCount == 0 {
				continue
			}
			value = t.s
		}
		contexts = append(contexts, t.s)
	}

	if c.SelectedText == "" && p.AcceptFocusedValue && c.Focused && value != "" {
		c.SelectedText = value
		return c
	}

	c.Context = pickContext(contexts, c.SelectedText, p.LongestContext)
	return c
}

func pickContext(candidates []string, selection string, longest bool) string {
	best := ""
	for _, s := range candidates {
		if s == selection {
			continue
		}
		if selection != "" && !strings.Contains(s, selection) {
			continue
		}
		if !longest {
			return s
		}
		if len(s) > len(best) {
			best = s
		}
	}
	return best
}

// worse keeps the more severe of two attribute errors. Absent values and
// unsupported attributes are expected and rank lowest.
func worse(cur, next error) error {
	if severity(next) > severity(cur) {
		return next
	}
	return cur
}

func severity(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, accessibility.ErrNoValue), errors.Is(err, accessibility.ErrAttributeUnsupported):
		return 0
	case errors.Is(err, accessibility.ErrPermissionDenied):
		return 3
	case errors.Is(err, accessibility.ErrTimeout):
		return 2
	default:
		return 1
	}
}
