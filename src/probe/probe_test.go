package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selection-context/src/accessibility"
	"selection-context/src/accessibility/axtest"
)

func TestSelectionWinsAndValueBecomesContext(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleTextArea, map[string]string{
		accessibility.AttrSelectedText: "book",
		accessibility.AttrValue:        "this is a book",
		accessibility.AttrTitle:        "Notes",
	})
	c := Classify(n, Strict)
	assert.Equal(t, "book", c.SelectedText)
	assert.Equal(t, "this is a book", c.Context)
	assert.Equal(t, accessibility.RoleTextArea, c.Role)
	assert.Equal(t, "Notes", c.Title)
	assert.NoError(t, c.Err)
}

func TestTitleIsNeverSelection(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleWindow, map[string]string{
		accessibility.AttrTitle:       "Untitled - Editor",
		accessibility.AttrDescription: "main window",
	}).Focused()
	for _, p := range []Policy{Strict, Application, Wide} {
		c := Classify(n, p)
		assert.False(t, c.HasSelection(), p.Name)
		assert.NotEqual(t, "Untitled - Editor", c.Context, p.Name)
	}
}

func TestValueEqualToSelectionIsNotContext(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleTextField, map[string]string{
		accessibility.AttrSelectedText: "book",
		accessibility.AttrValue:        "book",
	})
	c := Classify(n, Strict)
	assert.Equal(t, "book", c.SelectedText)
	assert.Empty(t, c.Context)
}

func TestFocusedValuePolicy(t *testing.T) {
	unfocused := axtest.NewNode(accessibility.RoleApplication, map[string]string{
		accessibility.AttrValue: "whole document",
	})
	c := Classify(unfocused, Application)
	assert.False(t, c.HasSelection(), "unfocused value is not a selection")
	assert.Equal(t, "whole document", c.Context)

	focused := axtest.NewNode(accessibility.RoleApplication, map[string]string{
		accessibility.AttrValue: "whole document",
	}).Focused()
	c = Classify(focused, Application)
	assert.Equal(t, "whole document", c.SelectedText)
	assert.Empty(t, c.Context)
	assert.True(t, c.Focused)

	c = Classify(focused, Strict)
	assert.False(t, c.HasSelection(), "strict policy never promotes the value")
	assert.Equal(t, "whole document", c.Context)
}

func TestWideNeverPromotesFocusedValue(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleTextArea, map[string]string{
		accessibility.AttrValue: "this is a book",
	}).Focused()
	c := Classify(n, Wide)
	assert.False(t, c.HasSelection())
	assert.Equal(t, "this is a book", c.Context)
	assert.True(t, c.Focused)
}

func TestStrictReadsDescriptionsWithoutUsingThem(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleTextField, map[string]string{
		accessibility.AttrHelp:        "type a title",
		accessibility.AttrDescription: "document title",
	}).Focused()
	c := Classify(n, Strict)
	assert.Equal(t, "type a title", c.Help)
	assert.Equal(t, "document title", c.Description)
	assert.False(t, c.HasSelection())
	assert.Empty(t, c.Context)

	c = Classify(n, Wide)
	assert.False(t, c.HasSelection())
	assert.Equal(t, "document title", c.Context)
}

func TestAttributeFailuresAreIsolated(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleTextArea, map[string]string{
		accessibility.AttrValue: "this is a book",
	})
	n.AttrErrs = map[string]error{
		accessibility.AttrSelectedText: axtest.ErrBroken,
		accessibility.AttrTitle:        accessibility.ErrTimeout,
	}
	c := Classify(n, Strict)
	assert.Equal(t, "this is a book", c.Context)
	assert.ErrorIs(t, c.Err, accessibility.ErrTimeout, "timeout outranks a generic failure")

	reads := n.Reads()
	for _, want := range []string{
		accessibility.AttrSelectedText,
		accessibility.AttrValue,
		accessibility.AttrTitle,
		accessibility.AttrHelp,
		accessibility.AttrDescription,
		accessibility.AttrCharacterCount,
		accessibility.AttrFocused,
	} {
		assert.Contains(t, reads, want)
	}
}

func TestPermissionDeniedIsMostSevere(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleTextArea, nil)
	n.AttrErrs = map[string]error{
		accessibility.AttrSelectedText: accessibility.ErrPermissionDenied,
		accessibility.AttrValue:        accessibility.ErrTimeout,
	}
	c := Classify(n, Strict)
	require.Error(t, c.Err)
	assert.ErrorIs(t, c.Err, accessibility.ErrPermissionDenied)
}

func TestAbsentAttributesAreNotErrors(t *testing.T) {
	c := Classify(axtest.NewNode("group", nil), Strict)
	assert.NoError(t, c.Err)
	assert.EqualValues(t, -1, c.CharacterCount)
}

func TestZeroCharacterCountDiscardsValue(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleTextField, map[string]string{
		accessibility.AttrValue: "Search",
	}).Focused()
	n.Attrs[accessibility.AttrCharacterCount] = accessibility.Int(0)
	c := Classify(n, Application)
	assert.False(t, c.HasSelection())
	assert.Empty(t, c.Context)
}

func TestWidePicksLongestContainingContext(t *testing.T) {
	n := axtest.NewNode(accessibility.RoleWebArea, map[string]string{
		accessibility.AttrSelectedText: "book",
		accessibility.AttrValue:        "a book",
		accessibility.AttrDescription:  "this is a book about go",
		accessibility.AttrHelp:         "unrelated and much longer help text here",
	})
	c := Classify(n, Wide)
	assert.Equal(t, "book", c.SelectedText)
	assert.Equal(t, "this is a book about go", c.Context)
}
