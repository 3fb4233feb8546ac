package atspi

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"selection-context/src/accessibility"
)

func TestRoleFor(t *testing.T) {
	assert.Equal(t, accessibility.RoleTextArea, roleFor("text"))
	assert.Equal(t, accessibility.RoleTextField, roleFor("entry"))
	assert.Equal(t, accessibility.RoleWebArea, roleFor("document web"))
	assert.Equal(t, accessibility.RoleWindow, roleFor("Frame"))
	assert.Equal(t, "push-button", roleFor("push button"))
	assert.Equal(t, accessibility.RoleUnknown, roleFor(""))
}

func TestHasState(t *testing.T) {
	set := []uint32{1<<stateFocused | 1<<stateActive, 0}
	assert.True(t, hasState(set, stateFocused))
	assert.True(t, hasState(set, stateActive))
	assert.False(t, hasState(set, 3))
	assert.False(t, hasState(set, 40))
	assert.False(t, hasState(nil, stateFocused))
}

func TestMapErr(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		want error
	}{
		{"org.freedesktop.DBus.Error.AccessDenied", accessibility.ErrPermissionDenied},
		{"org.freedesktop.DBus.Error.NoReply", accessibility.ErrTimeout},
		{"org.freedesktop.DBus.Error.UnknownMethod", accessibility.ErrAttributeUnsupported},
		{"org.freedesktop.DBus.Error.UnknownObject", accessibility.ErrNotFound},
	}
	for _, c := range cases {
		err := mapErr(ctx, "GetText", dbus.Error{Name: c.name})
		assert.ErrorIs(t, err, c.want, c.name)
	}

	assert.NoError(t, mapErr(ctx, "GetText", nil))

	expired, cancel := context.WithTimeout(ctx, 0)
	defer cancel()
	<-expired.Done()
	assert.ErrorIs(t, mapErr(expired, "GetText", errors.New("closed")), accessibility.ErrTimeout)

	err := mapErr(ctx, "GetText", dbus.Error{Name: "org.a11y.Weird", Body: []interface{}{"boom"}})
	assert.ErrorContains(t, err, "org.a11y.Weird")
	assert.NotErrorIs(t, err, accessibility.ErrTimeout)
}
