package atspi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"selection-context/src/accessibility"
)

// mapErr converts a failed D-Bus call into the accessibility error set.
func mapErr(ctx context.Context, method string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", method, accessibility.ErrTimeout)
	}
	var de dbus.Error
	if !errors.As(err, &de) {
		var pde *dbus.Error
		if !errors.As(err, &pde) {
			return fmt.Errorf("%s: %w", method, err)
		}
		de = *pde
	}
	switch de.Name {
	case "org.freedesktop.DBus.Error.AccessDenied", "org.freedesktop.DBus.Error.AuthFailed":
		return fmt.Errorf("%s: %w", method, accessibility.ErrPermissionDenied)
	case "org.freedesktop.DBus.Error.NoReply", "org.freedesktop.DBus.Error.Timeout", "org.freedesktop.DBus.Error.TimedOut":
		return fmt.Errorf("%s: %w", method, accessibility.ErrTimeout)
	case "org.freedesktop.DBus.Error.UnknownMethod",
		"org.freedesktop.DBus.Error.UnknownInterface",
		"org.freedesktop.DBus.Error.UnknownProperty",
		"org.freedesktop.DBus.Error.InvalidArgs":
		return fmt.Errorf("%s: %w", method, accessibility.ErrAttributeUnsupported)
	case "org.freedesktop.DBus.Error.UnknownObject",
		"org.freedesktop.DBus.Error.ServiceUnknown",
		"org.freedesktop.DBus.Error.NameHasNoOwner":
		return fmt.Errorf("%s: %w", method, accessibility.ErrNotFound)
	}
	return fmt.Errorf("%s: %s: %s", method, de.Name, strings.TrimSpace(fmt.Sprint(de.Body...)))
}
