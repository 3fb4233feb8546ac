// Package atspi reads the accessibility tree over the AT-SPI D-Bus protocol.
package atspi

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"selection-context/src/accessibility"
	"selection-context/src/walker"
)

const (
	ifaceAccessible = "org.a11y.atspi.Accessible"
	ifaceText       = "org.a11y.atspi.Text"
	ifaceProps      = "org.freedesktop.DBus.Properties"

	registryName = "org.a11y.atspi.Registry"
	rootPath     = dbus.ObjectPath("/org/a11y/atspi/accessible/root")

	// maxApplications caps how many registered applications are scanned.
	maxApplications = 64
)

const DefaultCallTimeout = 500 * time.Millisecond

// Provider opens AT-SPI sessions on the accessibility bus.
type Provider struct {
	CallTimeout time.Duration
	// Bounds limits the search for the focused element under the active frame.
	Bounds walker.Bounds
}

func New(callTimeout time.Duration, b walker.Bounds) *Provider {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Provider{CallTimeout: callTimeout, Bounds: b.Normalize()}
}

func (p *Provider) Name() string { return "at-spi" }

// Trusted is always true: AT-SPI has no per-process grant. A disabled bus is
// reported by Open as unsupported.
func (p *Provider) Trusted() bool { return true }

// Open connects to the accessibility bus advertised on the session bus.
func (p *Provider) Open(ctx context.Context) (accessibility.Session, error) {
	sessionBus, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: session bus: %v", accessibility.ErrUnsupported, err)
	}
	defer sessionBus.Close()

	cctx, cancel := context.WithTimeout(ctx, p.CallTimeout)
	defer cancel()
	bus := sessionBus.Object("org.a11y.Bus", "/org/a11y/bus")

	var enabled dbus.Variant
	if err := bus.CallWithContext(cctx, ifaceProps+".Get", 0, "org.a11y.Status", "IsEnabled").Store(&enabled); err != nil {
		return nil, mapErr(cctx, "IsEnabled", err)
	}
	if on, ok := enabled.Value().(bool); ok && !on {
		return nil, fmt.Errorf("%w: AT-SPI is disabled", accessibility.ErrUnsupported)
	}

	var addr string
	if err := bus.CallWithContext(cctx, "org.a11y.Bus.GetAddress", 0).Store(&addr); err != nil {
		return nil, mapErr(cctx, "GetAddress", err)
	}
	conn, err := dbus.Connect(addr, dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect accessibility bus: %w", err)
	}
	return &session{ctx: ctx, conn: conn, timeout: p.CallTimeout, bounds: p.Bounds}, nil
}

// ref is an AT-SPI object reference, D-Bus signature (so).
type ref struct {
	Name string
	Path dbus.ObjectPath
}

type session struct {
	ctx     context.Context
	conn    *dbus.Conn
	timeout time.Duration
	bounds  walker.Bounds
}

func (s *session) call(r ref, method string, args []interface{}, out ...interface{}) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	c := s.conn.Object(r.Name, r.Path).CallWithContext(ctx, method, 0, args...)
	if c.Err != nil {
		return mapErr(ctx, method, c.Err)
	}
	if len(out) == 0 {
		return nil
	}
	if err := c.Store(out...); err != nil {
		return fmt.Errorf("%s: decode reply: %w", method, err)
	}
	return nil
}

func (s *session) property(r ref, iface, name string, out interface{}) error {
	var v dbus.Variant
	if err := s.call(r, ifaceProps+".Get", []interface{}{iface, name}, &v); err != nil {
		return err
	}
	if err := dbus.Store([]interface{}{v.Value()}, out); err != nil {
		return fmt.Errorf("%s.%s: %w", iface, name, err)
	}
	return nil
}

func (s *session) children(r ref, limit int) ([]ref, error) {
	var count int32
	if err := s.property(r, ifaceAccessible, "ChildCount", &count); err != nil {
		return nil, err
	}
	n := int(count)
	if limit < n {
		n = limit
	}
	out := make([]ref, 0, n)
	for i := 0; i < n; i++ {
		var child ref
		if err := s.call(r, ifaceAccessible+".GetChildAtIndex", []interface{}{int32(i)}, &child); err != nil {
			return out, err
		}
		if child.Path == "" || child.Path == "/org/a11y/atspi/null" {
			continue
		}
		out = append(out, child)
	}
	return out, nil
}

func (s *session) state(r ref) ([]uint32, error) {
	var set []uint32
	err := s.call(r, ifaceAccessible+".GetState", nil, &set)
	return set, err
}

func (s *session) applications() ([]ref, error) {
	return s.children(ref{Name: registryName, Path: rootPath}, maxApplications)
}

// FocusedNode finds the active frame among registered applications and
// searches it, within bounds, for the element holding keyboard focus.
func (s *session) FocusedNode() (accessibility.Node, error) {
	apps, err := s.applications()
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		frames, err := s.children(app, s.bounds.MaxChildren)
		if err != nil {
			continue
		}
		for _, f := range frames {
			set, err := s.state(f)
			if err != nil || !hasState(set, stateActive) {
				continue
			}
			for c := range walker.Walk(s.ctx, &node{s: s, ref: f}, s.bounds) {
				n := c.Node.(*node)
				if set, err := s.state(n.ref); err == nil && hasState(set, stateFocused) {
					return n, nil
				}
			}
		}
	}
	return nil, accessibility.ErrNoFocus
}

// ApplicationNode matches registered applications by the pid owning their
// bus name.
func (s *session) ApplicationNode(pid int) (accessibility.Node, error) {
	apps, err := s.applications()
	if err != nil {
		return nil, err
	}
	dbusRef := ref{Name: "org.freedesktop.DBus", Path: "/org/freedesktop/DBus"}
	for _, app := range apps {
		var owner uint32
		if err := s.call(dbusRef, "org.freedesktop.DBus.GetConnectionUnixProcessID", []interface{}{app.Name}, &owner); err != nil {
			continue
		}
		if int(owner) == pid {
			return &node{s: s, ref: app}, nil
		}
	}
	return nil, fmt.Errorf("%w: no AT-SPI application for pid %d", accessibility.ErrNotFound, pid)
}

func (s *session) Close() error { return s.conn.Close() }

type node struct {
	s    *session
	ref  ref
	role string
}

func (n *node) Role() string {
	if n.role == "" {
		var name string
		if err := n.s.call(n.ref, ifaceAccessible+".GetRoleName", nil, &name); err != nil {
			return accessibility.RoleUnknown
		}
		n.role = roleFor(name)
	}
	return n.role
}

func (n *node) Children(limit int) ([]accessibility.Node, error) {
	refs, err := n.s.children(n.ref, limit)
	out := make([]accessibility.Node, len(refs))
	for i, r := range refs {
		out[i] = &node{s: n.s, ref: r}
	}
	if err != nil && len(out) == 0 {
		return nil, err
	}
	return out, nil
}

func (n *node) Attribute(name string) (accessibility.Value, error) {
	switch name {
	case accessibility.AttrSelectedText:
		return n.selectedText()
	case accessibility.AttrValue:
		return n.text()
	case accessibility.AttrTitle:
		return n.stringProperty(ifaceAccessible, "Name")
	case accessibility.AttrDescription:
		return n.stringProperty(ifaceAccessible, "Description")
	case accessibility.AttrHelp:
		return n.stringProperty(ifaceAccessible, "HelpText")
	case accessibility.AttrCharacterCount:
		var count int32
		if err := n.s.property(n.ref, ifaceText, "CharacterCount", &count); err != nil {
			return accessibility.Value{}, err
		}
		return accessibility.Int(int64(count)), nil
	case accessibility.AttrFocused:
		set, err := n.s.state(n.ref)
		if err != nil {
			return accessibility.Value{}, err
		}
		return accessibility.Bool(hasState(set, stateFocused)), nil
	case accessibility.AttrPlaceholder:
		return n.objectAttribute("placeholder-text")
	default:
		return accessibility.Value{}, accessibility.ErrAttributeUnsupported
	}
}

func (n *node) selectedText() (accessibility.Value, error) {
	var count int32
	if err := n.s.call(n.ref, ifaceText+".GetNSelections", nil, &count); err != nil {
		return accessibility.Value{}, err
	}
	if count == 0 {
		return accessibility.Value{}, accessibility.ErrNoValue
	}
	var start, end int32
	if err := n.s.call(n.ref, ifaceText+".GetSelection", []interface{}{int32(0)}, &start, &end); err != nil {
		return accessibility.Value{}, err
	}
	if start == end {
		return accessibility.Value{}, accessibility.ErrNoValue
	}
	var s string
	if err := n.s.call(n.ref, ifaceText+".GetText", []interface{}{start, end}, &s); err != nil {
		return accessibility.Value{}, err
	}
	return accessibility.String(s), nil
}

func (n *node) text() (accessibility.Value, error) {
	var s string
	if err := n.s.call(n.ref, ifaceText+".GetText", []interface{}{int32(0), int32(-1)}, &s); err != nil {
		return accessibility.Value{}, err
	}
	return accessibility.String(s), nil
}

func (n *node) stringProperty(iface, name string) (accessibility.Value, error) {
	var s string
	if err := n.s.property(n.ref, iface, name, &s); err != nil {
		return accessibility.Value{}, err
	}
	if s == "" {
		return accessibility.Value{}, accessibility.ErrNoValue
	}
	return accessibility.String(s), nil
}

func (n *node) objectAttribute(key string) (accessibility.Value, error) {
	var attrs map[string]string
	if err := n.s.call(n.ref, ifaceAccessible+".GetAttributes", nil, &attrs); err != nil {
		return accessibility.Value{}, err
	}
	v, ok := attrs[key]
	if !ok {
		return accessibility.Value{}, accessibility.ErrNoValue
	}
	return accessibility.String(v), nil
}

