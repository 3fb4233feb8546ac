// Package axtest provides in-memory accessibility trees for tests.
package axtest

import (
	"context"
	"errors"
	"sync"

	"selection-context/src/accessibility"
)

// Node is a scripted accessibility node.
type Node struct {
	RoleName string
	Attrs    map[string]accessibility.Value
	// AttrErrs makes individual attribute reads fail.
	AttrErrs    map[string]error
	Kids        []*Node
	ChildrenErr error

	mu        sync.Mutex
	reads     []string
	listCalls int
}

// NewNode builds a node with string attributes.
func NewNode(role string, attrs map[string]string, kids ...*Node) *Node {
	n := &Node{RoleName: role, Attrs: map[string]accessibility.Value{}, Kids: kids}
	for k, v := range attrs {
		n.Attrs[k] = accessibility.String(v)
	}
	return n
}

// Focused marks the node as focused and returns it.
func (n *Node) Focused() *Node {
	n.Attrs[accessibility.AttrFocused] = accessibility.Bool(true)
	return n
}

func (n *Node) Role() string {
	if n.RoleName == "" {
		return accessibility.RoleUnknown
	}
	return n.RoleName
}

func (n *Node) Attribute(name string) (accessibility.Value, error) {
	n.mu.Lock()
	n.reads = append(n.reads, name)
	n.mu.Unlock()
	if err, ok := n.AttrErrs[name]; ok {
		return accessibility.Value{}, err
	}
	v, ok := n.Attrs[name]
	if !ok {
		return accessibility.Value{}, accessibility.ErrNoValue
	}
	return v, nil
}

func (n *Node) Children(limit int) ([]accessibility.Node, error) {
	n.mu.Lock()
	n.listCalls++
	n.mu.Unlock()
	if n.ChildrenErr != nil {
		return nil, n.ChildrenErr
	}
	out := make([]accessibility.Node, 0, len(n.Kids))
	for _, k := range n.Kids {
		if len(out) == limit {
			break
		}
		out = append(out, k)
	}
	return out, nil
}

// Reads returns the attribute names read so far, in order.
func (n *Node) Reads() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.reads...)
}

// Infinite is a node whose every child is itself, with fanout children.
type Infinite struct {
	Fanout int
}

func (Infinite) Role() string { return "group" }

func (Infinite) Attribute(string) (accessibility.Value, error) {
	return accessibility.Value{}, accessibility.ErrNoValue
}

func (i Infinite) Children(limit int) ([]accessibility.Node, error) {
	n := i.Fanout
	if limit < n {
		n = limit
	}
	out := make([]accessibility.Node, n)
	for k := range out {
		out[k] = i
	}
	return out, nil
}

// Provider serves fixed nodes.
type Provider struct {
	Focus    *Node
	Apps     map[int]*Node
	Denied   bool
	OpenErr  error
	FocusErr error

	mu     sync.Mutex
	opened int
	closed int
}

func (p *Provider) Name() string  { return "axtest" }
func (p *Provider) Trusted() bool { return !p.Denied }

func (p *Provider) Open(context.Context) (accessibility.Session, error) {
	if p.OpenErr != nil {
		return nil, p.OpenErr
	}
	if p.Denied {
		return nil, accessibility.ErrPermissionDenied
	}
	p.mu.Lock()
	p.opened++
	p.mu.Unlock()
	return &session{p: p}, nil
}

// Sessions reports how many sessions were opened and closed.
func (p *Provider) Sessions() (opened, closed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened, p.closed
}

type session struct{ p *Provider }

func (s *session) FocusedNode() (accessibility.Node, error) {
	if s.p.FocusErr != nil {
		return nil, s.p.FocusErr
	}
	if s.p.Focus == nil {
		return nil, accessibility.ErrNoFocus
	}
	return s.p.Focus, nil
}

func (s *session) ApplicationNode(pid int) (accessibility.Node, error) {
	if n, ok := s.p.Apps[pid]; ok {
		return n, nil
	}
	return nil, accessibility.ErrNotFound
}

func (s *session) Close() error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.closed++
	return nil
}

// ErrBroken is a generic platform failure for scripted nodes.
var ErrBroken = errors.New("axtest: broken element")
