// Package accessibility defines the capability set the selection engine uses to
// read a platform's accessibility tree. Each platform family provides one
// Provider; nodes are borrowed from a Session and must not outlive it.
package accessibility

import (
	"context"
	"errors"
)

// Canonical attribute names. Providers translate them to native names.
const (
	AttrSelectedText     = "selected-text"
	AttrValue            = "value"
	AttrTitle            = "title"
	AttrHelp             = "help"
	AttrDescription      = "description"
	AttrCharacterCount   = "character-count"
	AttrFocused          = "focused"
	AttrPlaceholder      = "placeholder"
	AttrLabel            = "label"
	AttrDocument         = "document"
	AttrValueDescription = "value-description"
)

// Canonical roles. Anything else is reported as the platform's lower-cased role.
const (
	RoleTextArea    = "text-area"
	RoleTextField   = "text-field"
	RoleWebArea     = "web-area"
	RoleDocument    = "document"
	RoleApplication = "application"
	RoleWindow      = "window"
	RoleUnknown     = "unknown"
)

var (
	ErrPermissionDenied     = errors.New("accessibility permission denied")
	ErrTimeout              = errors.New("accessibility call timed out")
	ErrNoFocus              = errors.New("no focused element")
	ErrNotFound             = errors.New("element not found")
	ErrNoValue              = errors.New("attribute has no value")
	ErrAttributeUnsupported = errors.New("attribute not supported")
	ErrUnsupported          = errors.New("accessibility not supported on this platform")
)

// Node is a borrowed handle to one element of the accessibility tree.
type Node interface {
	// Role returns the canonical role, or RoleUnknown when it cannot be read.
	Role() string
	// Attribute reads one attribute. Reads are independent: a failure here
	// says nothing about other attributes of the same node.
	Attribute(name string) (Value, error)
	// Children returns at most limit children. An error means the children
	// cannot be enumerated; callers treat the node as a leaf.
	Children(limit int) ([]Node, error)
}

// Session scopes native references to a single retrieval.
type Session interface {
	FocusedNode() (Node, error)
	ApplicationNode(pid int) (Node, error)
	// Close releases every node handed out by the session.
	Close() error
}

// Provider opens sessions against one platform's accessibility API.
type Provider interface {
	Name() string
	// Trusted reports whether the process currently holds accessibility access.
	Trusted() bool
	Open(ctx context.Context) (Session, error)
}

// Unsupported is the provider for platforms without an accessibility backend.
type Unsupported struct{}

func (Unsupported) Name() string  { return "none" }
func (Unsupported) Trusted() bool { return true }

func (Unsupported) Open(context.Context) (Session, error) {
	return nil, ErrUnsupported
}
