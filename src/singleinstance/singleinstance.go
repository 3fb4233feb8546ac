package singleinstance

// This file defines the API for the resident retrieval server and the
// one-shot clients that delegate to it.

import (
	"context"
	"fmt"
)

// Server owns the TCP endpoint and answers retrieval requests.
type Server interface {
	// Start begins listening on the first port of the range and accepting clients.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() Request
	// RespondSuccess sends a retrieval result.
	RespondSuccess(r Response) error
	// RespondError sends a classified failure.
	RespondError(kind, msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Request represents a single client request.
type Request struct {
	// ToClipboard asks the resident to put the selection on the clipboard
	// itself instead of returning it.
	ToClipboard bool
}

// Response is the wire form of a retrieval result or failure.
type Response struct {
	SelectedText string `json:"selected_text"`
	Context      string `json:"context,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RemoteError is a failure reported by the resident.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Client attempts to delegate one retrieval to a resident server.
type Client interface {
	// TryGet scans the port range, performs the handshake and delegates.
	// If no resident is found, returns delegated=false, err=nil.
	TryGet(ctx context.Context, req Request) (delegated bool, resp Response, err error)
}

// NewServer returns TCP implementation.
func NewServer(r PortRange) Server { return newTcpServer(r) }

// NewClient returns TCP implementation.
func NewClient(r PortRange) Client { return newTcpClient(r) }
