// Package transport defines the duplex connection abstraction the
// streaming client runs over, with WebSocket and HTTP/2 dialers in
// subpackages.
package transport

import (
	"context"
	"io"
)

// Connection is an established duplex byte stream. Reads return the
// service's event frames; writes carry signed audio event frames.
// Implementations must support concurrent use of Read and Write from
// different goroutines.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// WriteCloser is implemented by connections that can signal
// end-of-input to the peer while continuing to read.
type WriteCloser interface {
	CloseWrite() error
}

// Request describes the stream handshake.
type Request struct {
	// Endpoint is the service base URL, e.g. "https://host".
	Endpoint string
	// Path is the request path for the streaming operation.
	Path string
	// Headers carries the operation parameters. Dialers translate them
	// into whatever the underlying protocol's handshake supports.
	Headers map[string]string
}

// Response is the handshake outcome. On a rejected handshake the
// dialer returns a Response with the error status and body and a nil
// connection.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte

	// Signature is the raw handshake signature, seeding the per-event
	// signature chain.
	Signature []byte
}

// Dialer establishes a streaming connection.
type Dialer interface {
	Dial(ctx context.Context, req *Request) (*Response, Connection, error)
}
