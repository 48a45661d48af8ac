// Package websocket dials the streaming service over a WebSocket,
// authenticating the handshake with a presigned URL.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxkit/transcribestream/auth"
	"github.com/voxkit/transcribestream/transport"
)

const defaultPresignExpiry = 5 * time.Minute

// Dialer establishes WebSocket streaming connections. The handshake
// carries the operation parameters as presigned query parameters, since
// browsers and the service's WebSocket endpoint do not accept custom
// headers.
type Dialer struct {
	ServiceName string
	Region      string
	Credentials auth.CredentialProvider

	// HandshakeTimeout bounds the WebSocket upgrade. Zero means the
	// underlying dialer's default.
	HandshakeTimeout time.Duration

	// Now overrides the presigning clock, for tests.
	Now func() time.Time
}

func (d *Dialer) Dial(ctx context.Context, req *transport.Request) (*transport.Response, transport.Connection, error) {
	creds, err := d.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve credentials: %w", err)
	}

	u, err := url.Parse(req.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = req.Path

	query := u.Query()
	for name, value := range req.Headers {
		query.Set(name, value)
	}
	u.RawQuery = query.Encode()

	signer := &auth.SigV4Signer{ServiceName: d.ServiceName, Region: d.Region, Now: d.Now}
	signed, signature, err := signer.PresignURL(http.MethodGet, u, defaultPresignExpiry, creds)
	if err != nil {
		return nil, nil, fmt.Errorf("presign handshake: %w", err)
	}

	wsDialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	ws, resp, err := wsDialer.DialContext(ctx, signed.String(), nil)
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			return &transport.Response{
				StatusCode: resp.StatusCode,
				Headers:    flattenHeaders(resp.Header),
				Body:       body,
			}, nil, nil
		}
		return nil, nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}

	return &transport.Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Signature:  signature,
	}, &conn{ws: ws}, nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name := range h {
		out[name] = h.Get(name)
	}
	return out
}

// conn adapts a WebSocket to the byte-stream Connection interface.
// Each Write becomes one binary message; Read concatenates incoming
// binary messages.
type conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	current io.Reader
}

func (c *conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *conn) Read(p []byte) (int, error) {
	for {
		if c.current == nil {
			messageType, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					return 0, io.EOF
				}
				return 0, err
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			c.current = r
		}
		n, err := c.current.Read(p)
		if errors.Is(err, io.EOF) {
			c.current = nil
			if n == 0 {
				continue
			}
			return n, nil
		}
		return n, err
	}
}

// CloseWrite sends a close control frame, telling the service no more
// audio is coming while leaving the read side open for remaining
// transcripts.
func (c *conn) CloseWrite() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(5 * time.Second)
	return c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func (c *conn) Close() error {
	return c.ws.Close()
}
