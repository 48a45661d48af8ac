// Package h2 dials the streaming service over a single duplex HTTP/2
// request, with the audio frames as the request body and the transcript
// frames as the response body.
package h2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/voxkit/transcribestream/auth"
	"github.com/voxkit/transcribestream/transport"
)

const eventStreamContentType = "application/vnd.amazon.eventstream"

// Dialer establishes HTTP/2 streaming connections, signing the
// handshake request headers with SigV4.
type Dialer struct {
	ServiceName string
	Region      string
	Credentials auth.CredentialProvider

	// HTTPClient overrides the default instrumented client. It must
	// support full-duplex streaming request bodies.
	HTTPClient *http.Client

	// Now overrides the signing clock, for tests.
	Now func() time.Time
}

func (d *Dialer) client() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

func (d *Dialer) Dial(ctx context.Context, req *transport.Request) (*transport.Response, transport.Connection, error) {
	creds, err := d.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve credentials: %w", err)
	}

	pr, pw := io.Pipe()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint+req.Path, pr)
	if err != nil {
		pw.Close()
		return nil, nil, fmt.Errorf("build handshake request: %w", err)
	}
	httpReq.ContentLength = -1
	httpReq.Header.Set("Content-Type", eventStreamContentType)
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	signer := &auth.SigV4Signer{ServiceName: d.ServiceName, Region: d.Region, Now: d.Now}
	signature, err := signer.Sign(httpReq, creds)
	if err != nil {
		pw.Close()
		return nil, nil, fmt.Errorf("sign handshake: %w", err)
	}

	resp, err := d.client().Do(httpReq)
	if err != nil {
		pw.Close()
		return nil, nil, fmt.Errorf("dial %s: %w", req.Endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		pw.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &transport.Response{
			StatusCode: resp.StatusCode,
			Headers:    flattenHeaders(resp.Header),
			Body:       body,
		}, nil, nil
	}

	return &transport.Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Signature:  signature,
	}, &conn{pw: pw, body: resp.Body}, nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name := range h {
		out[name] = h.Get(name)
	}
	return out
}

// conn pairs the request body writer with the response body reader.
type conn struct {
	pw   *io.PipeWriter
	body io.ReadCloser

	closeOnce sync.Once
	closeErr  error
}

func (c *conn) Write(p []byte) (int, error) {
	return c.pw.Write(p)
}

func (c *conn) Read(p []byte) (int, error) {
	return c.body.Read(p)
}

// CloseWrite ends the request body, signalling end-of-input while the
// response keeps streaming.
func (c *conn) CloseWrite() error {
	return c.pw.Close()
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		c.pw.Close()
		c.closeErr = c.body.Close()
	})
	return c.closeErr
}
