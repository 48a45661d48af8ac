package transcribe

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxkit/transcribestream/auth"
	"github.com/voxkit/transcribestream/eventstream"
	"github.com/voxkit/transcribestream/transport"
	"github.com/voxkit/transcribestream/transport/h2"
)

const (
	serviceName = "transcribe"
	requestPath = "/stream-transcription"

	defaultRegion = "us-east-1"
)

// Client starts transcription streams against one regional endpoint.
type Client struct {
	region      string
	endpoint    string
	credentials auth.CredentialProvider
	dialer      transport.Dialer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithRegion(region string) ClientOption {
	return func(c *Client) {
		c.region = region
	}
}

// WithEndpoint overrides the regional endpoint URL, for test servers
// and private deployments.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

func WithCredentialProvider(provider auth.CredentialProvider) ClientOption {
	return func(c *Client) {
		c.credentials = provider
	}
}

// WithDialer overrides the transport. The default is the HTTP/2
// dialer; pass a websocket.Dialer to stream over WebSocket.
func WithDialer(dialer transport.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// New builds a client. Credentials must be supplied through an option
// before streams can be started.
func New(opts ...ClientOption) *Client {
	c := &Client{region: defaultRegion}
	for _, opt := range opts {
		opt(c)
	}
	if c.endpoint == "" {
		c.endpoint = fmt.Sprintf("https://transcribestreaming.%s.amazonaws.com", c.region)
	}
	return c
}

// StartStreamTranscription performs the handshake and returns the live
// session. The caller owns the session and must Close it.
func (c *Client) StartStreamTranscription(ctx context.Context, opts ...StreamOption) (*Session, error) {
	cfg := &StreamConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if c.credentials == nil {
		return nil, &ConfigError{Message: "credential provider is required"}
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	ctx, span := tracer.Start(ctx, "transcribe.StartStreamTranscription",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("transcribe.language_code", cfg.LanguageCode),
			attribute.String("transcribe.media_encoding", cfg.MediaEncoding),
			attribute.Int("transcribe.sample_rate", cfg.MediaSampleRateHertz),
			attribute.String("transcribe.session_id", cfg.SessionID),
		),
	)
	defer span.End()

	dialer := c.dialer
	if dialer == nil {
		dialer = &h2.Dialer{
			ServiceName: serviceName,
			Region:      c.region,
			Credentials: c.credentials,
		}
	}

	resp, conn, err := dialer.Dial(ctx, &transport.Request{
		Endpoint: c.endpoint,
		Path:     requestPath,
		Headers:  cfg.requestHeaders(),
	})
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Err: err}
	}
	if conn == nil {
		err := parseHandshakeException(resp)
		span.RecordError(err)
		return nil, err
	}

	info, err := parseSessionInfo(cfg, resp.Headers)
	if err != nil {
		conn.Close()
		span.RecordError(err)
		return nil, err
	}
	logger.Debug("transcription stream established",
		"requestID", info.RequestID,
		"sessionID", info.SessionID,
	)

	return &Session{
		Info: info,
		audio: &AudioStream{
			conn: conn,
			signer: &eventstream.Signer{
				SigningName: serviceName,
				Region:      c.region,
			},
			creds:          c.credentials,
			priorSignature: resp.Signature,
		},
		transcript: &TranscriptResultStream{conn: conn},
		conn:       conn,
	}, nil
}
