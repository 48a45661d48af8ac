package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/voxkit/transcribestream/auth"
	"github.com/voxkit/transcribestream/eventstream"
	"github.com/voxkit/transcribestream/transport"
)

// AudioStream is the input side of a session. Audio chunks are framed,
// signed against the previous event's signature, and written in call
// order. Safe for use from one producing goroutine; concurrent Send
// calls are serialized but their relative order is then unspecified.
type AudioStream struct {
	conn   transport.Connection
	signer *eventstream.Signer
	creds  auth.CredentialProvider

	mu             sync.Mutex
	priorSignature []byte
	closed         bool

	endOnce sync.Once
	endErr  error
}

// Send writes one audio chunk. Empty chunks are skipped, since an
// empty audio event means end-of-stream on the wire.
func (s *AudioStream) Send(ctx context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	payload, err := eventstream.Encode(audioEventHeaders(), chunk)
	if err != nil {
		return fmt.Errorf("encode audio event: %w", err)
	}
	if err := s.writeEnvelope(ctx, payload); err != nil {
		return err
	}
	audioEventsSent.Add(ctx, 1)
	return nil
}

// EndStream tells the service no more audio is coming. The transcript
// stream keeps delivering results for audio already sent. Safe to call
// more than once.
func (s *AudioStream) EndStream(ctx context.Context) error {
	s.endOnce.Do(func() {
		err := s.writeEnvelope(ctx, nil)
		// Closed even when the end frame failed; Send must not succeed
		// after EndStream.
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		if err != nil {
			s.endErr = err
			return
		}
		if closer, ok := s.conn.(transport.WriteCloser); ok {
			s.endErr = closer.CloseWrite()
		}
	})
	return s.endErr
}

func (s *AudioStream) writeEnvelope(ctx context.Context, event []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	creds, err := s.creds.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieve credentials: %w", err)
	}
	headers, signature, err := s.signer.Sign(event, s.priorSignature, creds)
	if err != nil {
		return fmt.Errorf("sign event: %w", err)
	}
	envelope, err := eventstream.Encode(headers, event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if _, err := s.conn.Write(envelope); err != nil {
		return &TransportError{Err: err}
	}
	s.priorSignature = signature
	return nil
}

// TranscriptResultStream is the output side of a session. Next blocks
// for the following event; it is not safe for concurrent use.
type TranscriptResultStream struct {
	conn   io.Reader
	buffer eventstream.Buffer

	// err is sticky for errors that leave the byte stream unusable.
	err   error
	chunk [8192]byte
}

// Next returns the following event. It returns io.EOF after the
// service has delivered the final transcript and closed the stream. A
// *DecodeError return reports one undecodable event; calling Next
// again moves past it. Service exceptions and transport failures are
// terminal.
func (s *TranscriptResultStream) Next(ctx context.Context) (Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, err := s.buffer.Next()
		if err == nil {
			eventsReceived.Add(ctx, 1)
			event, err := parseEvent(msg)
			if err != nil {
				var decodeErr *DecodeError
				if errors.As(err, &decodeErr) {
					return nil, err
				}
				s.err = err
				return nil, err
			}
			return event, nil
		}
		if !errors.Is(err, eventstream.ErrIncompleteFrame) {
			s.err = err
			return nil, err
		}

		n, err := s.conn.Read(s.chunk[:])
		if n > 0 {
			s.buffer.Append(s.chunk[:n])
			continue
		}
		if errors.Is(err, io.EOF) {
			if s.buffer.Buffered() > 0 {
				s.err = eventstream.ErrPrematureEnd
			} else {
				s.err = io.EOF
			}
			return nil, s.err
		}
		if err != nil {
			s.err = &TransportError{Err: err}
			return nil, s.err
		}
	}
}

// Session is one live transcription stream.
type Session struct {
	Info *SessionInfo

	audio      *AudioStream
	transcript *TranscriptResultStream
	conn       transport.Connection
	closeOnce  sync.Once
	closeErr   error
}

// AudioStream returns the input side of the session.
func (s *Session) AudioStream() *AudioStream {
	return s.audio
}

// TranscriptResultStream returns the output side of the session.
func (s *Session) TranscriptResultStream() *TranscriptResultStream {
	return s.transcript
}

// Close tears the connection down. In-flight Send and Next calls
// unblock with transport errors. Close does not take the audio
// stream's lock, so it can interrupt a blocked writer.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
