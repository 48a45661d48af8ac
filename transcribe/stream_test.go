package transcribe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/voxkit/transcribestream/auth"
	"github.com/voxkit/transcribestream/eventstream"
)

var streamCreds = auth.StaticCredentialProvider{Credentials: auth.Credentials{
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "secret",
}}

func fixedSigner() *eventstream.Signer {
	return &eventstream.Signer{
		SigningName: "transcribe",
		Region:      "us-east-1",
		Now:         func() time.Time { return time.Date(2020, 7, 23, 22, 39, 55, 0, time.UTC) },
	}
}

type fakeConn struct {
	reader io.Reader

	mu          sync.Mutex
	writes      bytes.Buffer
	closed      int
	writeClosed int
}

func (c *fakeConn) Read(p []byte) (int, error) {
	if c.reader == nil {
		return 0, io.EOF
	}
	return c.reader.Read(p)
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) CloseWrite() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeClosed++
	return nil
}

func (c *fakeConn) written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte{}, c.writes.Bytes()...)
}

func decodeEnvelopes(t *testing.T, wire []byte) []*eventstream.Message {
	t.Helper()
	var buf eventstream.Buffer
	buf.Append(wire)
	var envelopes []*eventstream.Message
	for {
		msg, err := buf.Next()
		if errors.Is(err, eventstream.ErrIncompleteFrame) {
			break
		}
		if err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		envelopes = append(envelopes, msg)
	}
	if buf.Buffered() != 0 {
		t.Fatalf("%d trailing bytes on the wire", buf.Buffered())
	}
	return envelopes
}

func TestAudioStreamSendsSignedEnvelopes(t *testing.T) {
	conn := &fakeConn{}
	stream := &AudioStream{
		conn:           conn,
		signer:         fixedSigner(),
		creds:          streamCreds,
		priorSignature: []byte("seed"),
	}
	ctx := context.Background()

	for _, chunk := range []string{"chunk a", "chunk b", "chunk c"} {
		if err := stream.Send(ctx, []byte(chunk)); err != nil {
			t.Fatalf("Send(%q) error: %v", chunk, err)
		}
	}
	if err := stream.EndStream(ctx); err != nil {
		t.Fatalf("EndStream() error: %v", err)
	}

	envelopes := decodeEnvelopes(t, conn.written())
	if len(envelopes) != 4 {
		t.Fatalf("len(envelopes) = %d, want 3 audio + 1 end", len(envelopes))
	}

	// Recompute the chain independently and check every envelope.
	shadow := fixedSigner()
	creds, _ := streamCreds.Retrieve(ctx)
	prior := []byte("seed")
	for i, envelope := range envelopes {
		if _, ok := envelope.Headers.Get(":date"); !ok {
			t.Fatalf("envelope %d missing :date", i)
		}
		sig, ok := envelope.Headers.Get(":chunk-signature")
		if !ok {
			t.Fatalf("envelope %d missing :chunk-signature", i)
		}
		_, want, err := shadow.Sign(envelope.Payload, prior, creds)
		if err != nil {
			t.Fatalf("shadow sign: %v", err)
		}
		if !bytes.Equal([]byte(sig.(eventstream.BytesValue)), want) {
			t.Fatalf("envelope %d signature does not continue the chain", i)
		}
		prior = want
	}

	for i, want := range []string{"chunk a", "chunk b", "chunk c"} {
		var inner eventstream.Buffer
		inner.Append(envelopes[i].Payload)
		msg, err := inner.Next()
		if err != nil {
			t.Fatalf("decode inner frame %d: %v", i, err)
		}
		if got, _ := msg.Headers.GetString(headerMessageType); got != messageTypeEvent {
			t.Fatalf("inner frame %d message type = %q", i, got)
		}
		if got, _ := msg.Headers.GetString(headerEventType); got != eventTypeAudio {
			t.Fatalf("inner frame %d event type = %q", i, got)
		}
		if got, _ := msg.Headers.GetString(headerContentType); got != octetStreamContentType {
			t.Fatalf("inner frame %d content type = %q", i, got)
		}
		if string(msg.Payload) != want {
			t.Fatalf("inner frame %d payload = %q, want %q", i, msg.Payload, want)
		}
	}

	if len(envelopes[3].Payload) != 0 {
		t.Fatalf("end-of-stream envelope payload = %q, want empty", envelopes[3].Payload)
	}
	if conn.writeClosed != 1 {
		t.Fatalf("CloseWrite calls = %d, want 1", conn.writeClosed)
	}
}

func TestAudioStreamEndIsIdempotent(t *testing.T) {
	conn := &fakeConn{}
	stream := &AudioStream{conn: conn, signer: fixedSigner(), creds: streamCreds}
	ctx := context.Background()

	if err := stream.EndStream(ctx); err != nil {
		t.Fatalf("EndStream() error: %v", err)
	}
	if err := stream.EndStream(ctx); err != nil {
		t.Fatalf("second EndStream() error: %v", err)
	}
	if got := len(decodeEnvelopes(t, conn.written())); got != 1 {
		t.Fatalf("envelopes after double end = %d, want 1", got)
	}
	if conn.writeClosed != 1 {
		t.Fatalf("CloseWrite calls = %d, want 1", conn.writeClosed)
	}

	if err := stream.Send(ctx, []byte("late")); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("Send() after end = %v, want ErrStreamClosed", err)
	}
}

func TestAudioStreamSkipsEmptyChunks(t *testing.T) {
	conn := &fakeConn{}
	stream := &AudioStream{conn: conn, signer: fixedSigner(), creds: streamCreds}

	if err := stream.Send(context.Background(), nil); err != nil {
		t.Fatalf("Send(nil) error: %v", err)
	}
	if len(conn.written()) != 0 {
		t.Fatal("empty chunk reached the wire")
	}
}

func serviceFrame(t *testing.T, headers eventstream.Headers, payload string) []byte {
	t.Helper()
	frame, err := eventstream.Encode(headers, []byte(payload))
	if err != nil {
		t.Fatalf("encode service frame: %v", err)
	}
	return frame
}

func transcriptFrame(t *testing.T, payload string) []byte {
	return serviceFrame(t, eventstream.Headers{
		{Name: headerMessageType, Value: eventstream.StringValue(messageTypeEvent)},
		{Name: headerEventType, Value: eventstream.StringValue(eventTypeTranscript)},
	}, payload)
}

func TestTranscriptResultStreamDeliversEvents(t *testing.T) {
	wire := append(
		transcriptFrame(t, `{"Transcript":{"Results":[{"ResultId":"r1","IsPartial":true}]}}`),
		transcriptFrame(t, `{"Transcript":{"Results":[{"ResultId":"r1","IsPartial":false}]}}`)...)

	// One byte per Read exercises frame reassembly across reads.
	stream := &TranscriptResultStream{conn: iotest.OneByteReader(bytes.NewReader(wire))}
	ctx := context.Background()

	first, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("first Next() error: %v", err)
	}
	if event := first.(TranscriptEvent); !event.Transcript.Results[0].IsPartial {
		t.Fatal("first event is not the partial result")
	}

	second, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("second Next() error: %v", err)
	}
	if event := second.(TranscriptEvent); event.Transcript.Results[0].IsPartial {
		t.Fatal("second event is still partial")
	}

	if _, err := stream.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("drained Next() = %v, want io.EOF", err)
	}
	if _, err := stream.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Next() after EOF = %v, want io.EOF again", err)
	}
}

func TestTranscriptResultStreamPrematureEnd(t *testing.T) {
	frame := transcriptFrame(t, `{"Transcript":{"Results":[]}}`)
	stream := &TranscriptResultStream{conn: bytes.NewReader(frame[:len(frame)-3])}

	_, err := stream.Next(context.Background())
	if !errors.Is(err, eventstream.ErrPrematureEnd) {
		t.Fatalf("Next() = %v, want ErrPrematureEnd", err)
	}
	if _, err := stream.Next(context.Background()); !errors.Is(err, eventstream.ErrPrematureEnd) {
		t.Fatalf("Next() again = %v, want sticky ErrPrematureEnd", err)
	}
}

func TestTranscriptResultStreamCorruptionIsTerminal(t *testing.T) {
	frame := transcriptFrame(t, `{"Transcript":{"Results":[]}}`)
	frame[len(frame)-5] ^= 0xff
	stream := &TranscriptResultStream{conn: bytes.NewReader(frame)}

	_, err := stream.Next(context.Background())
	var checksumErr *eventstream.ChecksumError
	if !errors.As(err, &checksumErr) {
		t.Fatalf("Next() = %v, want *ChecksumError", err)
	}
	if _, again := stream.Next(context.Background()); !errors.Is(again, err) {
		t.Fatalf("Next() again = %v, want the same sticky error", again)
	}
}

func TestTranscriptResultStreamExceptionIsTerminal(t *testing.T) {
	wire := append(
		serviceFrame(t, eventstream.Headers{
			{Name: headerMessageType, Value: eventstream.StringValue(messageTypeException)},
			{Name: headerExceptionType, Value: eventstream.StringValue("InternalFailureException")},
		}, `{"Message":"stream processing failed"}`),
		transcriptFrame(t, `{"Transcript":{"Results":[]}}`)...)
	stream := &TranscriptResultStream{conn: bytes.NewReader(wire)}

	_, err := stream.Next(context.Background())
	var failure *InternalFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Next() = %v, want *InternalFailureError", err)
	}
	if _, again := stream.Next(context.Background()); !errors.Is(again, err) {
		t.Fatalf("Next() past an exception = %v, want the same error", again)
	}
}

func TestTranscriptResultStreamSkipsDecodeErrors(t *testing.T) {
	wire := append(
		transcriptFrame(t, `{"Transcript":`),
		transcriptFrame(t, `{"Transcript":{"Results":[{"ResultId":"ok"}]}}`)...)
	stream := &TranscriptResultStream{conn: bytes.NewReader(wire)}
	ctx := context.Background()

	_, err := stream.Next(ctx)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Next() = %v, want *DecodeError", err)
	}

	event, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next() after decode error: %v", err)
	}
	if event.(TranscriptEvent).Transcript.Results[0].ResultID != "ok" {
		t.Fatal("event after decode error was not delivered")
	}
}

// blockedConn suspends Read and Write until the connection is closed,
// then fails them the way a torn-down socket would.
type blockedConn struct {
	closed    chan struct{}
	closeOnce sync.Once
}

func newBlockedConn() *blockedConn {
	return &blockedConn{closed: make(chan struct{})}
}

func (c *blockedConn) Read([]byte) (int, error) {
	<-c.closed
	return 0, errors.New("read on closed connection")
}

func (c *blockedConn) Write([]byte) (int, error) {
	<-c.closed
	return 0, errors.New("write on closed connection")
}

func (c *blockedConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func TestSessionCloseUnblocksStreams(t *testing.T) {
	conn := newBlockedConn()
	session := &Session{
		audio:      &AudioStream{conn: conn, signer: fixedSigner(), creds: streamCreds},
		transcript: &TranscriptResultStream{conn: conn},
		conn:       conn,
	}
	ctx := context.Background()

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- session.AudioStream().Send(ctx, []byte("audio"))
	}()
	nextErr := make(chan error, 1)
	go func() {
		_, err := session.TranscriptResultStream().Next(ctx)
		nextErr <- err
	}()

	if err := session.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	var transportErr *TransportError
	select {
	case err := <-sendErr:
		if !errors.As(err, &transportErr) {
			t.Fatalf("Send() after Close = %v, want *TransportError", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Send() still blocked after Close")
	}
	select {
	case err := <-nextErr:
		if !errors.As(err, &transportErr) {
			t.Fatalf("Next() after Close = %v, want *TransportError", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Next() still blocked after Close")
	}
}

// failingWriteConn rejects every write.
type failingWriteConn struct {
	fakeConn
}

func (c *failingWriteConn) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestAudioStreamEndFailureClosesStream(t *testing.T) {
	conn := &failingWriteConn{}
	stream := &AudioStream{conn: conn, signer: fixedSigner(), creds: streamCreds}
	ctx := context.Background()

	err := stream.EndStream(ctx)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("EndStream() = %v, want *TransportError", err)
	}

	if sendErr := stream.Send(ctx, []byte("late")); !errors.Is(sendErr, ErrStreamClosed) {
		t.Fatalf("Send() after failed end = %v, want ErrStreamClosed", sendErr)
	}
	if again := stream.EndStream(ctx); !errors.Is(again, err) {
		t.Fatalf("second EndStream() = %v, want the recorded error", again)
	}
	if conn.writeClosed != 0 {
		t.Fatalf("CloseWrite calls after a failed end frame = %d, want 0", conn.writeClosed)
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	conn := &fakeConn{}
	session := &Session{
		audio:      &AudioStream{conn: conn, signer: fixedSigner(), creds: streamCreds},
		transcript: &TranscriptResultStream{conn: conn},
		conn:       conn,
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if conn.closed != 1 {
		t.Fatalf("Close calls on the connection = %d, want 1", conn.closed)
	}
}
