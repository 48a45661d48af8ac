package transcribe

import "github.com/voxkit/transcribestream/eventstream"

// Wire header names and values for the event frames.
const (
	headerMessageType   = ":message-type"
	headerEventType     = ":event-type"
	headerContentType   = ":content-type"
	headerExceptionType = ":exception-type"

	messageTypeEvent     = "event"
	messageTypeException = "exception"
	messageTypeError     = "error"

	eventTypeAudio      = "AudioEvent"
	eventTypeTranscript = "TranscriptEvent"

	octetStreamContentType = "application/octet-stream"
)

// audioEventHeaders are the inner-frame headers of every audio chunk.
func audioEventHeaders() eventstream.Headers {
	return eventstream.Headers{
		{Name: headerMessageType, Value: eventstream.StringValue(messageTypeEvent)},
		{Name: headerEventType, Value: eventstream.StringValue(eventTypeAudio)},
		{Name: headerContentType, Value: eventstream.StringValue(octetStreamContentType)},
	}
}
