package transcribe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxkit/transcribestream/eventstream"
	"github.com/voxkit/transcribestream/transport"
)

// parseEvent turns a decoded frame into an Event or a service error.
// A frame that carries a recognized event type but an undecodable
// payload yields a *DecodeError; the stream can continue past it.
func parseEvent(msg *eventstream.Message) (Event, error) {
	messageType, _ := msg.Headers.GetString(headerMessageType)
	switch messageType {
	case messageTypeEvent:
		eventType, _ := msg.Headers.GetString(headerEventType)
		switch eventType {
		case eventTypeTranscript:
			var event TranscriptEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				return nil, &DecodeError{EventType: eventType, Err: err}
			}
			return event, nil
		default:
			logger.Warn("unrecognized event type", "eventType", eventType)
			return UnknownEvent{Type: eventType, Payload: msg.Payload}, nil
		}
	case messageTypeException, messageTypeError:
		return nil, parseExceptionEvent(msg)
	default:
		return nil, &DecodeError{
			EventType: messageType,
			Err:       fmt.Errorf("unrecognized message type %q", messageType),
		}
	}
}

func parseExceptionEvent(msg *eventstream.Message) error {
	code, ok := msg.Headers.GetString(headerExceptionType)
	if !ok || code == "" {
		code = "ServiceException"
	}
	var body struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		return &DecodeError{EventType: code, Err: err}
	}
	return newServiceError(code, body.Message)
}

// parseHandshakeException maps a rejected handshake response to a
// service error. The exception name travels in the x-amzn-errortype
// header, suffixed with internal routing detail after a colon.
func parseHandshakeException(resp *transport.Response) error {
	code := headerLookup(resp.Headers, "x-amzn-errortype")
	code, _, _ = strings.Cut(code, ":")
	if code == "" {
		code = "ServiceException"
	}

	var body struct {
		Message string `json:"Message"`
	}
	_ = json.Unmarshal(resp.Body, &body)
	if body.Message == "" {
		body.Message = fmt.Sprintf("handshake rejected with status %d", resp.StatusCode)
	}

	err := newServiceError(code, body.Message)
	if unknown, ok := err.(*UnknownServiceError); ok {
		unknown.StatusCode = resp.StatusCode
	}
	return err
}
