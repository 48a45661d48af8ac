package transcribe

import (
	"errors"
	"fmt"
)

// ErrStreamClosed is returned by operations on a stream whose input
// side was already ended or whose session was closed.
var ErrStreamClosed = errors.New("transcribe: stream closed")

// ConfigError reports an invalid stream configuration, detected before
// any connection is made.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "transcribe: invalid configuration: " + e.Message
}

// TransportError wraps a connection-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transcribe: transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports an event frame whose payload could not be
// decoded. The stream itself is still intact; subsequent events keep
// flowing.
type DecodeError struct {
	EventType string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("transcribe: decode %s event: %v", e.EventType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServiceError is an error reported by the service itself, either as a
// handshake rejection or an in-stream exception event.
type ServiceError interface {
	error
	// ErrorCode is the service's exception name.
	ErrorCode() string
	// ErrorMessage is the service's human-readable description.
	ErrorMessage() string
}

type serviceError struct {
	code    string
	message string
}

func (e *serviceError) Error() string {
	return fmt.Sprintf("transcribe: %s: %s", e.code, e.message)
}

func (e *serviceError) ErrorCode() string    { return e.code }
func (e *serviceError) ErrorMessage() string { return e.message }

// BadRequestError means the request or audio stream was malformed, for
// example an unsupported sample rate or an idle stream timeout.
type BadRequestError struct{ serviceError }

// ConflictError means a stream with the same session is already active.
type ConflictError struct{ serviceError }

// InternalFailureError means the service failed to process the stream.
type InternalFailureError struct{ serviceError }

// LimitExceededError means a service limit was hit, for example audio
// chunks arriving faster than real time.
type LimitExceededError struct{ serviceError }

// ServiceUnavailableError means the service is temporarily unable to
// accept the stream.
type ServiceUnavailableError struct{ serviceError }

// SerializationError means the service could not parse an audio event.
type SerializationError struct{ serviceError }

// UnknownServiceError is a service exception outside the known
// catalogue.
type UnknownServiceError struct {
	serviceError
	// StatusCode is set when the error came from a rejected handshake.
	StatusCode int
}

func newServiceError(code, message string) error {
	base := serviceError{code: code, message: message}
	switch code {
	case "BadRequestException":
		return &BadRequestError{base}
	case "ConflictException":
		return &ConflictError{base}
	case "InternalFailureException":
		return &InternalFailureError{base}
	case "LimitExceededException":
		return &LimitExceededError{base}
	case "ServiceUnavailableException":
		return &ServiceUnavailableError{base}
	case "SerializationException":
		return &SerializationError{base}
	default:
		return &UnknownServiceError{serviceError: base}
	}
}
