package transcribe

import (
	"context"
	"errors"
	"io"
)

// Handler receives dispatched stream events. Implementations are
// called from the goroutine driving HandleEvents, one call at a time,
// in stream order.
type Handler interface {
	HandleTranscriptEvent(ctx context.Context, event TranscriptEvent) error
	HandleUnknownEvent(ctx context.Context, event UnknownEvent) error

	// HandleDecodeError observes a skipped undecodable event. The
	// stream continues afterwards.
	HandleDecodeError(ctx context.Context, err *DecodeError)

	HandleBadRequest(ctx context.Context, err *BadRequestError)
	HandleConflict(ctx context.Context, err *ConflictError)
	HandleInternalFailure(ctx context.Context, err *InternalFailureError)
	HandleLimitExceeded(ctx context.Context, err *LimitExceededError)
	HandleServiceUnavailable(ctx context.Context, err *ServiceUnavailableError)
	HandleSerializationError(ctx context.Context, err *SerializationError)
	HandleUnknownException(ctx context.Context, err *UnknownServiceError)
}

// NoopHandler implements Handler with no-ops, for embedding when only
// some callbacks matter.
type NoopHandler struct{}

func (NoopHandler) HandleTranscriptEvent(context.Context, TranscriptEvent) error { return nil }
func (NoopHandler) HandleUnknownEvent(context.Context, UnknownEvent) error       { return nil }
func (NoopHandler) HandleDecodeError(context.Context, *DecodeError)              {}
func (NoopHandler) HandleBadRequest(context.Context, *BadRequestError)           {}
func (NoopHandler) HandleConflict(context.Context, *ConflictError)               {}
func (NoopHandler) HandleInternalFailure(context.Context, *InternalFailureError) {}
func (NoopHandler) HandleLimitExceeded(context.Context, *LimitExceededError)     {}
func (NoopHandler) HandleServiceUnavailable(context.Context, *ServiceUnavailableError) {}
func (NoopHandler) HandleSerializationError(context.Context, *SerializationError)      {}
func (NoopHandler) HandleUnknownException(context.Context, *UnknownServiceError)       {}

// HandleEvents drains the transcript stream, dispatching each event to
// the handler. It returns nil when the service ends the stream
// normally. A service exception is dispatched to its callback and then
// returned; decode errors are dispatched and skipped.
func HandleEvents(ctx context.Context, stream *TranscriptResultStream, h Handler) error {
	for {
		event, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				h.HandleDecodeError(ctx, decodeErr)
				continue
			}
			dispatchServiceError(ctx, h, err)
			return err
		}

		switch e := event.(type) {
		case TranscriptEvent:
			if err := h.HandleTranscriptEvent(ctx, e); err != nil {
				return err
			}
		case UnknownEvent:
			if err := h.HandleUnknownEvent(ctx, e); err != nil {
				return err
			}
		}
	}
}

func dispatchServiceError(ctx context.Context, h Handler, err error) {
	var (
		badRequest         *BadRequestError
		conflict           *ConflictError
		internalFailure    *InternalFailureError
		limitExceeded      *LimitExceededError
		serviceUnavailable *ServiceUnavailableError
		serialization      *SerializationError
		unknown            *UnknownServiceError
	)
	switch {
	case errors.As(err, &badRequest):
		h.HandleBadRequest(ctx, badRequest)
	case errors.As(err, &conflict):
		h.HandleConflict(ctx, conflict)
	case errors.As(err, &internalFailure):
		h.HandleInternalFailure(ctx, internalFailure)
	case errors.As(err, &limitExceeded):
		h.HandleLimitExceeded(ctx, limitExceeded)
	case errors.As(err, &serviceUnavailable):
		h.HandleServiceUnavailable(ctx, serviceUnavailable)
	case errors.As(err, &serialization):
		h.HandleSerializationError(ctx, serialization)
	case errors.As(err, &unknown):
		h.HandleUnknownException(ctx, unknown)
	}
}
