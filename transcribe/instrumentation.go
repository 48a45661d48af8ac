package transcribe

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/voxkit/transcribestream/transcribe"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	audioEventsSent, _ = meter.Int64Counter("transcribe.audio_events.sent")
	eventsReceived, _  = meter.Int64Counter("transcribe.events.received")
)
