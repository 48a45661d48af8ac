package transcribe

// Event is one item from the transcript result stream.
type Event interface {
	isEvent()
}

// TranscriptEvent carries a batch of transcription results.
type TranscriptEvent struct {
	Transcript Transcript `json:"Transcript"`
}

func (TranscriptEvent) isEvent() {}

// UnknownEvent is an event of a type this client does not recognize.
// The raw payload is preserved so callers can inspect it.
type UnknownEvent struct {
	Type    string
	Payload []byte
}

func (UnknownEvent) isEvent() {}

// Transcript is the result container inside a TranscriptEvent.
type Transcript struct {
	Results []Result `json:"Results"`
}

// Result is one segment of transcribed audio. Partial results for a
// segment are superseded by later results carrying the same ResultID.
type Result struct {
	ResultID  string  `json:"ResultId"`
	StartTime float64 `json:"StartTime"`
	EndTime   float64 `json:"EndTime"`
	// IsPartial marks a result that will be revised as more audio of
	// the segment arrives.
	IsPartial    bool          `json:"IsPartial"`
	Alternatives []Alternative `json:"Alternatives"`
	ChannelID    string        `json:"ChannelId,omitempty"`
	// Stable reports whether a partial-results-stabilized result will
	// no longer change.
	Stable *bool `json:"Stable,omitempty"`
}

// Alternative is one candidate transcription of a result segment.
type Alternative struct {
	Transcript string `json:"Transcript"`
	Items      []Item `json:"Items"`
}

// Item types.
const (
	ItemTypePronunciation = "pronunciation"
	ItemTypePunctuation   = "punctuation"
)

// Item is one word or punctuation mark with its timing.
type Item struct {
	StartTime float64 `json:"StartTime"`
	EndTime   float64 `json:"EndTime"`
	ItemType  string  `json:"Type"`
	Content   string  `json:"Content"`
	// Confidence is nil when the service did not score the item.
	Confidence *float64 `json:"Confidence"`
	// VocabularyFilterMatch reports whether the item matched the active
	// vocabulary filter.
	VocabularyFilterMatch *bool `json:"VocabularyFilterMatch,omitempty"`
	// Speaker is the diarization label, when speaker labelling is on.
	Speaker string `json:"Speaker,omitempty"`
	// Stable reports whether a partial-results-stabilized item will no
	// longer change.
	Stable *bool `json:"Stable,omitempty"`
}
