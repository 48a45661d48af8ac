package transcribe

// Media encodings accepted by the service.
const (
	MediaEncodingPCM     = "pcm"
	MediaEncodingOggOpus = "ogg-opus"
	MediaEncodingFlac    = "flac"
)

// Vocabulary filter methods.
const (
	VocabularyFilterRemove = "remove"
	VocabularyFilterMask   = "mask"
	VocabularyFilterTag    = "tag"
)

// Partial results stability levels.
const (
	PartialResultsStabilityHigh   = "high"
	PartialResultsStabilityMedium = "medium"
	PartialResultsStabilityLow    = "low"
)

// StreamConfig are the parameters of one transcription stream.
type StreamConfig struct {
	LanguageCode         string
	MediaSampleRateHertz int
	MediaEncoding        string

	VocabularyName         string
	VocabularyFilterName   string
	VocabularyFilterMethod string

	// SessionID identifies the stream for support purposes. Generated
	// when left empty.
	SessionID string

	ShowSpeakerLabel            bool
	EnableChannelIdentification bool
	NumberOfChannels            int

	EnablePartialResultsStabilization bool
	PartialResultsStability           string

	LanguageModelName string
}

// StreamOption configures one stream.
type StreamOption func(*StreamConfig)

func WithLanguageCode(code string) StreamOption {
	return func(c *StreamConfig) {
		c.LanguageCode = code
	}
}

func WithMediaSampleRateHertz(rate int) StreamOption {
	return func(c *StreamConfig) {
		c.MediaSampleRateHertz = rate
	}
}

func WithMediaEncoding(encoding string) StreamOption {
	return func(c *StreamConfig) {
		c.MediaEncoding = encoding
	}
}

func WithVocabularyName(name string) StreamOption {
	return func(c *StreamConfig) {
		c.VocabularyName = name
	}
}

func WithVocabularyFilter(name, method string) StreamOption {
	return func(c *StreamConfig) {
		c.VocabularyFilterName = name
		c.VocabularyFilterMethod = method
	}
}

func WithSessionID(id string) StreamOption {
	return func(c *StreamConfig) {
		c.SessionID = id
	}
}

func WithShowSpeakerLabel() StreamOption {
	return func(c *StreamConfig) {
		c.ShowSpeakerLabel = true
	}
}

func WithChannelIdentification(channels int) StreamOption {
	return func(c *StreamConfig) {
		c.EnableChannelIdentification = true
		c.NumberOfChannels = channels
	}
}

func WithPartialResultsStabilization(stability string) StreamOption {
	return func(c *StreamConfig) {
		c.EnablePartialResultsStabilization = true
		c.PartialResultsStability = stability
	}
}

func WithLanguageModelName(name string) StreamOption {
	return func(c *StreamConfig) {
		c.LanguageModelName = name
	}
}

func (c *StreamConfig) validate() error {
	if c.LanguageCode == "" {
		return &ConfigError{Message: "language code is required"}
	}
	if c.MediaSampleRateHertz <= 0 {
		return &ConfigError{Message: "media sample rate is required"}
	}
	if c.MediaEncoding == "" {
		return &ConfigError{Message: "media encoding is required"}
	}
	if c.ShowSpeakerLabel && c.EnableChannelIdentification {
		return &ConfigError{Message: "speaker labelling and channel identification are mutually exclusive"}
	}
	if c.NumberOfChannels > 0 && !c.EnableChannelIdentification {
		return &ConfigError{Message: "number of channels requires channel identification"}
	}
	if c.PartialResultsStability != "" && !c.EnablePartialResultsStabilization {
		return &ConfigError{Message: "partial results stability requires stabilization to be enabled"}
	}
	return nil
}
