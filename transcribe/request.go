package transcribe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jinzhu/copier"
)

// Handshake header names for the streaming operation.
const (
	headerRequestID = "x-amzn-request-id"

	headerLanguageCode            = "x-amzn-transcribe-language-code"
	headerSampleRate              = "x-amzn-transcribe-sample-rate"
	headerMediaEncoding           = "x-amzn-transcribe-media-encoding"
	headerVocabularyName          = "x-amzn-transcribe-vocabulary-name"
	headerSessionID               = "x-amzn-transcribe-session-id"
	headerVocabularyFilterName    = "x-amzn-transcribe-vocabulary-filter-name"
	headerVocabularyFilterMethod  = "x-amzn-transcribe-vocabulary-filter-method"
	headerShowSpeakerLabel        = "x-amzn-transcribe-show-speaker-label"
	headerChannelIdentification   = "x-amzn-transcribe-enable-channel-identification"
	headerNumberOfChannels        = "x-amzn-transcribe-number-of-channels"
	headerEnableStabilization     = "x-amzn-transcribe-enable-partial-results-stabilization"
	headerPartialResultsStability = "x-amzn-transcribe-partial-results-stability"
	headerLanguageModelName       = "x-amzn-transcribe-language-model-name"
)

// requestHeaders translates the config into handshake headers. Unset
// optional parameters are omitted.
func (c *StreamConfig) requestHeaders() map[string]string {
	headers := map[string]string{
		headerLanguageCode:  c.LanguageCode,
		headerSampleRate:    strconv.Itoa(c.MediaSampleRateHertz),
		headerMediaEncoding: c.MediaEncoding,
		headerSessionID:     c.SessionID,
	}
	if c.VocabularyName != "" {
		headers[headerVocabularyName] = c.VocabularyName
	}
	if c.VocabularyFilterName != "" {
		headers[headerVocabularyFilterName] = c.VocabularyFilterName
	}
	if c.VocabularyFilterMethod != "" {
		headers[headerVocabularyFilterMethod] = c.VocabularyFilterMethod
	}
	if c.ShowSpeakerLabel {
		headers[headerShowSpeakerLabel] = "true"
	}
	if c.EnableChannelIdentification {
		headers[headerChannelIdentification] = "true"
	}
	if c.NumberOfChannels > 0 {
		headers[headerNumberOfChannels] = strconv.Itoa(c.NumberOfChannels)
	}
	if c.EnablePartialResultsStabilization {
		headers[headerEnableStabilization] = "true"
	}
	if c.PartialResultsStability != "" {
		headers[headerPartialResultsStability] = c.PartialResultsStability
	}
	if c.LanguageModelName != "" {
		headers[headerLanguageModelName] = c.LanguageModelName
	}
	return headers
}

// SessionInfo describes an established stream: the configuration as the
// service accepted it, plus the service's request id for support
// correlation.
type SessionInfo struct {
	StreamConfig

	RequestID string
}

// parseSessionInfo merges the requested config with the parameters the
// service echoed back in the handshake response. Echoed settings win;
// anything the service stayed silent on keeps its requested value.
func parseSessionInfo(cfg *StreamConfig, headers map[string]string) (*SessionInfo, error) {
	info := &SessionInfo{
		StreamConfig: *cfg,
		RequestID:    headerLookup(headers, headerRequestID),
	}

	echoed := StreamConfig{
		LanguageCode:   headerLookup(headers, headerLanguageCode),
		MediaEncoding:  headerLookup(headers, headerMediaEncoding),
		SessionID:      headerLookup(headers, headerSessionID),
		VocabularyName: headerLookup(headers, headerVocabularyName),
	}
	if v := headerLookup(headers, headerSampleRate); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse echoed sample rate %q: %w", v, err)
		}
		echoed.MediaSampleRateHertz = rate
	}

	if err := copier.CopyWithOption(&info.StreamConfig, &echoed, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, fmt.Errorf("merge echoed settings: %w", err)
	}
	return info, nil
}

func headerLookup(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
