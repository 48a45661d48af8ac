package transcribe

import (
	"errors"
	"testing"
)

func TestStreamConfigValidate(t *testing.T) {
	base := []StreamOption{
		WithLanguageCode("en-US"),
		WithMediaSampleRateHertz(16000),
		WithMediaEncoding(MediaEncodingPCM),
	}

	cases := []struct {
		name    string
		opts    []StreamOption
		wantErr bool
	}{
		{
			name: "minimal valid",
			opts: base,
		},
		{
			name: "all options",
			opts: append(base[:len(base):len(base)],
				WithVocabularyName("jargon"),
				WithVocabularyFilter("profanity", VocabularyFilterMask),
				WithSessionID("session-1"),
				WithPartialResultsStabilization(PartialResultsStabilityHigh),
				WithLanguageModelName("call-center"),
			),
		},
		{
			name:    "missing language code",
			opts:    []StreamOption{WithMediaSampleRateHertz(16000), WithMediaEncoding(MediaEncodingPCM)},
			wantErr: true,
		},
		{
			name:    "missing sample rate",
			opts:    []StreamOption{WithLanguageCode("en-US"), WithMediaEncoding(MediaEncodingPCM)},
			wantErr: true,
		},
		{
			name:    "missing encoding",
			opts:    []StreamOption{WithLanguageCode("en-US"), WithMediaSampleRateHertz(16000)},
			wantErr: true,
		},
		{
			name: "speaker label with channel identification",
			opts: append(base[:len(base):len(base)],
				WithShowSpeakerLabel(),
				WithChannelIdentification(2),
			),
			wantErr: true,
		},
		{
			name: "channel identification alone",
			opts: append(base[:len(base):len(base)], WithChannelIdentification(2)),
		},
		{
			name: "channel count without identification",
			opts: append(base[:len(base):len(base)], func(c *StreamConfig) {
				c.NumberOfChannels = 2
			}),
			wantErr: true,
		},
		{
			name: "stability without stabilization",
			opts: append(base[:len(base):len(base)], func(c *StreamConfig) {
				c.PartialResultsStability = PartialResultsStabilityLow
			}),
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &StreamConfig{}
			for _, opt := range tc.opts {
				opt(cfg)
			}
			err := cfg.validate()
			if tc.wantErr {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("validate() error = %v, want *ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate() error: %v", err)
			}
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	cfg := &StreamConfig{
		LanguageCode:                      "en-US",
		MediaSampleRateHertz:              16000,
		MediaEncoding:                     MediaEncodingPCM,
		SessionID:                         "session-1",
		VocabularyName:                    "jargon",
		VocabularyFilterName:              "profanity",
		VocabularyFilterMethod:            VocabularyFilterMask,
		EnableChannelIdentification:       true,
		NumberOfChannels:                  2,
		EnablePartialResultsStabilization: true,
		PartialResultsStability:           PartialResultsStabilityMedium,
	}
	headers := cfg.requestHeaders()

	want := map[string]string{
		headerLanguageCode:            "en-US",
		headerSampleRate:              "16000",
		headerMediaEncoding:           "pcm",
		headerSessionID:               "session-1",
		headerVocabularyName:          "jargon",
		headerVocabularyFilterName:    "profanity",
		headerVocabularyFilterMethod:  "mask",
		headerChannelIdentification:   "true",
		headerNumberOfChannels:        "2",
		headerEnableStabilization:     "true",
		headerPartialResultsStability: "medium",
	}
	for name, value := range want {
		if got := headers[name]; got != value {
			t.Errorf("header %s = %q, want %q", name, got, value)
		}
	}
	if _, ok := headers[headerShowSpeakerLabel]; ok {
		t.Error("speaker label header present for a config that never enabled it")
	}
	if _, ok := headers[headerLanguageModelName]; ok {
		t.Error("language model header present for a config that never set it")
	}
}

func TestParseSessionInfoEcho(t *testing.T) {
	cfg := &StreamConfig{
		LanguageCode:         "en-US",
		MediaSampleRateHertz: 16000,
		MediaEncoding:        MediaEncodingPCM,
		SessionID:            "requested",
	}
	info, err := parseSessionInfo(cfg, map[string]string{
		"X-Amzn-Request-Id":                "req-42",
		"X-Amzn-Transcribe-Sample-Rate":    "8000",
		"x-amzn-transcribe-session-id":     "accepted",
		"x-amzn-transcribe-media-encoding": "flac",
	})
	if err != nil {
		t.Fatalf("parseSessionInfo() error: %v", err)
	}
	if info.RequestID != "req-42" {
		t.Fatalf("RequestID = %q", info.RequestID)
	}
	if info.MediaSampleRateHertz != 8000 {
		t.Fatalf("MediaSampleRateHertz = %d, want echoed 8000", info.MediaSampleRateHertz)
	}
	if info.SessionID != "accepted" {
		t.Fatalf("SessionID = %q, want echoed value", info.SessionID)
	}
	if info.MediaEncoding != "flac" {
		t.Fatalf("MediaEncoding = %q, want echoed value", info.MediaEncoding)
	}
	if info.LanguageCode != "en-US" {
		t.Fatalf("LanguageCode = %q, want requested value kept", info.LanguageCode)
	}
}
