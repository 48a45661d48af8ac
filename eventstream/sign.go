package eventstream

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/voxkit/transcribestream/auth"
)

const signatureTimeFormat = "20060102T150405Z"

// Signer produces per-event signature envelopes. Each event is signed
// against the signature of the previous one, so calls must be made in
// wire order with the prior signature threaded through.
type Signer struct {
	SigningName string
	Region      string

	// Now is the clock used for the :date header. Defaults to time.Now.
	Now func() time.Time
}

// Sign computes the envelope headers for one event payload. It returns
// the headers to wrap the event with and the raw signature to feed into
// the next call.
func (s *Signer) Sign(payload, priorSignature []byte, creds auth.Credentials) (Headers, []byte, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now().UTC()
	timestamp := t.Format(signatureTimeFormat)
	scope := strings.Join([]string{t.Format("20060102"), s.Region, s.SigningName, "aws4_request"}, "/")

	dateHeader, err := EncodeHeaders(Headers{{Name: ":date", Value: TimestampValue(t)}})
	if err != nil {
		return nil, nil, err
	}

	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256-PAYLOAD",
		timestamp,
		scope,
		hex.EncodeToString(priorSignature),
		hexSHA256(dateHeader),
		hexSHA256(payload),
	}, "\n")

	key := []byte("AWS4" + creds.SecretAccessKey)
	key = hmacSHA256(key, []byte(t.Format("20060102")))
	key = hmacSHA256(key, []byte(s.Region))
	key = hmacSHA256(key, []byte(s.SigningName))
	key = hmacSHA256(key, []byte("aws4_request"))
	signature := hmacSHA256(key, []byte(stringToSign))

	headers := Headers{
		{Name: ":date", Value: TimestampValue(t)},
		{Name: ":chunk-signature", Value: BytesValue(signature)},
	}
	return headers, signature, nil
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
