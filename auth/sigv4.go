package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	algorithm     = "AWS4-HMAC-SHA256"
	timeFormat    = "20060102T150405Z"
	shortTimeFmt  = "20060102"
	requestSuffix = "aws4_request"

	// SHA-256 of the empty string. The handshake request body is the
	// event stream itself, which is signed per event, so the request
	// signature covers an empty payload.
	emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// SigV4Signer signs handshake requests with AWS Signature Version 4.
type SigV4Signer struct {
	ServiceName string
	Region      string

	// Now is the signing clock. Defaults to time.Now.
	Now func() time.Time
}

func (s *SigV4Signer) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Sign adds SigV4 authentication headers to req and returns the raw
// signature, which seeds the per-event signature chain.
func (s *SigV4Signer) Sign(req *http.Request, creds Credentials) ([]byte, error) {
	t := s.now()
	req.Header.Set("X-Amz-Date", t.Format(timeFormat))
	if creds.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", creds.SessionToken)
	}

	names, canonicalHeaders := canonicalizeHeaders(req)
	signedHeaders := strings.Join(names, ";")

	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalPath(req.URL),
		req.URL.Query().Encode(),
		canonicalHeaders,
		signedHeaders,
		emptyPayloadHash,
	}, "\n")

	scope := strings.Join([]string{t.Format(shortTimeFmt), s.Region, s.ServiceName, requestSuffix}, "/")
	stringToSign := strings.Join([]string{
		algorithm,
		t.Format(timeFormat),
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signature := s.signature(t, creds, stringToSign)
	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, creds.AccessKeyID, scope, signedHeaders, hex.EncodeToString(signature),
	))
	return signature, nil
}

// PresignURL returns a copy of u carrying the signature in its query
// string, for transports that cannot send request headers, along with
// the raw signature seeding the per-event chain.
func (s *SigV4Signer) PresignURL(method string, u *url.URL, expires time.Duration, creds Credentials) (*url.URL, []byte, error) {
	t := s.now()
	scope := strings.Join([]string{t.Format(shortTimeFmt), s.Region, s.ServiceName, requestSuffix}, "/")

	query := u.Query()
	query.Set("X-Amz-Algorithm", algorithm)
	query.Set("X-Amz-Credential", creds.AccessKeyID+"/"+scope)
	query.Set("X-Amz-Date", t.Format(timeFormat))
	query.Set("X-Amz-Expires", strconv.Itoa(int(expires/time.Second)))
	query.Set("X-Amz-SignedHeaders", "host")
	if creds.SessionToken != "" {
		query.Set("X-Amz-Security-Token", creds.SessionToken)
	}

	canonicalRequest := strings.Join([]string{
		method,
		canonicalPath(u),
		query.Encode(),
		"host:" + u.Host + "\n",
		"host",
		emptyPayloadHash,
	}, "\n")

	stringToSign := strings.Join([]string{
		algorithm,
		t.Format(timeFormat),
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signature := s.signature(t, creds, stringToSign)
	query.Set("X-Amz-Signature", hex.EncodeToString(signature))

	signed := *u
	signed.RawQuery = query.Encode()
	return &signed, signature, nil
}

func (s *SigV4Signer) signature(t time.Time, creds Credentials, stringToSign string) []byte {
	key := []byte("AWS4" + creds.SecretAccessKey)
	key = hmacSHA256(key, []byte(t.Format(shortTimeFmt)))
	key = hmacSHA256(key, []byte(s.Region))
	key = hmacSHA256(key, []byte(s.ServiceName))
	key = hmacSHA256(key, []byte(requestSuffix))
	return hmacSHA256(key, []byte(stringToSign))
}

func canonicalPath(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.EscapedPath()
}

// canonicalizeHeaders covers host plus every header already set on the
// request, lowercased and sorted.
func canonicalizeHeaders(req *http.Request) ([]string, string) {
	values := map[string]string{"host": req.Host}
	if values["host"] == "" {
		values["host"] = req.URL.Host
	}
	for name, vals := range req.Header {
		values[strings.ToLower(name)] = strings.Join(vals, ",")
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(values[name]))
		b.WriteByte('\n')
	}
	return names, b.String()
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
