// Package auth provides AWS credentials and SigV4 request signing for
// the transcription service endpoints.
package auth

import "context"

// Credentials is a set of AWS security credentials.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// CredentialProvider supplies credentials on demand, so callers can
// plug in rotating sources.
type CredentialProvider interface {
	Retrieve(ctx context.Context) (Credentials, error)
}

// StaticCredentialProvider returns the same fixed credentials on every
// call.
type StaticCredentialProvider struct {
	Credentials Credentials
}

func (p StaticCredentialProvider) Retrieve(context.Context) (Credentials, error) {
	return p.Credentials, nil
}
