// Package signature verifies that inbound webhook payloads were produced
// by the trusted SMS gateway.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrMissingSignature = errors.New("signature header is required")
	ErrInvalidSignature = errors.New("signature does not match payload")
)

// Verifier checks hex-encoded HMAC-SHA256 signatures over raw request
// bodies. A Verifier with an empty secret accepts everything; disabling
// verification is a deployment decision made by leaving the secret unset.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether a shared secret is configured.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify validates the supplied signature against the exact raw body
// bytes, before any JSON parsing. Comparison is constant-time so the
// result leaks nothing about how many bytes matched.
func (v *Verifier) Verify(body []byte, signature string) error {
	if !v.Enabled() {
		return nil
	}
	if signature == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
