package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const SignatureHeader = "X-Signature"

// signatureFrom returns the signature sent by Naboopay. Header names are
// case-insensitive; the underscore spelling bypasses canonicalization so it
// is looked up on the raw map.
func signatureFrom(h http.Header) string {
	if sig := strings.TrimSpace(h.Get(SignatureHeader)); sig != "" {
		return sig
	}
	for name, values := range h {
		if strings.EqualFold(name, "x_signature") && len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}
	return ""
}

// Sign returns the hex HMAC-SHA256 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against body in constant time.
func Verify(secret, signature string, body []byte) error {
	if secret == "" {
		return ErrConfiguration
	}
	if signature == "" {
		return ErrMissingSignature
	}
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}
