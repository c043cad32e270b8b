package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// signHeaders clones headers and, if secret is non-nil, overwrites
// X-Hub-Signature-256 with the HMAC-SHA256 of body under secret (§4.D.2
// step 6). With no secret the headers are returned unchanged (still
// cloned, so callers never share a map across concurrent forwards).
func signHeaders(headers http.Header, secret *string, body []byte) http.Header {
	out := headers.Clone()
	if out == nil {
		out = make(http.Header)
	}
	if secret == nil {
		return out
	}
	out.Set("X-Hub-Signature-256", "sha256="+hexHMACSHA256(*secret, body))
	return out
}

func hexHMACSHA256(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature performs the constant-time comparison an inbound GitHub
// delivery is checked against (§4.E step 2).
func VerifySignature(sharedSecret string, signatureHeader string, body []byte) bool {
	expected := "sha256=" + hexHMACSHA256(sharedSecret, body)
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
