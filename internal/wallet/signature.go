package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	HeaderSignature      = "X-Signature"
	HeaderTimestamp      = "X-Timestamp"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// Sign computes the request signature over {timestamp}.{reference}.{body}.
// The body must already be in canonical form so both sides hash the same bytes.
// Format: "sha256=<hex_signature>"
func Sign(secret string, timestamp int64, reference string, body []byte) string {
	signaturePayload := fmt.Sprintf("%d.%s.%s", timestamp, reference, string(body))

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(signaturePayload))

	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches the request
func Verify(secret string, timestamp int64, reference string, body []byte, signature string) bool {
	expected := Sign(secret, timestamp, reference, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
