package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

// VerifySignature reports whether signatureHex is the HMAC-SHA256 of rawBody
// keyed by secret. It must be called on the exact bytes received, before any
// JSON decoding. The comparison is constant-time.
func VerifySignature(secret []byte, rawBody []byte, signatureHex string) bool {
	signatureHex = strings.TrimSpace(signatureHex)
	if signatureHex == "" || len(secret) == 0 {
		return false
	}

	provided, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(rawBody)
	return hmac.Equal(provided, mac.Sum(nil))
}

// Sign returns the hex signature a sender would put in X-Signature.
func Sign(secret []byte, rawBody []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}
