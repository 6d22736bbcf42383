package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ComputeSignature returns the lowercase hex HMAC-SHA256 of
// "<orderID>|<paymentID>" under the gateway key secret. This is the exact
// construction Razorpay signs checkout callbacks with.
func ComputeSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a client-supplied signature in constant time. Hex
// case is canonicalised before comparison; any malformed or truncated
// signature simply fails to match.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := ComputeSignature(secret, orderID, paymentID)
	provided := strings.ToLower(strings.TrimSpace(signature))
	return hmac.Equal([]byte(expected), []byte(provided))
}
