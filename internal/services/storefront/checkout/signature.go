package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the gateway callback signature for one payment:
// hex(HMAC-SHA256(key=secret, gatewayOrderID + "|" + paymentID)).
func Sign(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature with the expected value exactly. Hex case
// matters: an upper-case rendering of a valid digest is rejected.
func VerifySignature(secret, gatewayOrderID, paymentID, signature string) bool {
	expected := Sign(secret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
