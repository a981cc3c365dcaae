package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// SignatureVerifier checks gateway signatures: hex(HMAC-SHA256(secret, orderId + "|" + paymentId)).
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

func (v *SignatureVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify never accepts anything when no secret is configured.
func (v *SignatureVerifier) Verify(proof entity.PaymentProof) bool {
	if len(v.secret) == 0 || proof.Signature == "" {
		return false
	}
	expected := v.Sign(proof.OrderID, proof.PaymentID)
	return hmac.Equal([]byte(expected), []byte(proof.Signature))
}
