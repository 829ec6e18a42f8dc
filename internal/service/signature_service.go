package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureScheme prefixes every event signature, e.g. "v1=3f9a...".
const SignatureScheme = "v1"

// HMACSignatureService signs event envelopes with HMAC-SHA256. Subscribers
// recompute the MAC over the raw payload and compare it to the signature field.
type HMACSignatureService struct{}

func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

// Sign returns "v1=" followed by the lowercase hex MAC of payload.
func (s *HMACSignatureService) Sign(secretKey string, payload string) string {
	return SignatureScheme + "=" + hex.EncodeToString(hmacSHA256(secretKey, payload))
}

// Verify accepts only v1 signatures and compares the MACs in constant time.
func (s *HMACSignatureService) Verify(secretKey string, payload string, signature string) bool {
	scheme, digest, ok := strings.Cut(signature, "=")
	if !ok || scheme != SignatureScheme {
		return false
	}
	got, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	return hmac.Equal(hmacSHA256(secretKey, payload), got)
}

func hmacSHA256(secretKey, payload string) []byte {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(payload))
	return h.Sum(nil)
}
