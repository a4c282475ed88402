package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Sign считает HMAC-SHA256 подпись полезной нагрузки и возвращает её в hex.
// Получатель сверяет X-Webhook-Signature с hex(hmac_sha256(secret, body)).
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify проверяет подпись в constant time. Допускает префикс "sha256="
// (формат GitHub-style заголовков) и чистый hex.
func Verify(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, "sha256=")
	actual, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	return subtle.ConstantTimeCompare(expected, actual) == 1
}
