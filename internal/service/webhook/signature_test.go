package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestSignMatchesReferenceHMAC(t *testing.T) {
	secret := "super-secret"
	payload := []byte(`{"event":"shipment.status_changed"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if got := Sign(secret, payload); got != expected {
		t.Fatalf("expected %s, got %s", expected, got)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	secret := "super-secret"
	payload := []byte(`{"event":"shipment.delivered","tracking_number":"SHP000000000001"}`)

	signature := Sign(secret, payload)
	if !Verify(secret, payload, signature) {
		t.Fatal("signature must verify against the same secret and payload")
	}
	if !Verify(secret, payload, "sha256="+signature) {
		t.Fatal("signature with sha256= prefix must verify")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	secret := "super-secret"
	payload := []byte(`{"new_status":"delivered"}`)
	signature := Sign(secret, payload)

	tampered := []byte(`{"new_status":"cancelled"}`)
	if Verify(secret, tampered, signature) {
		t.Fatal("tampered payload must not verify")
	}
}

func TestVerifyRejectsWrongSecretAndGarbage(t *testing.T) {
	payload := []byte(`{"event":"shipment.created"}`)
	signature := Sign("secret-a", payload)

	if Verify("secret-b", payload, signature) {
		t.Fatal("wrong secret must not verify")
	}
	if Verify("secret-a", payload, "not-hex") {
		t.Fatal("non-hex signature must not verify")
	}
	if Verify("", payload, signature) {
		t.Fatal("empty secret must not verify")
	}
	if Verify("secret-a", payload, "") {
		t.Fatal("empty signature must not verify")
	}
}
