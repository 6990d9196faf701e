package qr

import (
	"encoding/json"
	"testing"
	"time"
)

func samplePayload() TicketPayload {
	return TicketPayload{
		TicketNumber: "TKT-EVENT1-123456789",
		EventID:      "event-1",
		UserID:       "user-1",
		TicketType:   "General",
		IssuedAt:     time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	g := NewGenerator("gate-scanner-secret")

	data, err := json.Marshal(samplePayload())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if encrypted == string(data) {
		t.Fatal("ciphertext must differ from plaintext")
	}

	decrypted, err := g.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if *decrypted != samplePayload() {
		t.Errorf("payload mismatch after round trip: %+v", decrypted)
	}
}

func TestDecryptWithWrongSecret(t *testing.T) {
	g := NewGenerator("gate-scanner-secret")
	other := NewGenerator("different-secret")

	data, err := json.Marshal(samplePayload())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	// Wrong key produces garbage, which must fail JSON decoding rather
	// than yield a plausible ticket.
	if _, err := other.Decrypt(encrypted); err == nil {
		t.Fatal("decrypt with wrong secret should fail")
	}
}

func TestGenerateEncryptedQRProducesPNG(t *testing.T) {
	g := NewGenerator("gate-scanner-secret")

	png, err := g.GenerateEncryptedQR(samplePayload())
	if err != nil {
		t.Fatalf("GenerateEncryptedQR failed: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty QR image")
	}
	// PNG magic bytes
	if png[0] != 0x89 || string(png[1:4]) != "PNG" {
		t.Error("output is not a PNG image")
	}
}

func TestGeneratorNormalizesSecretLength(t *testing.T) {
	// Any secret length must produce a valid AES key.
	for _, secret := range []string{"", "short", "a-much-longer-secret-than-thirty-two-bytes-worth"} {
		g := NewGenerator(secret)
		if _, err := g.GenerateEncryptedQR(samplePayload()); err != nil {
			t.Errorf("secret %q: %v", secret, err)
		}
	}
}
