package identity

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateProducesValidDID(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(kp.DID, "did:key:z") {
		t.Errorf("DID = %q, want did:key:z prefix", kp.DID)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	pub, err := DecodePublicKey(kp.DID)
	if err != nil {
		t.Fatalf("DecodePublicKey() error = %v", err)
	}
	if !bytes.Equal(pub, kp.PublicKey) {
		t.Errorf("decoded public key does not match original")
	}
}

func TestBase64URLFallbackAccepted(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	legacy := EncodeDIDBase64URL(kp.PublicKey)
	pub, err := DecodePublicKey(legacy)
	if err != nil {
		t.Fatalf("DecodePublicKey(legacy) error = %v", err)
	}
	if !bytes.Equal(pub, kp.PublicKey) {
		t.Errorf("legacy-decoded public key does not match original")
	}
}

func TestBase58RoundTripWithLeadingZeroByte(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0xff}
	encoded := base58Encode(data)
	decoded, err := base58Decode(encoded)
	if err != nil {
		t.Fatalf("base58Decode() error = %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("base58 round trip = %v, want %v", decoded, data)
	}
}

func TestDecodePublicKeyRejectsUnknownForm(t *testing.T) {
	if _, err := DecodePublicKey("did:web:example.com"); err == nil {
		t.Fatal("expected error for unrecognized DID form")
	}
}
