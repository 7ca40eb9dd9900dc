// Package identity generates and encodes agent DIDs). The primary encoding is did:key multibase-base58btc
// over an ed25519 public key; a legacy base64url form is accepted on read
// but never silently rewritten (DESIGN.md decision (a)).
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/awp-dev/awpengine/internal/awperr"
)

const didKeyPrefix = "did:key:z"

// multicodecEd25519Pub is the 0xed01 varint prefix for an ed25519 public
// key in a multicodec value.
var multicodecEd25519Pub = []byte{0xed, 0x01}

// KeyPair is a generated agent identity.
type KeyPair struct {
	DID        string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// Generate creates a fresh ed25519 keypair and its did:key DID.
func Generate() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, awperr.Wrap(awperr.IoError, "Generate", "generate ed25519 key", err)
	}
	return &KeyPair{DID: EncodeDID(pub), PublicKey: pub, PrivateKey: priv}, nil
}

// EncodeDID renders pub as a did:key base58btc multibase string.
func EncodeDID(pub ed25519.PublicKey) string {
	payload := append(append([]byte{}, multicodecEd25519Pub...), pub...)
	return didKeyPrefix + base58Encode(payload)
}

// EncodeDIDBase64URL renders pub as a legacy base64url-encoded DID. Only
// used when a workspace was created before base58btc support; never
// produced for new identities.
func EncodeDIDBase64URL(pub ed25519.PublicKey) string {
	payload := append(append([]byte{}, multicodecEd25519Pub...), pub...)
	return "did:key:u" + base64.RawURLEncoding.EncodeToString(payload)
}

// DecodePublicKey extracts the ed25519 public key from a did:key DID in
// either encoding. Consumers must treat DIDs as opaque; this is only used
// by identity tooling that needs the raw key (e.g. signature verification).
func DecodePublicKey(did string) (ed25519.PublicKey, error) {
	switch {
	case strings.HasPrefix(did, "did:key:z"):
		payload, err := base58Decode(strings.TrimPrefix(did, "did:key:z"))
		if err != nil {
			return nil, awperr.Wrap(awperr.SchemaViolation, "DecodePublicKey", "decode base58btc DID", err)
		}
		return trimMulticodec(payload)
	case strings.HasPrefix(did, "did:key:u"):
		payload, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(did, "did:key:u"))
		if err != nil {
			return nil, awperr.Wrap(awperr.SchemaViolation, "DecodePublicKey", "decode base64url DID", err)
		}
		return trimMulticodec(payload)
	default:
		return nil, awperr.New(awperr.SchemaViolation, "DecodePublicKey", "unrecognized DID form: "+did)
	}
}

func trimMulticodec(payload []byte) (ed25519.PublicKey, error) {
	if len(payload) != len(multicodecEd25519Pub)+ed25519.PublicKeySize {
		return nil, awperr.New(awperr.SchemaViolation, "trimMulticodec", "unexpected DID payload length")
	}
	if payload[0] != multicodecEd25519Pub[0] || payload[1] != multicodecEd25519Pub[1] {
		return nil, awperr.New(awperr.SchemaViolation, "trimMulticodec", "unexpected multicodec prefix")
	}
	return ed25519.PublicKey(payload[len(multicodecEd25519Pub):]), nil
}
