package storage

import (
	"testing"

	"github.com/awp-dev/awpengine/internal/awperr"
)

func TestValidateArtifactPasses(t *testing.T) {
	r := DefaultRegistry()
	fm := map[string]interface{}{
		"version":    1,
		"confidence": 0.8,
		"authors":    []interface{}{"did:key:zABC"},
		"provenance": []interface{}{map[string]interface{}{"action": "created"}},
	}
	if err := r.Validate("artifact", fm); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateArtifactMissingRequiredField(t *testing.T) {
	r := DefaultRegistry()
	fm := map[string]interface{}{
		"version": 1,
	}
	err := r.Validate("artifact", fm)
	if awperr.Of(err) != awperr.SchemaViolation {
		t.Fatalf("expected SchemaViolation, got %v", err)
	}
}

func TestValidateConfidenceOutOfRange(t *testing.T) {
	r := DefaultRegistry()
	fm := map[string]interface{}{
		"version":    1,
		"confidence": 1.5,
		"authors":    []interface{}{"did:key:zABC"},
		"provenance": []interface{}{},
	}
	err := r.Validate("artifact", fm)
	if awperr.Of(err) != awperr.SchemaViolation {
		t.Fatalf("expected SchemaViolation for out-of-range confidence, got %v", err)
	}
}

func TestValidateContractStatusEnum(t *testing.T) {
	r := DefaultRegistry()
	fm := map[string]interface{}{
		"status":    "bogus",
		"delegator": "did:key:zA",
		"delegate":  "did:key:zB",
		"task":      "review the PR",
	}
	err := r.Validate("contract", fm)
	if awperr.Of(err) != awperr.SchemaViolation {
		t.Fatalf("expected SchemaViolation for bad enum, got %v", err)
	}
}

func TestValidateUnknownTypePassesThrough(t *testing.T) {
	r := DefaultRegistry()
	if err := r.Validate("not-a-real-type", map[string]interface{}{"anything": 1}); err != nil {
		t.Fatalf("unknown type should pass through, got %v", err)
	}
}
