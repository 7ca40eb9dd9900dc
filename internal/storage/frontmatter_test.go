package storage

import "testing"

func TestParseFrontmatterRoundTrip(t *testing.T) {
	input := "---\nversion: 1\nconfidence: 0.8\n---\n# Hello\n\nBody text.\n"

	fm, body, err := ParseFrontmatter([]byte(input))
	if err != nil {
		t.Fatalf("ParseFrontmatter() error = %v", err)
	}
	if fm["version"] != 1 {
		t.Errorf("fm[version] = %v, want 1", fm["version"])
	}
	if body != "# Hello\n\nBody text.\n" {
		t.Errorf("body = %q", body)
	}

	out, err := SerializeFrontmatter(fm, body)
	if err != nil {
		t.Fatalf("SerializeFrontmatter() error = %v", err)
	}

	fm2, body2, err := ParseFrontmatter([]byte(out))
	if err != nil {
		t.Fatalf("re-parse error = %v", err)
	}
	if body2 != body {
		t.Errorf("body changed across round-trip: %q vs %q", body2, body)
	}
	if fm2["version"] != fm["version"] {
		t.Errorf("version changed across round-trip: %v vs %v", fm2["version"], fm["version"])
	}
}

func TestParseFrontmatterMissingDelimiter(t *testing.T) {
	_, _, err := ParseFrontmatter([]byte("no frontmatter here"))
	if err == nil {
		t.Fatal("expected error for missing delimiter")
	}
}

func TestParseFrontmatterUnknownKeysSurvive(t *testing.T) {
	input := "---\nversion: 1\nexperimentalFlag: true\nnested:\n  untyped: value\n---\nbody\n"
	fm, _, err := ParseFrontmatter([]byte(input))
	if err != nil {
		t.Fatalf("ParseFrontmatter() error = %v", err)
	}
	if fm["experimentalFlag"] != true {
		t.Errorf("unknown scalar key lost: %v", fm["experimentalFlag"])
	}
	nested, ok := fm["nested"].(map[string]interface{})
	if !ok || nested["untyped"] != "value" {
		t.Errorf("unknown nested key lost: %v", fm["nested"])
	}
}
