package storage

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/awp-dev/awpengine/internal/awperr"
)

// SafeWriteJSON serializes value with stable key ordering (Go struct field
// declaration order, or sorted map keys for map[string]any values — both
// of which encoding/json already produces) and 2-space indentation, then
// atomic-writes it to path.
func SafeWriteJSON(path string, value interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return awperr.Wrap(awperr.IoError, "SafeWriteJSON", "marshal value", err)
	}
	return AtomicWrite(path, buf.Bytes(), 0o644)
}

// LoadJSON reads path and decodes it into dst. A missing file leaves dst
// untouched and returns (false, nil). Malformed JSON fails CorruptState.
func LoadJSON(path string, dst interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, awperr.Wrap(awperr.IoError, "LoadJSON", "read file", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, awperr.Wrap(awperr.CorruptState, "LoadJSON", "parse JSON", err)
	}
	return true, nil
}
