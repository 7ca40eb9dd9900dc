package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/awp-dev/awpengine/internal/awperr"
)

// FieldSchema is a JSON-Schema-draft-2020 subset: enough structural
// validation for this protocol's frontmatter shapes without depending on
// a third-party JSON-Schema library (none appears in the retrieved
// corpus — see DESIGN.md).
type FieldSchema struct {
	Type       string                 `json:"type,omitempty"`
	Enum       []string               `json:"enum,omitempty"`
	Minimum    *float64               `json:"minimum,omitempty"`
	Maximum    *float64               `json:"maximum,omitempty"`
	Items      *FieldSchema           `json:"items,omitempty"`
	Properties map[string]FieldSchema `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// Schema is the top-level document for one entity type.
type Schema struct {
	Schema string `json:"$schema,omitempty"`
	ID     string `json:"$id,omitempty"`
	FieldSchema
}

// Registry maps entity type name to its Schema. It is safe for concurrent
// use; Validate is called on every write.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewRegistry returns an empty registry. Unknown types validate as
// pass-through, so an empty registry accepts everything until schemas are
// registered.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register parses schemaJSON and stores it under typ, stripping $schema
// and $id first; neither is a FieldSchema keyword, and the stored Schema
// keeps only the decoded FieldSchema.
func (r *Registry) Register(typ string, schemaJSON []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(schemaJSON, &raw); err != nil {
		return awperr.Wrap(awperr.CorruptState, "Registry.Register", "parse schema JSON", err)
	}
	delete(raw, "$schema")
	delete(raw, "$id")
	stripped, err := json.Marshal(raw)
	if err != nil {
		return awperr.Wrap(awperr.IoError, "Registry.Register", "re-marshal stripped schema", err)
	}

	var s Schema
	if err := json.Unmarshal(stripped, &s.FieldSchema); err != nil {
		return awperr.Wrap(awperr.CorruptState, "Registry.Register", "decode schema", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[typ] = s
	return nil
}

// LoadDir registers every "<type>.schema.json" file found directly under
// dir. A missing directory is not an error — schema files are optional.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return awperr.Wrap(awperr.IoError, "Registry.LoadDir", "read schema directory", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".schema.json") {
			continue
		}
		typ := strings.TrimSuffix(e.Name(), ".schema.json")
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return awperr.Wrap(awperr.IoError, "Registry.LoadDir", "read schema file "+e.Name(), err)
		}
		if err := r.Register(typ, data); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks frontmatter against the schema registered for typ.
// An unknown typ passes through (no schema registered for it yet).
func (r *Registry) Validate(typ string, frontmatter map[string]interface{}) error {
	r.mu.RLock()
	s, ok := r.schemas[typ]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	var violations []awperr.Violation
	walk("", s.FieldSchema, frontmatter, &violations)
	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool { return violations[i].Pointer < violations[j].Pointer })
		return awperr.WithViolations("Registry.Validate", fmt.Sprintf("%s failed schema validation", typ), violations)
	}
	return nil
}

func walk(pointer string, schema FieldSchema, value interface{}, out *[]awperr.Violation) {
	for _, req := range schema.Required {
		obj, _ := value.(map[string]interface{})
		if obj == nil {
			*out = append(*out, awperr.Violation{Pointer: pointer, Message: "expected an object"})
			return
		}
		if _, present := obj[req]; !present {
			*out = append(*out, awperr.Violation{Pointer: pointer + "/" + req, Message: "required field missing"})
		}
	}

	if value == nil {
		return
	}

	if schema.Type != "" && !matchesType(schema.Type, value) {
		*out = append(*out, awperr.Violation{Pointer: pointer, Message: fmt.Sprintf("expected type %s", schema.Type)})
		return
	}

	if len(schema.Enum) > 0 {
		s, ok := value.(string)
		if !ok || !contains(schema.Enum, s) {
			*out = append(*out, awperr.Violation{Pointer: pointer, Message: fmt.Sprintf("value must be one of %v", schema.Enum)})
		}
	}

	if n, ok := asFloat(value); ok {
		if schema.Minimum != nil && n < *schema.Minimum {
			*out = append(*out, awperr.Violation{Pointer: pointer, Message: fmt.Sprintf("value %v below minimum %v", n, *schema.Minimum)})
		}
		if schema.Maximum != nil && n > *schema.Maximum {
			*out = append(*out, awperr.Violation{Pointer: pointer, Message: fmt.Sprintf("value %v above maximum %v", n, *schema.Maximum)})
		}
	}

	if schema.Items != nil {
		if arr, ok := value.([]interface{}); ok {
			for i, elem := range arr {
				walk(fmt.Sprintf("%s/%d", pointer, i), *schema.Items, elem, out)
			}
		}
	}

	if len(schema.Properties) > 0 {
		obj, ok := value.(map[string]interface{})
		if !ok {
			return
		}
		for name, propSchema := range schema.Properties {
			child, present := obj[name]
			if !present {
				continue
			}
			walk(pointer+"/"+name, propSchema, child, out)
		}
	}
}

func matchesType(typ string, value interface{}) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		n, ok := asFloat(value)
		return ok && n == float64(int64(n))
	case "number":
		_, ok := asFloat(value)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	default:
		return true
	}
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
