package storage

// defaultSchemas holds the built-in JSON-Schema-subset documents for each
// entity type. They are registered at process start by DefaultRegistry,
// and may be overridden by files under the configured schema directory
// via Registry.LoadDir.
var defaultSchemas = map[string]string{
	"artifact": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$id": "awp:artifact",
		"type": "object",
		"required": ["version", "confidence", "authors", "provenance"],
		"properties": {
			"version": {"type": "integer", "minimum": 1},
			"confidence": {"type": "number", "minimum": 0, "maximum": 1},
			"authors": {"type": "array"},
			"tags": {"type": "array"},
			"provenance": {"type": "array"}
		}
	}`,
	"reputation": `{
		"$id": "awp:reputation",
		"type": "object",
		"required": ["agentDid"],
		"properties": {
			"agentDid": {"type": "string"},
			"agentName": {"type": "string"}
		}
	}`,
	"contract": `{
		"$id": "awp:contract",
		"type": "object",
		"required": ["status", "delegator", "delegate", "task"],
		"properties": {
			"status": {"type": "string", "enum": ["draft", "active", "completed", "evaluated"]},
			"delegator": {"type": "string"},
			"delegate": {"type": "string"},
			"task": {"type": "string"}
		}
	}`,
	"project": `{
		"$id": "awp:project",
		"type": "object",
		"required": ["status", "members"],
		"properties": {
			"status": {"type": "string", "enum": ["draft", "active", "paused", "completed", "archived"]},
			"taskCount": {"type": "integer", "minimum": 0},
			"completedCount": {"type": "integer", "minimum": 0}
		}
	}`,
	"task": `{
		"$id": "awp:task",
		"type": "object",
		"required": ["status", "priority", "projectId"],
		"properties": {
			"status": {"type": "string", "enum": ["pending", "in-progress", "blocked", "review", "completed", "cancelled"]},
			"priority": {"type": "string", "enum": ["low", "medium", "high", "critical"]}
		}
	}`,
}

// DefaultRegistry returns a Registry pre-loaded with the built-in schemas
// for every entity type this repo defines.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for typ, doc := range defaultSchemas {
		if err := r.Register(typ, []byte(doc)); err != nil {
			// Built-in schemas are authored correctly; a failure here is a
			// programmer error caught immediately by tests, not a runtime
			// condition callers need to handle.
			panic("storage: invalid built-in schema for " + typ + ": " + err.Error())
		}
	}
	return r
}
