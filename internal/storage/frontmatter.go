package storage

import (
	"strings"

	"github.com/awp-dev/awpengine/internal/awperr"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ParseFrontmatter splits a file's leading "---\n...\n---\n" YAML block
// from its body, returning the frontmatter decoded into a plain
// map[string]interface{} (so unknown keys survive round-trips) and the body
// verbatim (including its own leading newline, if any, after the closing
// delimiter).
func ParseFrontmatter(data []byte) (map[string]interface{}, string, error) {
	text := string(data)
	lines := strings.Split(text, "\n")

	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != delimiter {
		return nil, "", awperr.New(awperr.CorruptState, "ParseFrontmatter", "missing opening --- delimiter")
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, "", awperr.New(awperr.CorruptState, "ParseFrontmatter", "missing closing --- delimiter")
	}

	yamlBlock := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")

	var fm map[string]interface{}
	if strings.TrimSpace(yamlBlock) != "" {
		if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
			return nil, "", awperr.Wrap(awperr.CorruptState, "ParseFrontmatter", "parse YAML block", err)
		}
	}
	if fm == nil {
		fm = map[string]interface{}{}
	}

	return fm, body, nil
}

// SerializeFrontmatter emits "---\n<yaml>\n---\n<body>" with a guaranteed
// trailing newline and LF-only line endings. fm is marshaled with
// gopkg.in/yaml.v3, which emits plain map keys in sorted order and struct
// fields in declaration order; callers that need a fixed key order
// should pass a yaml.Node or a struct rather than a plain map.
func SerializeFrontmatter(fm interface{}, body string) (string, error) {
	yamlBytes, err := yaml.Marshal(fm)
	if err != nil {
		return "", awperr.Wrap(awperr.IoError, "SerializeFrontmatter", "marshal YAML block", err)
	}

	body = strings.ReplaceAll(body, "\r\n", "\n")
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}

	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(string(yamlBytes), "\n"))
	b.WriteString("\n")
	b.WriteString(delimiter)
	b.WriteString("\n")
	b.WriteString(body)
	return b.String(), nil
}
