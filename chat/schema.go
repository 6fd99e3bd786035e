package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaURL is the resource name compiled schemas are registered under.
const schemaURL = "mem://response.schema.json"

// Schema is a compiled JSON Schema that replies must satisfy.
type Schema struct {
	source   string
	compiled *jsonschema.Schema
}

// CompileSchema compiles a JSON Schema document.
func CompileSchema(src string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{source: src, compiled: compiled}, nil
}

// Source returns the schema document as given.
func (s *Schema) Source() string {
	return s.source
}

// Validate extracts the JSON value from a model reply and checks it against
// the schema. It returns the extracted JSON on success.
func (s *Schema) Validate(reply string) (json.RawMessage, error) {
	raw, ok := extractJSON(reply)
	if !ok {
		return nil, fmt.Errorf("no JSON value found in the response")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.compiled.Validate(v); err != nil {
		return nil, err
	}
	return raw, nil
}

// extractJSON finds the JSON value in a reply: the whole text if it parses,
// else the first ```json fenced block, else the first balanced object or array.
func extractJSON(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), true
	}

	if block, ok := fencedBlock(trimmed); ok && json.Valid([]byte(block)) {
		return json.RawMessage(block), true
	}

	for start := 0; start < len(trimmed); start++ {
		if trimmed[start] != '{' && trimmed[start] != '[' {
			continue
		}
		end := balancedEnd(trimmed, start)
		if end < 0 {
			continue
		}
		candidate := trimmed[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), true
		}
	}
	return nil, false
}

// fencedBlock returns the body of the first ``` fence in text.
func fencedBlock(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	rest := text[open+3:]
	// Skip the info string, e.g. "json".
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return "", false
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedEnd returns the index of the bracket closing the one at start,
// ignoring brackets inside string literals, or -1.
func balancedEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
