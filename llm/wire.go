package llm

import (
	"encoding/json"
	"fmt"
)

// RequireFields checks that body is a JSON object containing every named
// top-level field. Codecs use it before decoding into lenient SDK types so a
// schema-mismatched body is reported instead of silently decoding to zero values.
func RequireFields(body []byte, fields ...string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return err
	}
	for _, f := range fields {
		raw, ok := obj[f]
		if !ok || string(raw) == "null" {
			return fmt.Errorf("missing field %q", f)
		}
	}
	return nil
}
