package api

import (
	"bytes"
	"encoding/json"
)

// MarshalIndent encodes v as indented JSON without escaping HTML characters,
// so Cyrillic text and symbols such as "&" stay readable. The result has no
// trailing newline.
func MarshalIndent(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
