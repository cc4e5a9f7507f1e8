package services

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"hostkit/pkg/hosttypes"
)

// JSONService decodes, encodes and patches JSON documents.
type JSONService struct{}

// NewJSONService creates a new JSONService instance.
func NewJSONService() *JSONService {
	return &JSONService{}
}

// Name returns the service name "json" for registration.
func (j *JSONService) Name() string {
	return "json"
}

// Initialize is a no-op; the service is stateless.
func (j *JSONService) Initialize() error {
	return nil
}

// Decode parses a JSON document. Trailing data after the first value is an error.
func (j *JSONService) Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, hosttypes.WrapError("JSONService.Decode", hosttypes.KindInvalidArgument, err)
	}
	if dec.More() {
		return nil, hosttypes.NewError("JSONService.Decode", hosttypes.KindInvalidArgument, "unexpected data after JSON value")
	}
	return v, nil
}

// Encode renders v as compact JSON without HTML escaping.
func (j *JSONService) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, hosttypes.WrapError("JSONService.Encode", hosttypes.KindInvalidArgument, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Query evaluates a gjson path such as "users.#.name" against doc.
func (j *JSONService) Query(doc []byte, path string) (any, bool) {
	res := gjson.GetBytes(doc, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// Set returns doc with the value at path replaced, creating it when absent.
func (j *JSONService) Set(doc []byte, path string, value any) ([]byte, error) {
	out, err := sjson.SetBytes(doc, path, value)
	if err != nil {
		return nil, hosttypes.WrapError("JSONService.Set", hosttypes.KindInvalidArgument, err)
	}
	return out, nil
}
