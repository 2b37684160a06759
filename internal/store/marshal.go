package store

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Metadata blobs reuse the json struct tags of the ir types, so the stored
// field names match the JSON output of the CLI.
const structTag = "json"

func marshalBlob(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(structTag)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal blob: %w", err)
	}
	return buf.Bytes(), nil
}

func unmarshalBlob(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag(structTag)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("unmarshal blob: %w", err)
	}
	return nil
}

// marshalStrings stores an empty list as NULL.
func marshalStrings(s []string) ([]byte, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return marshalBlob(s)
}

func unmarshalStrings(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var s []string
	if err := unmarshalBlob(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}
