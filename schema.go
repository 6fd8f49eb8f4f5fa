package codex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
)

// OutputSchemaFor derives a structured-output JSON schema from v's type
// using jsonschema struct tags. Definitions are inlined so the CLI
// receives one self-contained object.
func OutputSchemaFor(v any) *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return reflector.Reflect(v)
}

// createOutputSchemaFile materializes schema as a standalone JSON file in
// a fresh temporary directory and returns its path with a cleanup that
// removes the directory. A nil schema yields an empty path and a no-op
// cleanup. Non-object schemas are rejected before anything is written.
func createOutputSchemaFile(schema any) (string, func(), error) {
	if schema == nil {
		return "", func() {}, nil
	}

	encoded, err := json.Marshal(schema)
	if err != nil {
		return "", nil, fmt.Errorf("encode output schema: %w", err)
	}
	if !isJSONObject(encoded) {
		return "", nil, ErrInvalidOutputSchema
	}

	dir, err := os.MkdirTemp("", "codex-output-schema-")
	if err != nil {
		return "", nil, fmt.Errorf("create output schema dir: %w", err)
	}
	// Removal is best-effort: a cleanup failure must not mask the error
	// (if any) of the turn that owned the schema.
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write output schema: %w", err)
	}
	return path, cleanup, nil
}

// isJSONObject reports whether encoded JSON has an object at its top level.
func isJSONObject(encoded []byte) bool {
	trimmed := bytes.TrimLeft(encoded, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
