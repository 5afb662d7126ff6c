package emit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/artpar/datalang/core/schema"
)

// JSONEmitter writes the resolved schema as a JSON document.
type JSONEmitter struct{}

// NewJSONEmitter creates a new JSON emitter.
func NewJSONEmitter() *JSONEmitter {
	return &JSONEmitter{}
}

func (e *JSONEmitter) Name() string { return "json" }
func (e *JSONEmitter) Description() string { return "Resolved schema as JSON" }
func (e *JSONEmitter) Extension() string { return ".json" }

// Emit encodes s.
func (e *JSONEmitter) Emit(s *schema.Schema, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if !opts.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(s); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	if err := Register(NewJSONEmitter()); err != nil {
		fmt.Printf("failed to register json emitter: %v\n", err)
	}
}
