package emit

import (
	"bytes"
	"fmt"
	"io"

	"github.com/artpar/datalang/core/schema"
	"gopkg.in/yaml.v3"
)

// YAMLEmitter writes the resolved schema as a YAML document.
type YAMLEmitter struct{}

// NewYAMLEmitter creates a new YAML emitter.
func NewYAMLEmitter() *YAMLEmitter {
	return &YAMLEmitter{}
}

func (e *YAMLEmitter) Name() string { return "yaml" }
func (e *YAMLEmitter) Description() string { return "Resolved schema as YAML" }
func (e *YAMLEmitter) Extension() string { return ".yaml" }

// Emit encodes s.
func (e *YAMLEmitter) Emit(s *schema.Schema, _ Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeYAML(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeYAML writes v as a two-space indented YAML document.
func EncodeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return encoder.Close()
}

func init() {
	if err := Register(NewYAMLEmitter()); err != nil {
		fmt.Printf("failed to register yaml emitter: %v\n", err)
	}
}
