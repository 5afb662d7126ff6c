package emit

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/artpar/datalang/core/schema"
)

// TableEmitter renders the resolved schema as an aligned text table.
type TableEmitter struct{}

// NewTableEmitter creates a new table emitter.
func NewTableEmitter() *TableEmitter {
	return &TableEmitter{}
}

func (e *TableEmitter) Name() string { return "table" }
func (e *TableEmitter) Description() string { return "Aligned text table of entities and fields" }
func (e *TableEmitter) Extension() string { return ".txt" }

// Emit writes one row per entity.
func (e *TableEmitter) Emit(s *schema.Schema, _ Options) ([]byte, error) {
	var buf bytes.Buffer
	if len(s.Entities) == 0 {
		fmt.Fprintln(&buf, "No entities found.")
		return buf.Bytes(), nil
	}

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tKIND\tPARENT\tFIELDS")
	for _, ent := range s.Entities {
		kind := string(ent.Kind)
		if ent.Primitive {
			kind += " (primitive)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ent.Name, kind, formatValue(ent.Parent), formatFields(ent.Fields))
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("write table: %w", err)
	}
	return buf.Bytes(), nil
}

// formatFields renders "name [length < 10], birthdate".
func formatFields(fields []schema.Field) string {
	if len(fields) == 0 {
		return "-"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		if len(f.Constraints) == 0 {
			parts[i] = f.Name
			continue
		}
		cs := make([]string, len(f.Constraints))
		for j, c := range f.Constraints {
			cs[j] = c.String()
		}
		parts[i] = fmt.Sprintf("%s [%s]", f.Name, strings.Join(cs, ", "))
	}
	return strings.Join(parts, ", ")
}

func formatValue(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	if err := Register(NewTableEmitter()); err != nil {
		fmt.Printf("failed to register table emitter: %v\n", err)
	}
}
