package golang

const fileTemplate = `// Code generated by datalang. DO NOT EDIT.

package {{.Package}}
{{if .Imports}}
import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)
{{end}}
{{- range .Entities}}
{{- $recv := .Receiver}}
{{- $type := .TypeName}}

// {{.TypeName}} is generated from {{.Kind}} {{.Name}}.
type {{.TypeName}} struct {
{{- range .Fields}}
	{{.GoName}} string ` + "`" + `json:"{{.Name}}"` + "`" + `
{{- end}}
}

// {{.Constructor}} returns a new {{.TypeName}} with every field set to "".
func {{.Constructor}}() *{{.TypeName}} {
	return &{{.TypeName}}{
{{- range .Fields}}
		{{.GoName}}: "",
{{- end}}
	}
}
{{- range .Constrained}}

// {{.Validator}} checks the constraints declared on {{.Name}}.
func ({{$recv}} *{{$type}}) {{.Validator}}() error {
{{- range .Checks}}
	{{.}}
{{- end}}
	return nil
}
{{- end}}

// Validate checks every constrained field of {{.TypeName}}.
func ({{$recv}} *{{$type}}) Validate() error {
{{- if .Constrained}}
	return errors.Join(
{{- range .Constrained}}
		{{$recv}}.{{.Validator}}(),
{{- end}}
	)
{{- else}}
	return nil
{{- end}}
}
{{- end}}
`
