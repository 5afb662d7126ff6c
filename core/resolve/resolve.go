// Package resolve turns a parsed DataLang file into a schema by applying each
// entity's include and exclude directives in source order.
package resolve

import (
	"fmt"
	"strings"

	"github.com/artpar/datalang/core/ast"
	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/schema"
)

// Options controls reference checking.
type Options struct {
	// StrictReferences requires un-namespaced directives to name a term or
	// entity declared somewhere in the file.
	StrictReferences bool

	// Sink receives a warning for each exclude that removes nothing.
	Sink diagnostic.Sink
}

// Resolve builds the schema for file. The first resolution error aborts the
// whole compilation; no partial schema is returned.
func Resolve(file *ast.File, opts Options) (*schema.Schema, error) {
	r := newResolver(file, opts)
	s := &schema.Schema{}

	for _, item := range file.Items {
		switch it := item.(type) {
		case *ast.Dictionary:
			s.Dictionaries = append(s.Dictionaries, it.Name)
			r.namespaces[it.Name] = true
		case *ast.Import:
			s.Imports = append(s.Imports, it.Module)
			r.namespaces[it.Module] = true
		case *ast.Term:
			e, err := r.resolveTerm(it)
			if err != nil {
				return nil, err
			}
			s.Entities = append(s.Entities, e)
			r.remember(e)
		case *ast.Struct:
			e, err := r.resolveStruct(it)
			if err != nil {
				return nil, err
			}
			s.Entities = append(s.Entities, e)
			r.remember(e)
		}
	}

	return s, nil
}

type resolver struct {
	opts Options

	// namespaces holds dictionary and import names seen so far.
	namespaces map[string]bool

	// entities holds entities resolved so far, first declaration wins.
	entities map[string]schema.Entity

	// declared holds every term and entity name in the file, lower-cased.
	declared map[string]bool
}

func newResolver(file *ast.File, opts Options) *resolver {
	r := &resolver{
		opts:       opts,
		namespaces: make(map[string]bool),
		entities:   make(map[string]schema.Entity),
		declared:   make(map[string]bool),
	}
	for _, item := range file.Entities() {
		r.declared[strings.ToLower(item.ItemName())] = true
	}
	return r
}

func (r *resolver) remember(e schema.Entity) {
	if _, ok := r.entities[e.Name]; !ok {
		r.entities[e.Name] = e
	}
}

func (r *resolver) resolveTerm(t *ast.Term) (schema.Entity, error) {
	e := schema.Entity{Name: t.Name, Kind: schema.KindTerm, Pos: t.Pos}
	if t.IsPrimitive() {
		e.Primitive = true
		e.Fields = []schema.Field{{Name: strings.ToLower(t.Name), Pos: t.Pos}}
		return e, nil
	}

	fields, err := r.apply(subject(e), nil, t.Fields)
	if err != nil {
		return schema.Entity{}, err
	}
	e.Fields = fields
	return e, nil
}

func (r *resolver) resolveStruct(st *ast.Struct) (schema.Entity, error) {
	e := schema.Entity{Name: st.Name, Kind: schema.KindStruct, Pos: st.Pos}

	var inherited []schema.Field
	if parent, ok := st.Parent(); ok {
		if len(st.Traits) > 1 {
			return schema.Entity{}, diagnostic.Structural(st.Traits[1].Pos, subject(e),
				fmt.Sprintf("only one trait parent is allowed, found %d", len(st.Traits)))
		}
		p, ok := r.entities[parent.Name]
		if !ok {
			return schema.Entity{}, diagnostic.Structural(parent.Pos, subject(e),
				fmt.Sprintf("trait parent '%s' must be declared before %s", parent.Name, st.Name))
		}
		if p.Parent != "" {
			return schema.Entity{}, diagnostic.Structural(parent.Pos, subject(e),
				fmt.Sprintf("multi-level inheritance is not supported: '%s' already inherits from '%s'", p.Name, p.Parent))
		}
		e.Parent = p.Name
		inherited = make([]schema.Field, len(p.Fields))
		for i, f := range p.Fields {
			inherited[i] = schema.Field{
				Name:        f.Name,
				Namespace:   p.Name,
				Constraints: append([]schema.Constraint(nil), f.Constraints...),
				Pos:         parent.Pos,
			}
		}
	}

	fields, err := r.apply(subject(e), inherited, st.Fields)
	if err != nil {
		return schema.Entity{}, err
	}
	e.Fields = fields
	return e, nil
}

// apply runs refs over the seed field list in order. Include appends a field
// unless present, merging constraints into an existing one; exclude removes it
// if present.
func (r *resolver) apply(ctx string, seed []schema.Field, refs []ast.FieldReference) ([]schema.Field, error) {
	fields := seed
	for _, ref := range refs {
		inherited, err := r.checkReference(ctx, ref)
		if err != nil {
			return nil, err
		}

		name := strings.ToLower(ref.Name)
		idx := indexOf(fields, name)

		if ref.IsExcluded() {
			if idx >= 0 {
				fields = append(fields[:idx:idx], fields[idx+1:]...)
			} else if r.opts.Sink != nil {
				r.opts.Sink.Notify(diagnostic.Notice{
					Level:   diagnostic.LevelWarning,
					Pos:     ref.Pos,
					Subject: ctx,
					Message: fmt.Sprintf("exclude of '%s' has no effect: field is not present", name),
				})
			}
			continue
		}

		constraints := append(append([]schema.Constraint(nil), inherited...), attributeConstraints(ref)...)
		if idx >= 0 {
			fields[idx].Constraints = mergeConstraints(fields[idx].Constraints, constraints)
			continue
		}
		fields = append(fields, schema.Field{
			Name:        name,
			Namespace:   ref.Namespace,
			Constraints: mergeConstraints(nil, constraints),
			Pos:         ref.Pos,
		})
	}
	return fields, nil
}

// checkReference validates the target of ref. For NS::Name where NS is an
// entity it returns the constraints of the referenced field.
func (r *resolver) checkReference(ctx string, ref ast.FieldReference) ([]schema.Constraint, error) {
	if ref.HasNamespace() {
		if r.namespaces[ref.Namespace] {
			return nil, nil
		}
		owner, ok := r.entities[ref.Namespace]
		if !ok {
			return nil, diagnostic.Namespace(ref.Pos, ref.Namespace, ref.Name)
		}
		f, ok := owner.Field(ref.Name)
		if !ok {
			return nil, diagnostic.FieldRef(ref.Pos, ref.FullName(),
				fmt.Sprintf("%s has no field '%s'", owner.Name, strings.ToLower(ref.Name)))
		}
		return f.Constraints, nil
	}

	if r.opts.StrictReferences && !ref.Declared && !r.declared[strings.ToLower(ref.Name)] {
		return nil, diagnostic.FieldRef(ref.Pos, ref.FullName(),
			fmt.Sprintf("no term or entity named '%s' is declared (in %s)", ref.Name, ctx))
	}
	return nil, nil
}

func attributeConstraints(ref ast.FieldReference) []schema.Constraint {
	if len(ref.Attributes) == 0 {
		return nil
	}
	out := make([]schema.Constraint, len(ref.Attributes))
	for i, a := range ref.Attributes {
		out[i] = schema.NewConstraint(a.Name, a.Op, a.Value, a.Pos)
	}
	return out
}

func mergeConstraints(dst, src []schema.Constraint) []schema.Constraint {
	for _, c := range src {
		dup := false
		for _, d := range dst {
			if d.String() == c.String() {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, c)
		}
	}
	return dst
}

func indexOf(fields []schema.Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func subject(e schema.Entity) string {
	return fmt.Sprintf("%s %s", e.Kind, e.Name)
}
