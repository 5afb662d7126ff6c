package ast

// File is the ordered list of items parsed from one source text.
type File struct {
	Items []Item
}

// Dictionaries returns the declared dictionary names in source order.
func (f *File) Dictionaries() []string {
	var out []string
	for _, it := range f.Items {
		if d, ok := it.(*Dictionary); ok {
			out = append(out, d.Name)
		}
	}
	return out
}

// Imports returns the imported module names in source order.
func (f *File) Imports() []string {
	var out []string
	for _, it := range f.Items {
		if i, ok := it.(*Import); ok {
			out = append(out, i.Module)
		}
	}
	return out
}

// Terms returns every term item.
func (f *File) Terms() []*Term {
	var out []*Term
	for _, it := range f.Items {
		if t, ok := it.(*Term); ok {
			out = append(out, t)
		}
	}
	return out
}

// Structs returns every bare-identifier entity.
func (f *File) Structs() []*Struct {
	var out []*Struct
	for _, it := range f.Items {
		if s, ok := it.(*Struct); ok {
			out = append(out, s)
		}
	}
	return out
}

// Entities returns terms and structs in source order.
func (f *File) Entities() []Item {
	var out []Item
	for _, it := range f.Items {
		switch it.(type) {
		case *Term, *Struct:
			out = append(out, it)
		}
	}
	return out
}

// Fields returns the field references of the named term or struct.
func (f *File) Fields(name string) ([]FieldReference, bool) {
	for _, it := range f.Items {
		switch v := it.(type) {
		case *Term:
			if v.Name == name {
				return v.Fields, true
			}
		case *Struct:
			if v.Name == name {
				return v.Fields, true
			}
		}
	}
	return nil, false
}

// Has reports whether the file contains at least one item of kind k.
func (f *File) Has(k ItemKind) bool {
	for _, it := range f.Items {
		if it.Kind() == k {
			return true
		}
	}
	return false
}
