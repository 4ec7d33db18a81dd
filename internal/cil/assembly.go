package cil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Assembly is a loaded set of type definitions plus the references the
// bodies mention. References to members outside the assembly are interned,
// so the same textual reference always yields the same handle.
type Assembly struct {
	Name  string
	Types []*TypeDef

	defined        map[string]*TypeDef
	externalTypes  map[string]*TypeDef
	externalMethod map[string]*MethodDef
	externalField  map[string]*FieldDef
}

// NewAssembly creates an empty assembly.
func NewAssembly(name string) *Assembly {
	return &Assembly{
		Name:           name,
		defined:        make(map[string]*TypeDef),
		externalTypes:  make(map[string]*TypeDef),
		externalMethod: make(map[string]*MethodDef),
		externalField:  make(map[string]*FieldDef),
	}
}

// DefineType declares a type in the assembly. Defining the same name twice
// returns the existing definition.
func (a *Assembly) DefineType(fullName string) *TypeDef {
	fullName = normalizeTypeName(fullName)
	if t, ok := a.defined[fullName]; ok {
		return t
	}
	t := NewType(fullName)
	a.defined[fullName] = t
	a.Types = append(a.Types, t)
	return t
}

// TypeByName returns the defined type with the given name, or an interned
// external reference.
func (a *Assembly) TypeByName(fullName string) *TypeDef {
	fullName = normalizeTypeName(fullName)
	if t, ok := a.defined[fullName]; ok {
		return t
	}
	if t, ok := a.externalTypes[fullName]; ok {
		return t
	}
	t := NewType(fullName)
	a.externalTypes[fullName] = t
	return t
}

// Methods returns every method defined in the assembly, in declaration order.
func (a *Assembly) Methods() []*MethodDef {
	var out []*MethodDef
	for _, t := range a.Types {
		out = append(out, t.Methods...)
	}
	return out
}

// FindMethod looks up a defined method by "Type::Name" or "Type::Name(arity)".
func (a *Assembly) FindMethod(name string) (*MethodDef, error) {
	arity := -1
	if open := strings.Index(name, "("); open >= 0 && strings.HasSuffix(name, ")") {
		n, err := strconv.Atoi(name[open+1 : len(name)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid arity in %q: %w", name, err)
		}
		arity = n
		name = name[:open]
	}
	sep := strings.LastIndex(name, "::")
	if sep < 0 {
		return nil, fmt.Errorf("%w: %q is not a qualified name", ErrMethodNotFound, name)
	}
	t, ok := a.defined[normalizeTypeName(name[:sep])]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
	}
	m := t.MethodByName(name[sep+2:], arity)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
	}
	return m, nil
}

// ResolveMethod returns the definition matching the reference when the
// declaring type is defined here, otherwise an interned reference.
func (a *Assembly) ResolveMethod(ref MethodRef) *MethodDef {
	typeName := normalizeTypeName(ref.Type)
	if t, ok := a.defined[typeName]; ok {
		if m := t.MethodByName(ref.Name, len(ref.Params)); m != nil {
			return m
		}
	}
	key := ref.key()
	if m, ok := a.externalMethod[key]; ok {
		return m
	}
	m := &MethodDef{
		name:      ref.Name,
		declaring: a.TypeByName(typeName),
		hasThis:   ref.HasThis,
		void:      ref.Void,
	}
	for i, p := range ref.Params {
		m.params = append(m.params, &Parameter{
			Index: i,
			Type:  a.TypeByName(strings.TrimSuffix(p, "&")),
			ByRef: strings.HasSuffix(p, "&"),
		})
	}
	a.externalMethod[key] = m
	return m
}

// ResolveField returns the defined field or an interned reference.
func (a *Assembly) ResolveField(typeName, name string, static bool) *FieldDef {
	typeName = normalizeTypeName(typeName)
	if t, ok := a.defined[typeName]; ok {
		if f := t.FieldByName(name); f != nil {
			return f
		}
	}
	key := typeName + "::" + name
	if f, ok := a.externalField[key]; ok {
		return f
	}
	f := NewField(a.TypeByName(typeName), name, static)
	a.externalField[key] = f
	return f
}

// ExternalMethods returns the interned method references, sorted by name.
func (a *Assembly) ExternalMethods() []*MethodDef {
	out := make([]*MethodDef, 0, len(a.externalMethod))
	for _, m := range a.externalMethod {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature() < out[j].Signature() })
	return out
}

// MethodRef is a parsed textual method reference such as
// "instance bool Data.Db::TryGet(int32, class Order&)".
type MethodRef struct {
	HasThis bool
	Void    bool
	Return  string
	Type    string
	Name    string
	Params  []string
}

func (r MethodRef) key() string {
	prefix := ""
	if r.HasThis {
		prefix = "instance "
	}
	return prefix + normalizeTypeName(r.Type) + "::" + r.Name + "(" + strings.Join(r.Params, ",") + ")"
}

// ParseMethodRef parses a method reference in listing syntax.
func ParseMethodRef(s string) (MethodRef, error) {
	var ref MethodRef
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "instance "); ok {
		ref.HasThis = true
		s = strings.TrimSpace(rest)
	}
	open := strings.Index(s, "(")
	closing := strings.LastIndex(s, ")")
	if open < 0 || closing < open {
		return ref, fmt.Errorf("invalid method reference %q: missing parameter list", s)
	}
	head := strings.TrimSpace(s[:open])
	sep := strings.LastIndex(head, "::")
	if sep < 0 {
		return ref, fmt.Errorf("invalid method reference %q: missing '::'", s)
	}
	ref.Name = head[sep+2:]
	left := strings.TrimSpace(head[:sep])
	if sp := strings.LastIndex(left, " "); sp >= 0 {
		ref.Return = strings.TrimSpace(left[:sp])
		ref.Type = left[sp+1:]
	} else {
		ref.Type = left
	}
	if ref.Type == "" || ref.Name == "" {
		return ref, fmt.Errorf("invalid method reference %q", s)
	}
	ref.Void = ref.Return == "" || ref.Return == "void"
	for _, p := range splitTopLevel(s[open+1 : closing]) {
		ref.Params = append(ref.Params, normalizeTypeName(p))
	}
	return ref, nil
}

// splitTopLevel splits a comma separated list, ignoring commas nested in
// generic arguments.
func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, ch := range s {
		switch ch {
		case '<', '[':
			depth++
		case '>', ']':
			depth--
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

// normalizeTypeName strips ilasm decorations: "class", "valuetype" and the
// "[assembly]" scope prefix.
func normalizeTypeName(name string) string {
	name = strings.TrimSpace(name)
	for _, prefix := range []string{"class ", "valuetype "} {
		name = strings.TrimPrefix(name, prefix)
	}
	if strings.HasPrefix(name, "[") {
		if end := strings.Index(name, "]"); end > 0 {
			name = name[end+1:]
		}
	}
	return strings.TrimSpace(name)
}
