package cil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMethodNotFound is returned when a method lookup has no match.
var ErrMethodNotFound = errors.New("method not found")

// Type is a handle to a type. Handles compare by identity.
type Type interface {
	Name() string
	Namespace() string
	FullName() string
}

// Field is a handle to a field. Handles compare by identity.
type Field interface {
	Name() string
	DeclaringType() Type
	FullName() string
	IsStatic() bool
}

// Method is a handle to a method. Handles compare by identity.
type Method interface {
	Name() string
	DeclaringType() Type
	// FullName is the qualified name, "Namespace.Type::Name".
	FullName() string
	Params() []*Parameter
	// HasThis reports whether the method is bound to a receiver.
	HasThis() bool
	// IsVoid reports whether the return type carries no value.
	IsVoid() bool
	// Body returns nil for methods without IL (abstract, extern, references).
	Body() *Body
	Attributes() []string
}

// Parameter describes one declared parameter, excluding the receiver.
type Parameter struct {
	Index int
	Name  string
	Type  Type
	ByRef bool
}

func (p *Parameter) String() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("arg%d", p.Index)
}

var (
	_ Type   = (*TypeDef)(nil)
	_ Field  = (*FieldDef)(nil)
	_ Method = (*MethodDef)(nil)
)

// TypeDef is the in-memory Type. It doubles as a reference to a type
// declared outside of the loaded assembly, in which case it has no members.
type TypeDef struct {
	name       string
	namespace  string
	Fields     []*FieldDef
	Methods    []*MethodDef
	attributes []string
}

// NewType creates a type from its qualified name.
func NewType(fullName string) *TypeDef {
	ns, name := splitTypeName(fullName)
	return &TypeDef{name: name, namespace: ns}
}

func splitTypeName(fullName string) (string, string) {
	idx := strings.LastIndex(fullName, ".")
	if idx < 0 {
		return "", fullName
	}
	return fullName[:idx], fullName[idx+1:]
}

func (t *TypeDef) Name() string      { return t.name }
func (t *TypeDef) Namespace() string { return t.namespace }

func (t *TypeDef) FullName() string {
	if t.namespace == "" {
		return t.name
	}
	return t.namespace + "." + t.name
}

func (t *TypeDef) String() string { return t.FullName() }

// Attributes returns the custom attributes declared on the type.
func (t *TypeDef) Attributes() []string { return t.attributes }

// SetAttributes replaces the custom attributes of the type.
func (t *TypeDef) SetAttributes(attrs ...string) { t.attributes = attrs }

// AddField declares a field on the type.
func (t *TypeDef) AddField(name string, static bool) *FieldDef {
	f := &FieldDef{name: name, declaring: t, static: static}
	t.Fields = append(t.Fields, f)
	return f
}

// FieldByName returns the declared field with the given name, or nil.
func (t *TypeDef) FieldByName(name string) *FieldDef {
	for _, f := range t.Fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// AddMethod declares a method on the type.
func (t *TypeDef) AddMethod(m *MethodDef) *MethodDef {
	m.declaring = t
	t.Methods = append(t.Methods, m)
	return m
}

// MethodByName returns the first declared method with the given name and
// parameter count. A negative count matches any arity.
func (t *TypeDef) MethodByName(name string, params int) *MethodDef {
	for _, m := range t.Methods {
		if m.name == name && (params < 0 || len(m.params) == params) {
			return m
		}
	}
	return nil
}

// FieldDef is the in-memory Field.
type FieldDef struct {
	name      string
	declaring Type
	static    bool
}

// NewField creates a field reference that is not attached to a TypeDef.
func NewField(declaring Type, name string, static bool) *FieldDef {
	return &FieldDef{name: name, declaring: declaring, static: static}
}

func (f *FieldDef) Name() string        { return f.name }
func (f *FieldDef) DeclaringType() Type { return f.declaring }
func (f *FieldDef) IsStatic() bool      { return f.static }

func (f *FieldDef) FullName() string {
	if f.declaring == nil {
		return f.name
	}
	return f.declaring.FullName() + "::" + f.name
}

func (f *FieldDef) String() string { return f.FullName() }

// MethodDef is the in-memory Method.
type MethodDef struct {
	name       string
	declaring  Type
	params     []*Parameter
	hasThis    bool
	void       bool
	body       *Body
	attributes []string
}

// MethodOption configures a MethodDef.
type MethodOption func(*MethodDef)

// WithThis marks the method as bound to a receiver.
func WithThis() MethodOption {
	return func(m *MethodDef) { m.hasThis = true }
}

// Returning marks the method as returning a value.
func Returning() MethodOption {
	return func(m *MethodDef) { m.void = false }
}

// WithParams appends declared parameters.
func WithParams(params ...*Parameter) MethodOption {
	return func(m *MethodDef) {
		for _, p := range params {
			p.Index = len(m.params)
			m.params = append(m.params, p)
		}
	}
}

// WithAttributes sets the custom attributes of the method.
func WithAttributes(attrs ...string) MethodOption {
	return func(m *MethodDef) { m.attributes = attrs }
}

// NewMethod creates a static void method with no parameters, adjusted by opts.
func NewMethod(declaring Type, name string, opts ...MethodOption) *MethodDef {
	m := &MethodDef{name: name, declaring: declaring, void: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Param is a shorthand for a by-value parameter.
func Param(name string) *Parameter {
	return &Parameter{Name: name}
}

// ByRefParam is a shorthand for a by-reference parameter.
func ByRefParam(name string) *Parameter {
	return &Parameter{Name: name, ByRef: true}
}

func (m *MethodDef) Name() string         { return m.name }
func (m *MethodDef) DeclaringType() Type  { return m.declaring }
func (m *MethodDef) Params() []*Parameter { return m.params }
func (m *MethodDef) HasThis() bool        { return m.hasThis }
func (m *MethodDef) IsVoid() bool         { return m.void }
func (m *MethodDef) Body() *Body          { return m.body }
func (m *MethodDef) Attributes() []string { return m.attributes }
func (m *MethodDef) SetBody(body *Body)   { m.body = body }
func (m *MethodDef) String() string       { return m.FullName() }

func (m *MethodDef) FullName() string {
	if m.declaring == nil {
		return m.name
	}
	return m.declaring.FullName() + "::" + m.name
}

// Signature renders the method with its arity, e.g. "Shop.Repo::Load(2)".
func (m *MethodDef) Signature() string {
	return fmt.Sprintf("%s(%d)", m.FullName(), len(m.params))
}

// CallSite is the operand of calli.
type CallSite struct {
	Params  int
	HasThis bool
	Void    bool
}

func (c *CallSite) String() string {
	ret := "value"
	if c.Void {
		ret = "void"
	}
	return fmt.Sprintf("calli(%d) %s", c.Params, ret)
}
