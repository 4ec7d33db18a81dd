package ast

import "github.com/gnolang/cilint/internal/cil"

type TypeToken struct {
	node
	Type cil.Type
}

func (n *TypeToken) Kind() Kind { return KindTypeToken }

func (n *TypeToken) Equal(other Node) bool {
	o, ok := other.(*TypeToken)
	return ok && n.Type == o.Type
}

func (n *TypeToken) Hash() uint64 {
	h := newHasher(KindTypeToken)
	h.typ(n.Type)
	return h.sum()
}

func (n *TypeToken) Children() []Node { return nil }
func (n *TypeToken) String() string   { return "typeof(" + typeName(n.Type) + ")" }

type MethodToken struct {
	node
	Method cil.Method
}

func (n *MethodToken) Kind() Kind { return KindMethodToken }

func (n *MethodToken) Equal(other Node) bool {
	o, ok := other.(*MethodToken)
	return ok && n.Method == o.Method
}

func (n *MethodToken) Hash() uint64 {
	h := newHasher(KindMethodToken)
	h.method(n.Method)
	return h.sum()
}

func (n *MethodToken) Children() []Node { return nil }
func (n *MethodToken) String() string   { return "methodof(" + qualified(n.Method) + ")" }

type FieldToken struct {
	node
	Field cil.Field
}

func (n *FieldToken) Kind() Kind { return KindFieldToken }

func (n *FieldToken) Equal(other Node) bool {
	o, ok := other.(*FieldToken)
	return ok && n.Field == o.Field
}

func (n *FieldToken) Hash() uint64 {
	h := newHasher(KindFieldToken)
	h.field(n.Field)
	return h.sum()
}

func (n *FieldToken) Children() []Node { return nil }
func (n *FieldToken) String() string   { return "fieldof(" + qualified(n.Field) + ")" }

type SizeOf struct {
	node
	Type cil.Type
}

func (n *SizeOf) Kind() Kind { return KindSizeOf }

func (n *SizeOf) Equal(other Node) bool {
	o, ok := other.(*SizeOf)
	return ok && n.Type == o.Type
}

func (n *SizeOf) Hash() uint64 {
	h := newHasher(KindSizeOf)
	h.typ(n.Type)
	return h.sum()
}

func (n *SizeOf) Children() []Node { return nil }
func (n *SizeOf) String() string   { return "sizeof(" + typeName(n.Type) + ")" }

// DefaultValue is the zero value initobj writes.
type DefaultValue struct {
	node
	Type cil.Type
}

func (n *DefaultValue) Kind() Kind { return KindDefaultValue }

func (n *DefaultValue) Equal(other Node) bool {
	o, ok := other.(*DefaultValue)
	return ok && n.Type == o.Type
}

func (n *DefaultValue) Hash() uint64 {
	h := newHasher(KindDefaultValue)
	h.typ(n.Type)
	return h.sum()
}

func (n *DefaultValue) Children() []Node { return nil }
func (n *DefaultValue) String() string   { return "default(" + typeName(n.Type) + ")" }
