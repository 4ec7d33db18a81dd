package ast

import (
	"fmt"

	"github.com/gnolang/cilint/internal/cil"
)

// Argument is the value a method received in an argument slot. Index counts
// the implicit this of instance methods.
type Argument struct {
	node
	Index int
	Name  string
}

func (n *Argument) Kind() Kind { return KindArgument }

func (n *Argument) Equal(other Node) bool {
	o, ok := other.(*Argument)
	return ok && n.Index == o.Index
}

func (n *Argument) Hash() uint64 {
	h := newHasher(KindArgument)
	h.int(n.Index)
	return h.sum()
}

func (n *Argument) Children() []Node { return nil }
func (n *Argument) String() string   { return slotName(n.Name, "arg", n.Index) }

// ArgumentAddress is the address of an argument slot (ldarga).
type ArgumentAddress struct {
	node
	Index int
	Name  string
}

func (n *ArgumentAddress) Kind() Kind { return KindArgumentAddress }

func (n *ArgumentAddress) Equal(other Node) bool {
	o, ok := other.(*ArgumentAddress)
	return ok && n.Index == o.Index
}

func (n *ArgumentAddress) Hash() uint64 {
	h := newHasher(KindArgumentAddress)
	h.int(n.Index)
	return h.sum()
}

func (n *ArgumentAddress) Children() []Node { return nil }
func (n *ArgumentAddress) String() string   { return "&" + slotName(n.Name, "arg", n.Index) }

// Local is the initial value of a local slot that was read before any store.
type Local struct {
	node
	Index int
}

func (n *Local) Kind() Kind { return KindLocal }

func (n *Local) Equal(other Node) bool {
	o, ok := other.(*Local)
	return ok && n.Index == o.Index
}

func (n *Local) Hash() uint64 {
	h := newHasher(KindLocal)
	h.int(n.Index)
	return h.sum()
}

func (n *Local) Children() []Node { return nil }
func (n *Local) String() string   { return fmt.Sprintf("V_%d", n.Index) }

type LocalAddress struct {
	node
	Index int
}

func (n *LocalAddress) Kind() Kind { return KindLocalAddress }

func (n *LocalAddress) Equal(other Node) bool {
	o, ok := other.(*LocalAddress)
	return ok && n.Index == o.Index
}

func (n *LocalAddress) Hash() uint64 {
	h := newHasher(KindLocalAddress)
	h.int(n.Index)
	return h.sum()
}

func (n *LocalAddress) Children() []Node { return nil }
func (n *LocalAddress) String() string   { return fmt.Sprintf("&V_%d", n.Index) }

// OutArgument is the value a call wrote through its by-reference argument
// at Position.
type OutArgument struct {
	node
	Call     Node
	Position int
}

func (n *OutArgument) Kind() Kind { return KindOutArgument }

func (n *OutArgument) Equal(other Node) bool {
	o, ok := other.(*OutArgument)
	return ok && n.Position == o.Position && Equal(n.Call, o.Call)
}

func (n *OutArgument) Hash() uint64 {
	h := newHasher(KindOutArgument)
	h.int(n.Position)
	h.node(n.Call)
	return h.sum()
}

func (n *OutArgument) Children() []Node { return []Node{n.Call} }
func (n *OutArgument) String() string {
	return fmt.Sprintf("out#%d(%s)", n.Position, format(n.Call))
}

// Field is an instance field read.
type Field struct {
	node
	Instance Node
	Field    cil.Field
}

func (n *Field) Kind() Kind { return KindField }

func (n *Field) Equal(other Node) bool {
	o, ok := other.(*Field)
	return ok && n.Field == o.Field && Equal(n.Instance, o.Instance)
}

func (n *Field) Hash() uint64 {
	h := newHasher(KindField)
	h.field(n.Field)
	h.node(n.Instance)
	return h.sum()
}

func (n *Field) Children() []Node { return []Node{n.Instance} }
func (n *Field) String() string   { return format(n.Instance) + "." + memberName(n.Field) }

type StaticField struct {
	node
	Field cil.Field
}

func (n *StaticField) Kind() Kind { return KindStaticField }

func (n *StaticField) Equal(other Node) bool {
	o, ok := other.(*StaticField)
	return ok && n.Field == o.Field
}

func (n *StaticField) Hash() uint64 {
	h := newHasher(KindStaticField)
	h.field(n.Field)
	return h.sum()
}

func (n *StaticField) Children() []Node { return nil }
func (n *StaticField) String() string   { return qualified(n.Field) }

type FieldAddress struct {
	node
	Instance Node
	Field    cil.Field
}

func (n *FieldAddress) Kind() Kind { return KindFieldAddress }

func (n *FieldAddress) Equal(other Node) bool {
	o, ok := other.(*FieldAddress)
	return ok && n.Field == o.Field && Equal(n.Instance, o.Instance)
}

func (n *FieldAddress) Hash() uint64 {
	h := newHasher(KindFieldAddress)
	h.field(n.Field)
	h.node(n.Instance)
	return h.sum()
}

func (n *FieldAddress) Children() []Node { return []Node{n.Instance} }
func (n *FieldAddress) String() string {
	return "&" + format(n.Instance) + "." + memberName(n.Field)
}

type StaticFieldAddress struct {
	node
	Field cil.Field
}

func (n *StaticFieldAddress) Kind() Kind { return KindStaticFieldAddress }

func (n *StaticFieldAddress) Equal(other Node) bool {
	o, ok := other.(*StaticFieldAddress)
	return ok && n.Field == o.Field
}

func (n *StaticFieldAddress) Hash() uint64 {
	h := newHasher(KindStaticFieldAddress)
	h.field(n.Field)
	return h.sum()
}

func (n *StaticFieldAddress) Children() []Node { return nil }
func (n *StaticFieldAddress) String() string   { return "&" + qualified(n.Field) }

type ArrayElement struct {
	node
	Array Node
	Index Node
}

func (n *ArrayElement) Kind() Kind { return KindArrayElement }

func (n *ArrayElement) Equal(other Node) bool {
	o, ok := other.(*ArrayElement)
	return ok && Equal(n.Array, o.Array) && Equal(n.Index, o.Index)
}

func (n *ArrayElement) Hash() uint64 {
	h := newHasher(KindArrayElement)
	h.node(n.Array)
	h.node(n.Index)
	return h.sum()
}

func (n *ArrayElement) Children() []Node { return []Node{n.Array, n.Index} }
func (n *ArrayElement) String() string {
	return format(n.Array) + "[" + format(n.Index) + "]"
}

type ArrayElementAddress struct {
	node
	Array Node
	Index Node
}

func (n *ArrayElementAddress) Kind() Kind { return KindArrayElementAddress }

func (n *ArrayElementAddress) Equal(other Node) bool {
	o, ok := other.(*ArrayElementAddress)
	return ok && Equal(n.Array, o.Array) && Equal(n.Index, o.Index)
}

func (n *ArrayElementAddress) Hash() uint64 {
	h := newHasher(KindArrayElementAddress)
	h.node(n.Array)
	h.node(n.Index)
	return h.sum()
}

func (n *ArrayElementAddress) Children() []Node { return []Node{n.Array, n.Index} }
func (n *ArrayElementAddress) String() string {
	return "&" + format(n.Array) + "[" + format(n.Index) + "]"
}

type ArrayLength struct {
	node
	Array Node
}

func (n *ArrayLength) Kind() Kind { return KindArrayLength }

func (n *ArrayLength) Equal(other Node) bool {
	o, ok := other.(*ArrayLength)
	return ok && Equal(n.Array, o.Array)
}

func (n *ArrayLength) Hash() uint64 {
	h := newHasher(KindArrayLength)
	h.node(n.Array)
	return h.sum()
}

func (n *ArrayLength) Children() []Node { return []Node{n.Array} }
func (n *ArrayLength) String() string   { return format(n.Array) + ".Length" }

// Indirect is a value read through an address (ldind, ldobj).
type Indirect struct {
	node
	Address Node
}

func (n *Indirect) Kind() Kind { return KindIndirect }

func (n *Indirect) Equal(other Node) bool {
	o, ok := other.(*Indirect)
	return ok && Equal(n.Address, o.Address)
}

func (n *Indirect) Hash() uint64 {
	h := newHasher(KindIndirect)
	h.node(n.Address)
	return h.sum()
}

func (n *Indirect) Children() []Node { return []Node{n.Address} }
func (n *Indirect) String() string   { return "*" + format(n.Address) }

func slotName(name, prefix string, index int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s%d", prefix, index)
}
