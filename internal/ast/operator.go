package ast

import (
	"fmt"

	"github.com/gnolang/cilint/internal/cil"
)

// Binary is a two-operand operator. Op is one of the binary kinds, which
// include the branch predicates Eq through LtUn.
type Binary struct {
	node
	Op    Kind
	Left  Node
	Right Node
}

// NewBinary panics when op is not a binary kind.
func NewBinary(op Kind, left, right Node) *Binary {
	if !op.IsBinary() {
		panic(fmt.Sprintf("ast: %s is not a binary operator", op))
	}
	return &Binary{Op: op, Left: left, Right: right}
}

func (n *Binary) Kind() Kind { return n.Op }

func (n *Binary) Equal(other Node) bool {
	o, ok := other.(*Binary)
	return ok && n.Op == o.Op && Equal(n.Left, o.Left) && Equal(n.Right, o.Right)
}

func (n *Binary) Hash() uint64 {
	h := newHasher(n.Op)
	h.node(n.Left)
	h.node(n.Right)
	return h.sum()
}

func (n *Binary) Children() []Node { return []Node{n.Left, n.Right} }
func (n *Binary) String() string {
	return fmt.Sprintf("%s(%s, %s)", n.Op, format(n.Left), format(n.Right))
}

type Unary struct {
	node
	Op      Kind
	Operand Node
}

// NewUnary panics when op is not a unary kind.
func NewUnary(op Kind, operand Node) *Unary {
	if !op.IsUnary() {
		panic(fmt.Sprintf("ast: %s is not a unary operator", op))
	}
	return &Unary{Op: op, Operand: operand}
}

func (n *Unary) Kind() Kind { return n.Op }

func (n *Unary) Equal(other Node) bool {
	o, ok := other.(*Unary)
	return ok && n.Op == o.Op && Equal(n.Operand, o.Operand)
}

func (n *Unary) Hash() uint64 {
	h := newHasher(n.Op)
	h.node(n.Operand)
	return h.sum()
}

func (n *Unary) Children() []Node { return []Node{n.Operand} }
func (n *Unary) String() string   { return fmt.Sprintf("%s(%s)", n.Op, format(n.Operand)) }

// Convert is a numeric conversion. To names the target as in the opcode,
// e.g. "i4", "ovf.u8.un" or "r.un".
type Convert struct {
	node
	To      string
	Operand Node
}

func (n *Convert) Kind() Kind { return KindConvert }

func (n *Convert) Equal(other Node) bool {
	o, ok := other.(*Convert)
	return ok && n.To == o.To && Equal(n.Operand, o.Operand)
}

func (n *Convert) Hash() uint64 {
	h := newHasher(KindConvert)
	h.str(n.To)
	h.node(n.Operand)
	return h.sum()
}

func (n *Convert) Children() []Node { return []Node{n.Operand} }
func (n *Convert) String() string   { return fmt.Sprintf("conv.%s(%s)", n.To, format(n.Operand)) }

// TypeOp applies a type-parameterized operator such as box or isinst.
type TypeOp struct {
	node
	Op      Kind
	Type    cil.Type
	Operand Node
}

// NewTypeOp panics when op is not a type operator kind.
func NewTypeOp(op Kind, t cil.Type, operand Node) *TypeOp {
	if !op.IsTypeOp() {
		panic(fmt.Sprintf("ast: %s is not a type operator", op))
	}
	return &TypeOp{Op: op, Type: t, Operand: operand}
}

func (n *TypeOp) Kind() Kind { return n.Op }

func (n *TypeOp) Equal(other Node) bool {
	o, ok := other.(*TypeOp)
	return ok && n.Op == o.Op && n.Type == o.Type && Equal(n.Operand, o.Operand)
}

func (n *TypeOp) Hash() uint64 {
	h := newHasher(n.Op)
	h.typ(n.Type)
	h.node(n.Operand)
	return h.sum()
}

func (n *TypeOp) Children() []Node { return []Node{n.Operand} }
func (n *TypeOp) String() string {
	return fmt.Sprintf("%s<%s>(%s)", n.Op, typeName(n.Type), format(n.Operand))
}
