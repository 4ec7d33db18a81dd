package ast

import (
	"math"
	"strconv"
)

type Int32 struct {
	node
	Value int32
}

func NewInt32(v int32) *Int32 { return &Int32{Value: v} }

func (n *Int32) Kind() Kind { return KindInt32 }

func (n *Int32) Equal(other Node) bool {
	o, ok := other.(*Int32)
	return ok && n.Value == o.Value
}

func (n *Int32) Hash() uint64 {
	h := newHasher(KindInt32)
	h.word(uint64(n.Value))
	return h.sum()
}

func (n *Int32) Children() []Node { return nil }
func (n *Int32) String() string   { return strconv.FormatInt(int64(n.Value), 10) }

type Int64 struct {
	node
	Value int64
}

func NewInt64(v int64) *Int64 { return &Int64{Value: v} }

func (n *Int64) Kind() Kind { return KindInt64 }

func (n *Int64) Equal(other Node) bool {
	o, ok := other.(*Int64)
	return ok && n.Value == o.Value
}

func (n *Int64) Hash() uint64 {
	h := newHasher(KindInt64)
	h.word(uint64(n.Value))
	return h.sum()
}

func (n *Int64) Children() []Node { return nil }
func (n *Int64) String() string   { return strconv.FormatInt(n.Value, 10) + "L" }

// Float32 compares by bit pattern, so NaN equals an identical NaN.
type Float32 struct {
	node
	Value float32
}

func NewFloat32(v float32) *Float32 { return &Float32{Value: v} }

func (n *Float32) Kind() Kind { return KindFloat32 }

func (n *Float32) Equal(other Node) bool {
	o, ok := other.(*Float32)
	return ok && math.Float32bits(n.Value) == math.Float32bits(o.Value)
}

func (n *Float32) Hash() uint64 {
	h := newHasher(KindFloat32)
	h.word(uint64(math.Float32bits(n.Value)))
	return h.sum()
}

func (n *Float32) Children() []Node { return nil }
func (n *Float32) String() string {
	return strconv.FormatFloat(float64(n.Value), 'g', -1, 32) + "f"
}

// Float64 compares by bit pattern.
type Float64 struct {
	node
	Value float64
}

func NewFloat64(v float64) *Float64 { return &Float64{Value: v} }

func (n *Float64) Kind() Kind { return KindFloat64 }

func (n *Float64) Equal(other Node) bool {
	o, ok := other.(*Float64)
	return ok && math.Float64bits(n.Value) == math.Float64bits(o.Value)
}

func (n *Float64) Hash() uint64 {
	h := newHasher(KindFloat64)
	h.float(n.Value)
	return h.sum()
}

func (n *Float64) Children() []Node { return nil }
func (n *Float64) String() string   { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

type String struct {
	node
	Value string
}

func NewString(v string) *String { return &String{Value: v} }

func (n *String) Kind() Kind { return KindString }

func (n *String) Equal(other Node) bool {
	o, ok := other.(*String)
	return ok && n.Value == o.Value
}

func (n *String) Hash() uint64 {
	h := newHasher(KindString)
	h.str(n.Value)
	return h.sum()
}

func (n *String) Children() []Node { return nil }
func (n *String) String() string   { return strconv.Quote(n.Value) }

// sentinel nodes exist once and are equal only to themselves.
type sentinel struct {
	node
	kind Kind
	text string
}

var (
	Null    Node = &sentinel{kind: KindNull, text: "null"}
	This    Node = &sentinel{kind: KindThis, text: "this"}
	Thrown  Node = &sentinel{kind: KindThrown, text: "$exception"}
	ArgList Node = &sentinel{kind: KindArgList, text: "__arglist"}
)

func (n *sentinel) Kind() Kind { return n.kind }

func (n *sentinel) Equal(other Node) bool {
	o, ok := other.(*sentinel)
	return ok && o == n
}

func (n *sentinel) Hash() uint64 {
	h := newHasher(n.kind)
	return h.sum()
}

func (n *sentinel) Children() []Node { return nil }
func (n *sentinel) String() string   { return n.text }
