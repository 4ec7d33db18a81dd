package ast

import (
	"strings"

	"github.com/gnolang/cilint/internal/cil"
)

// Call invokes Method. Receiver is nil for static calls. Point records
// where the call was made and does not take part in equality.
type Call struct {
	node
	Method   cil.Method
	Receiver Node
	Args     []Node
	Point    Point
}

func NewCall(m cil.Method, receiver Node, args []Node, at Point) *Call {
	return &Call{Method: m, Receiver: receiver, Args: args, Point: at}
}

func (n *Call) Kind() Kind { return KindCall }

func (n *Call) Equal(other Node) bool {
	o, ok := other.(*Call)
	return ok && n.Method == o.Method && Equal(n.Receiver, o.Receiver) && equalAll(n.Args, o.Args)
}

func (n *Call) Hash() uint64 {
	h := newHasher(KindCall)
	h.method(n.Method)
	h.node(n.Receiver)
	h.nodes(n.Args)
	return h.sum()
}

// Children returns the receiver followed by the arguments.
func (n *Call) Children() []Node {
	out := make([]Node, 0, len(n.Args)+1)
	out = append(out, n.Receiver)
	return append(out, n.Args...)
}

func (n *Call) String() string {
	if n.Receiver == nil {
		return qualified(n.Method) + "(" + formatList(n.Args) + ")"
	}
	return format(n.Receiver) + "." + memberName(n.Method) + "(" + formatList(n.Args) + ")"
}

// QualifiedName returns "Namespace.Type::Method".
func (n *Call) QualifiedName() string { return qualified(n.Method) }

// TypeName returns the full name of the declaring type.
func (n *Call) TypeName() string {
	if n.Method == nil || n.Method.DeclaringType() == nil {
		return ""
	}
	return n.Method.DeclaringType().FullName()
}

// Name returns the bare method name.
func (n *Call) Name() string { return memberName(n.Method) }

// CallIndirect is a calli through a function pointer.
type CallIndirect struct {
	node
	Site     *cil.CallSite
	Target   Node
	Receiver Node
	Args     []Node
	Point    Point
}

func (n *CallIndirect) Kind() Kind { return KindCallIndirect }

func (n *CallIndirect) Equal(other Node) bool {
	o, ok := other.(*CallIndirect)
	return ok && siteEqual(n.Site, o.Site) &&
		Equal(n.Target, o.Target) && Equal(n.Receiver, o.Receiver) && equalAll(n.Args, o.Args)
}

func siteEqual(a, b *cil.CallSite) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (n *CallIndirect) Hash() uint64 {
	h := newHasher(KindCallIndirect)
	if n.Site != nil {
		h.int(n.Site.Params)
	}
	h.node(n.Target)
	h.node(n.Receiver)
	h.nodes(n.Args)
	return h.sum()
}

// Children returns the target, the receiver and the arguments.
func (n *CallIndirect) Children() []Node {
	out := make([]Node, 0, len(n.Args)+2)
	out = append(out, n.Target, n.Receiver)
	return append(out, n.Args...)
}

func (n *CallIndirect) String() string {
	return "calli " + format(n.Target) + "(" + formatList(n.Args) + ")"
}

type NewObject struct {
	node
	Ctor  cil.Method
	Args  []Node
	Point Point
}

func (n *NewObject) Kind() Kind { return KindNewObject }

func (n *NewObject) Equal(other Node) bool {
	o, ok := other.(*NewObject)
	return ok && n.Ctor == o.Ctor && equalAll(n.Args, o.Args)
}

func (n *NewObject) Hash() uint64 {
	h := newHasher(KindNewObject)
	h.method(n.Ctor)
	h.nodes(n.Args)
	return h.sum()
}

func (n *NewObject) Children() []Node { return append([]Node(nil), n.Args...) }

func (n *NewObject) String() string {
	typ := "?"
	if n.Ctor != nil && n.Ctor.DeclaringType() != nil {
		typ = n.Ctor.DeclaringType().FullName()
	}
	return "new " + typ + "(" + formatList(n.Args) + ")"
}

type NewArray struct {
	node
	Element cil.Type
	Size    Node
	Point   Point
}

func (n *NewArray) Kind() Kind { return KindNewArray }

func (n *NewArray) Equal(other Node) bool {
	o, ok := other.(*NewArray)
	return ok && n.Element == o.Element && Equal(n.Size, o.Size)
}

func (n *NewArray) Hash() uint64 {
	h := newHasher(KindNewArray)
	h.typ(n.Element)
	h.node(n.Size)
	return h.sum()
}

func (n *NewArray) Children() []Node { return []Node{n.Size} }
func (n *NewArray) String() string {
	return "new " + typeName(n.Element) + "[" + format(n.Size) + "]"
}

// Ftn is a function pointer loaded with ldftn or ldvirtftn, typically the
// body of a lambda passed to a call. Instance is nil for ldftn.
type Ftn struct {
	node
	Method   cil.Method
	Instance Node
	Virtual  bool
}

func (n *Ftn) Kind() Kind { return KindFtn }

func (n *Ftn) Equal(other Node) bool {
	o, ok := other.(*Ftn)
	return ok && n.Method == o.Method && n.Virtual == o.Virtual && Equal(n.Instance, o.Instance)
}

func (n *Ftn) Hash() uint64 {
	h := newHasher(KindFtn)
	h.method(n.Method)
	if n.Virtual {
		h.byte(1)
	}
	h.node(n.Instance)
	return h.sum()
}

func (n *Ftn) Children() []Node { return []Node{n.Instance} }
func (n *Ftn) String() string   { return "&" + qualified(n.Method) }

type LocalAlloc struct {
	node
	Size Node
}

func (n *LocalAlloc) Kind() Kind { return KindLocalAlloc }

func (n *LocalAlloc) Equal(other Node) bool {
	o, ok := other.(*LocalAlloc)
	return ok && Equal(n.Size, o.Size)
}

func (n *LocalAlloc) Hash() uint64 {
	h := newHasher(KindLocalAlloc)
	h.node(n.Size)
	return h.sum()
}

func (n *LocalAlloc) Children() []Node { return []Node{n.Size} }
func (n *LocalAlloc) String() string   { return "stackalloc(" + format(n.Size) + ")" }

// PointOf returns the call site recorded on call-like nodes.
func PointOf(n Node) (Point, bool) {
	switch n := n.(type) {
	case *Call:
		return n.Point, true
	case *CallIndirect:
		return n.Point, true
	case *NewObject:
		return n.Point, true
	case *NewArray:
		return n.Point, true
	}
	return Point{}, false
}

type named interface {
	Name() string
	FullName() string
}

func qualified(m named) string {
	if m == nil {
		return "?"
	}
	return m.FullName()
}

func memberName(m named) string {
	if m == nil {
		return "?"
	}
	return m.Name()
}

func typeName(t cil.Type) string {
	if t == nil {
		return "?"
	}
	return t.FullName()
}

func formatList(ns []Node) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = format(n)
	}
	return strings.Join(parts, ", ")
}
