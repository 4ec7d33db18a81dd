// Package pattern provides query nodes that look like ast trees but compare
// differently, and the matcher that searches expression forests with them.
//
// A query is built by mixing ordinary ast nodes with the nodes of this
// package:
//
//	q := pattern.Call(pattern.Any, "SaveChanges", pattern.AnyArgs())
//	caps, ok := pattern.Match(root, q, true)
//
// On success caps["SaveChanges"] holds the matched call.
package pattern

import (
	"sort"
	"strings"

	"github.com/gnolang/cilint/internal/ast"
)

// Captures binds capture keys to matched nodes.
type Captures map[string]ast.Node

// Capturer is implemented by query nodes that record what they matched.
type Capturer interface {
	Capture(candidate ast.Node, caps Captures)
}

type anyNode struct{ ast.Extension }

// Any equals every node, including an absent receiver.
var Any ast.Node = &anyNode{}

func (*anyNode) Equal(ast.Node) bool  { return true }
func (*anyNode) Hash() uint64         { return 0 }
func (*anyNode) Children() []ast.Node { return nil }
func (*anyNode) String() string       { return "*" }

// AnyArgs stands for an argument list of any length and content.
func AnyArgs() []ast.Node { return nil }

// Args builds an exact argument list; an empty call matches only calls
// without arguments.
func Args(nodes ...ast.Node) []ast.Node {
	if nodes == nil {
		return []ast.Node{}
	}
	return nodes
}

// CallNode matches an *ast.Call by method name, optionally restricted to a
// declaring type or given as a fully qualified name.
type CallNode struct {
	ast.Extension
	key       string
	receiver  ast.Node
	typeName  string
	name      string
	qualified string
	args      []ast.Node
}

// Call matches calls to any method called name. A nil receiver matches only
// static calls. The match is captured under name.
func Call(receiver ast.Node, name string, args []ast.Node) *CallNode {
	return &CallNode{key: name, receiver: receiver, name: name, args: args}
}

// CallType matches calls to typeName::name.
func CallType(receiver ast.Node, typeName, name string, args []ast.Node) *CallNode {
	return &CallNode{key: name, receiver: receiver, typeName: typeName, name: name, args: args}
}

// CallQualified matches calls by "Type::Method" and captures under that
// qualified name.
func CallQualified(receiver ast.Node, qualified string, args []ast.Node) *CallNode {
	return &CallNode{key: qualified, receiver: receiver, qualified: qualified, args: args}
}

// As changes the capture key.
func (p *CallNode) As(key string) *CallNode {
	cp := *p
	cp.key = key
	return &cp
}

func (p *CallNode) Key() string { return p.key }

func (p *CallNode) Equal(other ast.Node) bool {
	c, ok := other.(*ast.Call)
	if !ok {
		return false
	}
	switch {
	case p.qualified != "":
		if c.QualifiedName() != p.qualified {
			return false
		}
	case p.typeName != "":
		if c.TypeName() != p.typeName || c.Name() != p.name {
			return false
		}
	default:
		if c.Name() != p.name {
			return false
		}
	}
	if !equalOrAny(p.receiver, c.Receiver) {
		return false
	}
	if p.args == nil {
		return true
	}
	if len(p.args) != len(c.Args) {
		return false
	}
	for i := range p.args {
		if !equalOrAny(p.args[i], c.Args[i]) {
			return false
		}
	}
	return true
}

func equalOrAny(p, n ast.Node) bool {
	if p == Any {
		return true
	}
	return ast.Equal(p, n)
}

func (p *CallNode) Capture(candidate ast.Node, caps Captures) {
	caps[p.key] = candidate
}

func (p *CallNode) Hash() uint64 { return uint64(ast.KindCall) }

// Children mirrors ast.Call: the receiver, then the arguments when given.
func (p *CallNode) Children() []ast.Node {
	out := make([]ast.Node, 0, len(p.args)+1)
	out = append(out, p.receiver)
	return append(out, p.args...)
}

func (p *CallNode) String() string {
	name := p.name
	switch {
	case p.qualified != "":
		name = p.qualified
	case p.typeName != "":
		name = p.typeName + "::" + p.name
	}
	args := "..."
	if p.args != nil {
		parts := make([]string, len(p.args))
		for i, a := range p.args {
			parts[i] = nodeString(a)
		}
		args = strings.Join(parts, ", ")
	}
	return "call " + nodeString(p.receiver) + "." + name + "(" + args + ")"
}

// FtnNode matches any function pointer node.
type FtnNode struct {
	ast.Extension
	key string
}

// Ftn matches any *ast.Ftn and captures it under key.
func Ftn(key string) *FtnNode { return &FtnNode{key: key} }

func (p *FtnNode) Equal(other ast.Node) bool {
	_, ok := other.(*ast.Ftn)
	return ok
}

func (p *FtnNode) Capture(candidate ast.Node, caps Captures) { caps[p.key] = candidate }
func (p *FtnNode) Hash() uint64                              { return uint64(ast.KindFtn) }
func (p *FtnNode) Children() []ast.Node                      { return nil }
func (p *FtnNode) String() string                            { return "ftn " + p.key }

// CallMapNode matches calls whose qualified method name is in a set.
type CallMapNode struct {
	ast.Extension
	names map[string]struct{}
}

// CallMap matches a call to any of the given "Type::Method" names and
// captures each match under its own qualified name, so one query can
// collect calls to several methods at once.
func CallMap(names ...string) *CallMapNode {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &CallMapNode{names: set}
}

func (p *CallMapNode) Has(qualified string) bool {
	_, ok := p.names[qualified]
	return ok
}

func (p *CallMapNode) Equal(other ast.Node) bool {
	c, ok := other.(*ast.Call)
	return ok && p.Has(c.QualifiedName())
}

func (p *CallMapNode) Capture(candidate ast.Node, caps Captures) {
	if c, ok := candidate.(*ast.Call); ok {
		caps[c.QualifiedName()] = candidate
	}
}

func (p *CallMapNode) Hash() uint64         { return uint64(ast.KindCall) }
func (p *CallMapNode) Children() []ast.Node { return nil }

func (p *CallMapNode) String() string {
	names := make([]string, 0, len(p.names))
	for n := range p.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return "call {" + strings.Join(names, ", ") + "}"
}

func nodeString(n ast.Node) string {
	if n == nil {
		return "static"
	}
	return n.String()
}
