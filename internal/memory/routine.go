// Package memory holds the per-path state of a symbolic method evaluation.
package memory

import (
	"slices"

	"golang.org/x/tools/container/intsets"

	"github.com/gnolang/cilint/internal/ast"
	"github.com/gnolang/cilint/internal/cil"
)

// Routine is one explored path through a method body.
//
// Every load consults the routine's memory before synthesizing an access
// node, so a value stored through a structurally equal key is read back
// as-is. Distinct keys never alias.
type Routine struct {
	method cil.Method

	stack  []ast.Node
	args   []ast.Node
	locals []ast.Node

	addresses *NodeMap
	fields    *NodeMap
	elements  *NodeMap

	expressions []ast.Node
	conditions  []Condition

	cursor   *cil.Instruction
	returned ast.Node
	executed  intsets.Sparse
	revisited intsets.Sparse
}

// NewRoutine starts a routine at the entry of m. Instance methods see This
// in argument 0.
func NewRoutine(m cil.Method) *Routine {
	r := &Routine{
		method:    m,
		addresses: NewNodeMap(),
		fields:    NewNodeMap(),
		elements:  NewNodeMap(),
	}
	offset := 0
	if m.HasThis() {
		r.args = append(r.args, ast.This)
		offset = 1
	}
	for _, p := range m.Params() {
		r.args = append(r.args, &ast.Argument{Index: p.Index + offset, Name: p.Name})
	}
	if body := m.Body(); body != nil {
		r.cursor = body.Entry()
		r.locals = make([]ast.Node, body.Locals)
	}
	return r
}

// Fork returns an independent copy of the routine's current state.
func (r *Routine) Fork() *Routine {
	f := &Routine{
		method:      r.method,
		stack:       slices.Clone(r.stack),
		args:        slices.Clone(r.args),
		locals:      slices.Clone(r.locals),
		addresses:   r.addresses.Fork(),
		fields:      r.fields.Fork(),
		elements:    r.elements.Fork(),
		expressions: slices.Clone(r.expressions),
		conditions:  slices.Clone(r.conditions),
		cursor:      r.cursor,
		returned:    r.returned,
	}
	f.executed.Copy(&r.executed)
	f.revisited.Copy(&r.revisited)
	return f
}

func (r *Routine) Method() cil.Method { return r.method }

// Cursor is the next instruction to execute, nil once the routine completed.
func (r *Routine) Cursor() *cil.Instruction       { return r.cursor }
func (r *Routine) SetCursor(ins *cil.Instruction) { r.cursor = ins }
func (r *Routine) Done() bool                     { return r.cursor == nil }

// Returned is the value popped by ret, nil for void methods or paths that
// ended otherwise.
func (r *Routine) Returned() ast.Node       { return r.returned }
func (r *Routine) SetReturned(v ast.Node)   { r.returned = v }
func (r *Routine) MarkExecuted(offset int)  { r.executed.Insert(offset) }
func (r *Routine) Executed(offset int) bool { return r.executed.Has(offset) }

// MarkRevisited records a second execution of the instruction at offset,
// the loop condition re-run on the way out of a loop.
func (r *Routine) MarkRevisited(offset int)  { r.revisited.Insert(offset) }
func (r *Routine) Revisited(offset int) bool { return r.revisited.Has(offset) }

// Stack

func (r *Routine) Push(n ast.Node) { r.stack = append(r.stack, n) }

func (r *Routine) Pop() (ast.Node, bool) {
	if len(r.stack) == 0 {
		return nil, false
	}
	n := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return n, true
}

func (r *Routine) Peek() (ast.Node, bool) {
	if len(r.stack) == 0 {
		return nil, false
	}
	return r.stack[len(r.stack)-1], true
}

func (r *Routine) StackLen() int { return len(r.stack) }

// Stack returns a copy of the operand stack, bottom first.
func (r *Routine) Stack() []ast.Node { return slices.Clone(r.stack) }

func (r *Routine) ClearStack() { r.stack = r.stack[:0] }

// Slots

// Arg returns the current value of argument slot i.
func (r *Routine) Arg(i int) ast.Node {
	if i < len(r.args) && r.args[i] != nil {
		return r.args[i]
	}
	return &ast.Argument{Index: i}
}

func (r *Routine) SetArg(i int, v ast.Node) {
	r.args = grow(r.args, i)
	r.args[i] = v
}

// ArgName returns the declared name of argument slot i, if any.
func (r *Routine) ArgName(i int) string {
	if r.method.HasThis() {
		if i == 0 {
			return "this"
		}
		i--
	}
	params := r.method.Params()
	if i >= 0 && i < len(params) {
		return params[i].Name
	}
	return ""
}

// Local returns the current value of local slot i; a slot never stored to
// reads as ast.Local.
func (r *Routine) Local(i int) ast.Node {
	if i < len(r.locals) && r.locals[i] != nil {
		return r.locals[i]
	}
	return &ast.Local{Index: i}
}

func (r *Routine) SetLocal(i int, v ast.Node) {
	r.locals = grow(r.locals, i)
	r.locals[i] = v
}

func grow(s []ast.Node, i int) []ast.Node {
	if i < len(s) {
		return s
	}
	return append(s, make([]ast.Node, i+1-len(s))...)
}

// Memory maps

// LoadField reads instance field f of inst, or the static field when inst
// is nil.
func (r *Routine) LoadField(inst ast.Node, f cil.Field) ast.Node {
	key := fieldKey(inst, f)
	if v, ok := r.fields.Get(key); ok {
		return v
	}
	return key
}

func (r *Routine) StoreField(inst ast.Node, f cil.Field, v ast.Node) {
	r.fields.Set(fieldKey(inst, f), v)
}

func fieldKey(inst ast.Node, f cil.Field) ast.Node {
	if inst == nil || f.IsStatic() {
		return &ast.StaticField{Field: f}
	}
	return &ast.Field{Instance: inst, Field: f}
}

func (r *Routine) LoadElement(array, index ast.Node) ast.Node {
	key := &ast.ArrayElement{Array: array, Index: index}
	if v, ok := r.elements.Get(key); ok {
		return v
	}
	return key
}

func (r *Routine) StoreElement(array, index, v ast.Node) {
	r.elements.Set(&ast.ArrayElement{Array: array, Index: index}, v)
}

// LoadIndirect reads through an address. Addresses of slots, fields and
// array elements resolve to those locations; any other address is looked
// up in the address map.
func (r *Routine) LoadIndirect(addr ast.Node) ast.Node {
	switch a := addr.(type) {
	case *ast.LocalAddress:
		return r.Local(a.Index)
	case *ast.ArgumentAddress:
		return r.Arg(a.Index)
	case *ast.FieldAddress:
		return r.LoadField(a.Instance, a.Field)
	case *ast.StaticFieldAddress:
		return r.LoadField(nil, a.Field)
	case *ast.ArrayElementAddress:
		return r.LoadElement(a.Array, a.Index)
	}
	if v, ok := r.addresses.Get(addr); ok {
		return v
	}
	return &ast.Indirect{Address: addr}
}

// StoreIndirect writes through an address, see LoadIndirect.
func (r *Routine) StoreIndirect(addr, v ast.Node) {
	switch a := addr.(type) {
	case *ast.LocalAddress:
		r.SetLocal(a.Index, v)
	case *ast.ArgumentAddress:
		r.SetArg(a.Index, v)
	case *ast.FieldAddress:
		r.StoreField(a.Instance, a.Field, v)
	case *ast.StaticFieldAddress:
		r.StoreField(nil, a.Field, v)
	case *ast.ArrayElementAddress:
		r.StoreElement(a.Array, a.Index, v)
	default:
		r.addresses.Set(addr, v)
	}
}

// Fields, Elements and Addresses expose the memory maps for inspection.
func (r *Routine) Fields() *NodeMap    { return r.fields }
func (r *Routine) Elements() *NodeMap  { return r.elements }
func (r *Routine) Addresses() *NodeMap { return r.addresses }

// Expressions

// Expressions returns the expression forest roots in insertion order.
func (r *Routine) Expressions() []ast.Node { return slices.Clone(r.expressions) }

// AddExpression appends n unless that very node is already present.
// Structurally equal nodes from different call sites are kept apart.
func (r *Routine) AddExpression(n ast.Node) {
	for _, e := range r.expressions {
		if e == n {
			return
		}
	}
	r.expressions = append(r.expressions, n)
}

// RemoveExpression drops n if that very node is present. An equal node
// built at another site stays.
func (r *Routine) RemoveExpression(n ast.Node) bool {
	idx := slices.IndexFunc(r.expressions, func(e ast.Node) bool { return e == n })
	if idx < 0 {
		return false
	}
	r.expressions = slices.Delete(r.expressions, idx, idx+1)
	return true
}

// Conditions

func (r *Routine) Conditions() []Condition { return slices.Clone(r.conditions) }

func (r *Routine) AddCondition(predicate ast.Node, outcome int) {
	r.conditions = append(r.conditions, Condition{Predicate: predicate, Outcome: outcome})
}
