package cil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Instruction is one decoded instruction of a method body.
//
// Operand holds, depending on OpCode.Operand():
// int32/int64/float32/float64/string literals, *Instruction for branches,
// []*Instruction for switch, Method, Field, Type, *CallSite, or an int
// index for argument and local slots.
type Instruction struct {
	Offset  int
	OpCode  OpCode
	Operand any
	// Index is the position of the instruction in Body.Instructions.
	Index int
}

// Size returns the encoded size of the instruction.
func (ins *Instruction) Size() int {
	if ins.OpCode == Switch {
		targets, _ := ins.Operand.([]*Instruction)
		return ins.OpCode.Size() + 4*len(targets)
	}
	return ins.OpCode.Size()
}

// Target returns the branch target of a branch instruction, or nil.
func (ins *Instruction) Target() *Instruction {
	t, _ := ins.Operand.(*Instruction)
	return t
}

// Targets returns the jump table of a switch instruction.
func (ins *Instruction) Targets() []*Instruction {
	t, _ := ins.Operand.([]*Instruction)
	return t
}

// VarIndex returns the argument or local index of a slot instruction,
// including the implicit index of the short forms such as ldarg.0.
func (ins *Instruction) VarIndex() int {
	switch ins.OpCode {
	case Ldarg0, Ldloc0, Stloc0:
		return 0
	case Ldarg1, Ldloc1, Stloc1:
		return 1
	case Ldarg2, Ldloc2, Stloc2:
		return 2
	case Ldarg3, Ldloc3, Stloc3:
		return 3
	}
	if idx, ok := ins.Operand.(int); ok {
		return idx
	}
	return -1
}

// Label renders the offset the way listings do, e.g. "IL_001a".
func (ins *Instruction) Label() string {
	return Label(ins.Offset)
}

// Label formats an offset as an IL label.
func Label(offset int) string {
	return fmt.Sprintf("IL_%04x", offset)
}

func (ins *Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(ins.Label())
	sb.WriteString(": ")
	sb.WriteString(ins.OpCode.String())
	switch op := ins.Operand.(type) {
	case nil:
	case *Instruction:
		sb.WriteString(" " + op.Label())
	case []*Instruction:
		labels := make([]string, len(op))
		for i, t := range op {
			labels[i] = t.Label()
		}
		sb.WriteString(" (" + strings.Join(labels, ", ") + ")")
	case string:
		sb.WriteString(" " + strconv.Quote(op))
	case Method:
		sb.WriteString(" " + op.FullName())
	case Field:
		sb.WriteString(" " + op.FullName())
	case Type:
		sb.WriteString(" " + op.FullName())
	default:
		fmt.Fprintf(&sb, " %v", op)
	}
	return sb.String()
}

// HandlerKind is the kind of an exception-handling clause.
type HandlerKind int

const (
	HandlerCatch HandlerKind = iota
	HandlerFilter
	HandlerFinally
	HandlerFault
)

func (k HandlerKind) String() string {
	switch k {
	case HandlerCatch:
		return "catch"
	case HandlerFilter:
		return "filter"
	case HandlerFinally:
		return "finally"
	case HandlerFault:
		return "fault"
	default:
		return "unknown"
	}
}

// ParseHandlerKind resolves a handler kind by name.
func ParseHandlerKind(s string) (HandlerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "catch":
		return HandlerCatch, nil
	case "filter":
		return HandlerFilter, nil
	case "finally":
		return HandlerFinally, nil
	case "fault":
		return HandlerFault, nil
	}
	return 0, fmt.Errorf("unknown handler kind %q", s)
}

// ExceptionHandler is a protected region with its handler.
// TryEnd and HandlerEnd are exclusive and may be nil at the end of the body.
type ExceptionHandler struct {
	Kind         HandlerKind
	TryStart     *Instruction
	TryEnd       *Instruction
	HandlerStart *Instruction
	HandlerEnd   *Instruction
	// FilterStart is set for filter clauses only.
	FilterStart *Instruction
	CatchType   Type
}

// Entry returns the first instruction control reaches when the clause runs.
func (h *ExceptionHandler) Entry() *Instruction {
	if h.Kind == HandlerFilter && h.FilterStart != nil {
		return h.FilterStart
	}
	return h.HandlerStart
}

// ReceivesException reports whether the exception object is on the stack
// when ins starts executing as part of this clause.
func (h *ExceptionHandler) ReceivesException(ins *Instruction) bool {
	switch h.Kind {
	case HandlerCatch:
		return ins == h.HandlerStart
	case HandlerFilter:
		return ins == h.HandlerStart || ins == h.FilterStart
	}
	return false
}

// Body is the IL body of a method.
type Body struct {
	Instructions []*Instruction
	Handlers     []*ExceptionHandler
	Locals       int
	// Lines maps instruction offsets to source lines (sequence points).
	Lines map[int]int

	byOffset map[int]*Instruction
}

// NewBody indexes instructions and returns the body.
func NewBody(instructions []*Instruction, locals int) *Body {
	b := &Body{
		Instructions: instructions,
		Locals:       locals,
		byOffset:     make(map[int]*Instruction, len(instructions)),
	}
	for i, ins := range instructions {
		ins.Index = i
		b.byOffset[ins.Offset] = ins
	}
	return b
}

// Entry returns the first instruction, or nil for an empty body.
func (b *Body) Entry() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[0]
}

// At returns the instruction at offset, or nil.
func (b *Body) At(offset int) *Instruction {
	return b.byOffset[offset]
}

// Next returns the fall-through successor of ins, or nil at the end.
func (b *Body) Next(ins *Instruction) *Instruction {
	if ins == nil || ins.Index+1 >= len(b.Instructions) {
		return nil
	}
	return b.Instructions[ins.Index+1]
}

// LineAt returns the source line of the closest sequence point at or
// before offset.
func (b *Body) LineAt(offset int) (int, bool) {
	if len(b.Lines) == 0 {
		return 0, false
	}
	best, found := -1, false
	for off := range b.Lines {
		if off <= offset && off > best {
			best, found = off, true
		}
	}
	if !found {
		return 0, false
	}
	return b.Lines[best], true
}

// HandlersReceivingException returns the clauses for which ins is an entry
// point with the exception object on the stack.
func (b *Body) HandlersReceivingException(ins *Instruction) []*ExceptionHandler {
	var out []*ExceptionHandler
	for _, h := range b.Handlers {
		if h.ReceivesException(ins) {
			out = append(out, h)
		}
	}
	return out
}

// TryRegionsStartingAt returns the clauses whose protected region starts at ins.
func (b *Body) TryRegionsStartingAt(ins *Instruction) []*ExceptionHandler {
	var out []*ExceptionHandler
	for _, h := range b.Handlers {
		if h.TryStart == ins {
			out = append(out, h)
		}
	}
	return out
}

// Offsets returns the sorted instruction offsets.
func (b *Body) Offsets() []int {
	offsets := make([]int, 0, len(b.Instructions))
	for _, ins := range b.Instructions {
		offsets = append(offsets, ins.Offset)
	}
	sort.Ints(offsets)
	return offsets
}
