package interp

import (
	"go.uber.org/zap"

	"github.com/gnolang/cilint/internal/ast"
	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/memory"
)

// frame carries one instruction's execution. The first failure sticks, so
// handlers can pop freely and check once.
type frame struct {
	in    *Interpreter
	r     *memory.Routine
	ins   *cil.Instruction
	body  *cil.Body
	forks []*memory.Routine
	err   error
}

func (f *frame) pop() ast.Node {
	if f.err != nil {
		return nil
	}
	v, ok := f.r.Pop()
	if !ok {
		f.err = &StackUnderflowError{OpCode: f.ins.OpCode, Method: f.r.Method(), Offset: f.ins.Offset}
	}
	return v
}

// popN pops n values and returns them in push order.
func (f *frame) popN(n int) []ast.Node {
	if n == 0 {
		return nil
	}
	out := make([]ast.Node, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = f.pop()
	}
	return out
}

func (f *frame) push(n ast.Node) { f.r.Push(n) }

func (f *frame) point() ast.Point { return ast.NewPoint(f.r.Method(), f.ins) }

func (f *frame) next() *cil.Instruction { return f.body.Next(f.ins) }

func (f *frame) invalidOperand() {
	if f.err == nil {
		f.err = &InvalidOperandError{OpCode: f.ins.OpCode, Method: f.r.Method(), Offset: f.ins.Offset, Operand: f.ins.Operand}
	}
}

// slot returns the argument or local index of a slot instruction.
func (f *frame) slot() int {
	idx := f.ins.VarIndex()
	if idx < 0 {
		f.invalidOperand()
	}
	return idx
}

func (f *frame) method() cil.Method {
	m, ok := f.ins.Operand.(cil.Method)
	if !ok || m == nil {
		f.invalidOperand()
	}
	return m
}

func (f *frame) field() cil.Field {
	fl, ok := f.ins.Operand.(cil.Field)
	if !ok || fl == nil {
		f.invalidOperand()
	}
	return fl
}

func (f *frame) typ() cil.Type {
	t, ok := f.ins.Operand.(cil.Type)
	if !ok || t == nil {
		f.invalidOperand()
	}
	return t
}

// Step executes ins on r. It returns the routines forked off r, each with
// its cursor set, and the instruction r continues with, nil when r is done.
// r is left in an unspecified state when an error is returned.
func (in *Interpreter) Step(r *memory.Routine, ins *cil.Instruction) ([]*memory.Routine, *cil.Instruction, error) {
	body := r.Method().Body()
	f := &frame{in: in, r: r, ins: ins, body: body}

	if len(body.HandlersReceivingException(ins)) > 0 {
		r.Push(ast.Thrown)
	}
	r.MarkExecuted(ins.Offset)
	f.enterProtectedRegions()

	next := f.execute()
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.forks, next, nil
}

// enterProtectedRegions queues one routine per handler of every protected
// region starting at the current instruction, modelling an exception raised
// anywhere inside the region. Filters get a routine for the filter block and
// one for the handler block.
func (f *frame) enterProtectedRegions() {
	for _, h := range f.body.TryRegionsStartingAt(f.ins) {
		entries := []*cil.Instruction{h.Entry()}
		if h.Kind == cil.HandlerFilter && h.HandlerStart != h.Entry() {
			entries = append(entries, h.HandlerStart)
		}
		for _, entry := range entries {
			if entry == nil || f.r.Executed(entry.Offset) {
				continue
			}
			fork := f.r.Fork()
			fork.ClearStack()
			fork.SetCursor(entry)
			f.forks = append(f.forks, fork)
		}
	}
}

func (f *frame) execute() *cil.Instruction {
	ins := f.ins
	op := ins.OpCode
	next := f.next()

	if v, ok := int32Constants[op]; ok {
		f.push(ast.NewInt32(v))
		return next
	}
	if k, ok := binaryOps[op]; ok {
		right := f.pop()
		left := f.pop()
		f.push(ast.NewBinary(k, left, right))
		return next
	}
	if k, ok := unaryOps[op]; ok {
		f.push(ast.NewUnary(k, f.pop()))
		return next
	}
	if to, ok := conversions[op]; ok {
		f.push(&ast.Convert{To: to, Operand: f.pop()})
		return next
	}
	if k, ok := typeOps[op]; ok {
		t := f.typ()
		f.push(ast.NewTypeOp(k, t, f.pop()))
		return next
	}
	if k, ok := compareBranches[op]; ok {
		right := f.pop()
		left := f.pop()
		return f.branch(ast.NewBinary(k, left, right))
	}
	if op.IsPrefix() {
		return next
	}

	switch op {
	case cil.Nop, cil.Break:

	// constants
	case cil.LdcI4S, cil.LdcI4:
		v, ok := ins.Operand.(int32)
		if !ok {
			f.invalidOperand()
		}
		f.push(ast.NewInt32(v))
	case cil.LdcI8:
		v, ok := ins.Operand.(int64)
		if !ok {
			f.invalidOperand()
		}
		f.push(ast.NewInt64(v))
	case cil.LdcR4:
		v, ok := ins.Operand.(float32)
		if !ok {
			f.invalidOperand()
		}
		f.push(ast.NewFloat32(v))
	case cil.LdcR8:
		v, ok := ins.Operand.(float64)
		if !ok {
			f.invalidOperand()
		}
		f.push(ast.NewFloat64(v))
	case cil.Ldstr:
		v, ok := ins.Operand.(string)
		if !ok {
			f.invalidOperand()
		}
		f.push(ast.NewString(v))
	case cil.Ldnull:
		f.push(ast.Null)

	// slots
	case cil.Ldarg0, cil.Ldarg1, cil.Ldarg2, cil.Ldarg3, cil.LdargS, cil.Ldarg:
		if idx := f.slot(); f.err == nil {
			f.push(f.r.Arg(idx))
		}
	case cil.LdargaS, cil.Ldarga:
		if idx := f.slot(); f.err == nil {
			f.push(&ast.ArgumentAddress{Index: idx, Name: f.r.ArgName(idx)})
		}
	case cil.StargS, cil.Starg:
		idx := f.slot()
		v := f.pop()
		if f.err == nil {
			f.r.SetArg(idx, v)
		}
	case cil.Ldloc0, cil.Ldloc1, cil.Ldloc2, cil.Ldloc3, cil.LdlocS, cil.Ldloc:
		if idx := f.slot(); f.err == nil {
			f.push(f.r.Local(idx))
		}
	case cil.LdlocaS, cil.Ldloca:
		if idx := f.slot(); f.err == nil {
			f.push(&ast.LocalAddress{Index: idx})
		}
	case cil.Stloc0, cil.Stloc1, cil.Stloc2, cil.Stloc3, cil.StlocS, cil.Stloc:
		idx := f.slot()
		v := f.pop()
		if f.err == nil {
			f.r.SetLocal(idx, v)
		}
	case cil.Arglist:
		f.push(ast.ArgList)

	// stack
	case cil.Dup:
		v := f.pop()
		f.push(v)
		f.push(v)
	case cil.Pop:
		f.pop()

	// invocations
	case cil.Call, cil.Callvirt:
		f.call(f.method())
	case cil.Newobj:
		f.newObject(f.method())
	case cil.Calli:
		f.callIndirect()
	case cil.Newarr:
		t := f.typ()
		size := f.pop()
		arr := &ast.NewArray{Element: t, Size: size, Point: f.point()}
		f.register(arr, size)
		f.push(arr)
	case cil.Localloc:
		size := f.pop()
		node := &ast.LocalAlloc{Size: size}
		f.register(node, size)
		f.push(node)
	case cil.Ldftn:
		f.push(&ast.Ftn{Method: f.method()})
	case cil.Ldvirtftn:
		m := f.method()
		f.push(&ast.Ftn{Method: m, Instance: f.pop(), Virtual: true})

	// fields
	case cil.Ldfld:
		fl := f.field()
		inst := f.pop()
		if f.err == nil {
			f.push(f.r.LoadField(inst, fl))
		}
	case cil.Ldflda:
		fl := f.field()
		f.push(&ast.FieldAddress{Instance: f.pop(), Field: fl})
	case cil.Stfld:
		fl := f.field()
		v := f.pop()
		inst := f.pop()
		if f.err == nil {
			f.r.StoreField(inst, fl, v)
		}
	case cil.Ldsfld:
		fl := f.field()
		if f.err == nil {
			f.push(f.r.LoadField(nil, fl))
		}
	case cil.Ldsflda:
		f.push(&ast.StaticFieldAddress{Field: f.field()})
	case cil.Stsfld:
		fl := f.field()
		v := f.pop()
		if f.err == nil {
			f.r.StoreField(nil, fl, v)
		}

	// arrays
	case cil.LdelemI1, cil.LdelemU1, cil.LdelemI2, cil.LdelemU2, cil.LdelemI4, cil.LdelemU4,
		cil.LdelemI8, cil.LdelemI, cil.LdelemR4, cil.LdelemR8, cil.LdelemRef, cil.Ldelem:
		index := f.pop()
		array := f.pop()
		f.push(f.r.LoadElement(array, index))
	case cil.Ldelema:
		index := f.pop()
		array := f.pop()
		f.push(&ast.ArrayElementAddress{Array: array, Index: index})
	case cil.StelemI, cil.StelemI1, cil.StelemI2, cil.StelemI4, cil.StelemI8,
		cil.StelemR4, cil.StelemR8, cil.StelemRef, cil.Stelem:
		v := f.pop()
		index := f.pop()
		array := f.pop()
		if f.err == nil {
			f.r.StoreElement(array, index, v)
		}
	case cil.Ldlen:
		f.push(&ast.ArrayLength{Array: f.pop()})

	// indirect access
	case cil.LdindI1, cil.LdindU1, cil.LdindI2, cil.LdindU2, cil.LdindI4, cil.LdindU4,
		cil.LdindI8, cil.LdindI, cil.LdindR4, cil.LdindR8, cil.LdindRef, cil.Ldobj:
		addr := f.pop()
		if f.err == nil {
			f.push(f.r.LoadIndirect(addr))
		}
	case cil.StindRef, cil.StindI1, cil.StindI2, cil.StindI4, cil.StindI8,
		cil.StindR4, cil.StindR8, cil.StindI, cil.Stobj:
		v := f.pop()
		addr := f.pop()
		if f.err == nil {
			f.r.StoreIndirect(addr, v)
		}
	case cil.Cpobj:
		src := f.pop()
		dst := f.pop()
		if f.err == nil {
			f.r.StoreIndirect(dst, f.r.LoadIndirect(src))
		}
	case cil.Initobj:
		t := f.typ()
		addr := f.pop()
		if f.err == nil {
			f.r.StoreIndirect(addr, &ast.DefaultValue{Type: t})
		}

	// tokens
	case cil.Ldtoken:
		switch v := ins.Operand.(type) {
		case cil.Method:
			f.push(&ast.MethodToken{Method: v})
		case cil.Field:
			f.push(&ast.FieldToken{Field: v})
		case cil.Type:
			f.push(&ast.TypeToken{Type: v})
		default:
			f.invalidOperand()
		}
	case cil.Sizeof:
		f.push(&ast.SizeOf{Type: f.typ()})
	case cil.Refanytype:
		f.push(ast.NewUnary(ast.KindRefAnyType, f.pop()))

	// control flow
	case cil.Br, cil.BrS:
		return ins.Target()
	case cil.Leave, cil.LeaveS:
		f.r.ClearStack()
		return ins.Target()
	case cil.Brtrue, cil.BrtrueS:
		return f.branch(ast.NewUnary(ast.KindIsTrue, f.pop()))
	case cil.Brfalse, cil.BrfalseS:
		return f.branch(ast.NewUnary(ast.KindIsFalse, f.pop()))
	case cil.Switch:
		return f.switchTable(f.pop())
	case cil.Ret:
		if !f.r.Method().IsVoid() {
			f.r.SetReturned(f.pop())
		}
		return nil
	case cil.Throw, cil.Endfilter:
		f.pop()
		return nil
	case cil.Rethrow, cil.Endfinally, cil.Jmp:
		return nil

	default:
		f.err = &UnsupportedInstructionError{OpCode: op, Method: f.r.Method(), Offset: ins.Offset}
	}
	return next
}

// branch handles a two-way conditional transfer. The current routine takes
// the jump and a fork continues at the fall-through; both record the same
// predicate node. When one side was already executed by this routine, the
// routine continues on the other side without forking, and it ends when
// both were.
func (f *frame) branch(predicate ast.Node) *cil.Instruction {
	if f.err != nil {
		return nil
	}
	target := f.ins.Target()
	next := f.next()
	if target == nil {
		f.invalidOperand()
		return nil
	}
	targetDone := f.r.Executed(target.Offset)
	nextDone := next == nil || f.r.Executed(next.Offset)
	switch {
	case targetDone && nextDone:
		return nil
	case targetDone:
		f.r.AddCondition(predicate, 0)
		return next
	case next != nil && nextDone:
		f.r.AddCondition(predicate, 1)
		return target
	}
	if next != nil {
		fork := f.r.Fork()
		fork.AddCondition(predicate, 0)
		fork.SetCursor(next)
		f.forks = append(f.forks, fork)
	}
	f.r.AddCondition(predicate, 1)
	return target
}

// switchTable forks one routine per jump-table entry and keeps the current
// routine on the fall-through, which records the number of cases.
func (f *frame) switchTable(selector ast.Node) *cil.Instruction {
	if f.err != nil {
		return nil
	}
	targets := f.ins.Targets()
	for i, t := range targets {
		if t == nil || f.r.Executed(t.Offset) {
			continue
		}
		fork := f.r.Fork()
		fork.AddCondition(selector, i)
		fork.SetCursor(t)
		f.forks = append(f.forks, fork)
	}
	f.r.AddCondition(selector, len(targets))
	return f.next()
}

// register moves the popped operands of a call-like node out of the
// expression set, where they now live as children, and adds the node.
func (f *frame) register(n ast.Node, operands ...ast.Node) {
	if f.err != nil {
		return
	}
	for _, o := range operands {
		if o != nil {
			f.r.RemoveExpression(o)
		}
	}
	f.r.AddExpression(n)
}

func (f *frame) call(m cil.Method) {
	if f.err != nil {
		return
	}
	args := f.popN(len(m.Params()))
	var receiver ast.Node
	if m.HasThis() {
		receiver = f.pop()
	}
	if f.err != nil {
		return
	}
	call := ast.NewCall(m, receiver, args, f.point())
	f.register(call, append([]ast.Node{receiver}, args...)...)
	f.bindOutArguments(call, m, args)
	if !m.IsVoid() {
		f.push(call)
	}
	f.in.logger.Debug("call",
		zap.String("method", f.r.Method().FullName()),
		zap.String("callee", m.FullName()),
		zap.String("at", f.ins.Label()),
	)
}

func (f *frame) newObject(ctor cil.Method) {
	if f.err != nil {
		return
	}
	args := f.popN(len(ctor.Params()))
	if f.err != nil {
		return
	}
	obj := &ast.NewObject{Ctor: ctor, Args: args, Point: f.point()}
	f.register(obj, args...)
	f.bindOutArguments(obj, ctor, args)
	f.push(obj)
}

func (f *frame) callIndirect() {
	site, ok := f.ins.Operand.(*cil.CallSite)
	if !ok || site == nil {
		f.invalidOperand()
		return
	}
	target := f.pop()
	args := f.popN(site.Params)
	var receiver ast.Node
	if site.HasThis {
		receiver = f.pop()
	}
	if f.err != nil {
		return
	}
	call := &ast.CallIndirect{Site: site, Target: target, Receiver: receiver, Args: args, Point: f.point()}
	f.register(call, append([]ast.Node{target, receiver}, args...)...)
	if !site.Void {
		f.push(call)
	}
}

// bindOutArguments makes locations passed by reference read back as the
// value the call wrote through them.
func (f *frame) bindOutArguments(call ast.Node, m cil.Method, args []ast.Node) {
	for i, p := range m.Params() {
		if !p.ByRef || i >= len(args) || args[i] == nil {
			continue
		}
		f.r.StoreIndirect(args[i], &ast.OutArgument{Call: call, Position: i})
	}
}
