package cil

import "fmt"

// OpCode identifies a CIL instruction. The set covers the whole ECMA-335
// instruction table, including opcodes the interpreter rejects.
type OpCode int

const (
	InvalidOpCode OpCode = iota
	Nop
	Break
	Ldarg0
	Ldarg1
	Ldarg2
	Ldarg3
	Ldloc0
	Ldloc1
	Ldloc2
	Ldloc3
	Stloc0
	Stloc1
	Stloc2
	Stloc3
	LdargS
	LdargaS
	StargS
	LdlocS
	LdlocaS
	StlocS
	Ldnull
	LdcI4M1
	LdcI40
	LdcI41
	LdcI42
	LdcI43
	LdcI44
	LdcI45
	LdcI46
	LdcI47
	LdcI48
	LdcI4S
	LdcI4
	LdcI8
	LdcR4
	LdcR8
	Dup
	Pop
	Jmp
	Call
	Calli
	Ret
	BrS
	BrfalseS
	BrtrueS
	BeqS
	BgeS
	BgtS
	BleS
	BltS
	BneUnS
	BgeUnS
	BgtUnS
	BleUnS
	BltUnS
	Br
	Brfalse
	Brtrue
	Beq
	Bge
	Bgt
	Ble
	Blt
	BneUn
	BgeUn
	BgtUn
	BleUn
	BltUn
	Switch
	LdindI1
	LdindU1
	LdindI2
	LdindU2
	LdindI4
	LdindU4
	LdindI8
	LdindI
	LdindR4
	LdindR8
	LdindRef
	StindRef
	StindI1
	StindI2
	StindI4
	StindI8
	StindR4
	StindR8
	Add
	Sub
	Mul
	Div
	DivUn
	Rem
	RemUn
	And
	Or
	Xor
	Shl
	Shr
	ShrUn
	Neg
	Not
	ConvI1
	ConvI2
	ConvI4
	ConvI8
	ConvR4
	ConvR8
	ConvU4
	ConvU8
	Callvirt
	Cpobj
	Ldobj
	Ldstr
	Newobj
	Castclass
	Isinst
	ConvRUn
	Unbox
	Throw
	Ldfld
	Ldflda
	Stfld
	Ldsfld
	Ldsflda
	Stsfld
	Stobj
	ConvOvfI1Un
	ConvOvfI2Un
	ConvOvfI4Un
	ConvOvfI8Un
	ConvOvfU1Un
	ConvOvfU2Un
	ConvOvfU4Un
	ConvOvfU8Un
	ConvOvfIUn
	ConvOvfUUn
	Box
	Newarr
	Ldlen
	Ldelema
	LdelemI1
	LdelemU1
	LdelemI2
	LdelemU2
	LdelemI4
	LdelemU4
	LdelemI8
	LdelemI
	LdelemR4
	LdelemR8
	LdelemRef
	StelemI
	StelemI1
	StelemI2
	StelemI4
	StelemI8
	StelemR4
	StelemR8
	StelemRef
	Ldelem
	Stelem
	UnboxAny
	ConvOvfI1
	ConvOvfU1
	ConvOvfI2
	ConvOvfU2
	ConvOvfI4
	ConvOvfU4
	ConvOvfI8
	ConvOvfU8
	Refanyval
	Ckfinite
	Mkrefany
	Ldtoken
	ConvU2
	ConvU1
	ConvI
	ConvOvfI
	ConvOvfU
	AddOvf
	AddOvfUn
	MulOvf
	MulOvfUn
	SubOvf
	SubOvfUn
	Endfinally
	Leave
	LeaveS
	StindI
	ConvU
	Arglist
	Ceq
	Cgt
	CgtUn
	Clt
	CltUn
	Ldftn
	Ldvirtftn
	Ldarg
	Ldarga
	Starg
	Ldloc
	Ldloca
	Stloc
	Localloc
	Endfilter
	Unaligned
	Volatile
	Tail
	Initobj
	Constrained
	Cpblk
	Initblk
	No
	Rethrow
	Sizeof
	Refanytype
	Readonly
	opcodeCount
)

// OperandKind describes what an instruction carries after its opcode.
type OperandKind int

const (
	OperandNone        OperandKind = iota
	OperandInt8                    // int8 literal (also unaligned./no. flags)
	OperandInt32                   // int32 literal
	OperandInt64                   // int64 literal
	OperandFloat32                 // float32 literal
	OperandFloat64                 // float64 literal
	OperandString                  // string literal
	OperandShortBranch             // 1-byte branch target
	OperandBranch                  // 4-byte branch target
	OperandSwitch                  // jump table
	OperandMethod                  // method reference
	OperandField                   // field reference
	OperandType                    // type reference
	OperandToken                   // type, method or field reference
	OperandShortVar                // 1-byte argument or local index
	OperandVar                     // 2-byte argument or local index
	OperandSig                     // call site signature (calli)
)

type opcodeInfo struct {
	name    string
	operand OperandKind
	size    int
}

var opcodeInfos = [opcodeCount]opcodeInfo{
	InvalidOpCode: {"<invalid>", OperandNone, 0},
	Nop:           {"nop", OperandNone, 1},
	Break:         {"break", OperandNone, 1},
	Ldarg0:        {"ldarg.0", OperandNone, 1},
	Ldarg1:        {"ldarg.1", OperandNone, 1},
	Ldarg2:        {"ldarg.2", OperandNone, 1},
	Ldarg3:        {"ldarg.3", OperandNone, 1},
	Ldloc0:        {"ldloc.0", OperandNone, 1},
	Ldloc1:        {"ldloc.1", OperandNone, 1},
	Ldloc2:        {"ldloc.2", OperandNone, 1},
	Ldloc3:        {"ldloc.3", OperandNone, 1},
	Stloc0:        {"stloc.0", OperandNone, 1},
	Stloc1:        {"stloc.1", OperandNone, 1},
	Stloc2:        {"stloc.2", OperandNone, 1},
	Stloc3:        {"stloc.3", OperandNone, 1},
	LdargS:        {"ldarg.s", OperandShortVar, 1},
	LdargaS:       {"ldarga.s", OperandShortVar, 1},
	StargS:        {"starg.s", OperandShortVar, 1},
	LdlocS:        {"ldloc.s", OperandShortVar, 1},
	LdlocaS:       {"ldloca.s", OperandShortVar, 1},
	StlocS:        {"stloc.s", OperandShortVar, 1},
	Ldnull:        {"ldnull", OperandNone, 1},
	LdcI4M1:       {"ldc.i4.m1", OperandNone, 1},
	LdcI40:        {"ldc.i4.0", OperandNone, 1},
	LdcI41:        {"ldc.i4.1", OperandNone, 1},
	LdcI42:        {"ldc.i4.2", OperandNone, 1},
	LdcI43:        {"ldc.i4.3", OperandNone, 1},
	LdcI44:        {"ldc.i4.4", OperandNone, 1},
	LdcI45:        {"ldc.i4.5", OperandNone, 1},
	LdcI46:        {"ldc.i4.6", OperandNone, 1},
	LdcI47:        {"ldc.i4.7", OperandNone, 1},
	LdcI48:        {"ldc.i4.8", OperandNone, 1},
	LdcI4S:        {"ldc.i4.s", OperandInt8, 1},
	LdcI4:         {"ldc.i4", OperandInt32, 1},
	LdcI8:         {"ldc.i8", OperandInt64, 1},
	LdcR4:         {"ldc.r4", OperandFloat32, 1},
	LdcR8:         {"ldc.r8", OperandFloat64, 1},
	Dup:           {"dup", OperandNone, 1},
	Pop:           {"pop", OperandNone, 1},
	Jmp:           {"jmp", OperandMethod, 1},
	Call:          {"call", OperandMethod, 1},
	Calli:         {"calli", OperandSig, 1},
	Ret:           {"ret", OperandNone, 1},
	BrS:           {"br.s", OperandShortBranch, 1},
	BrfalseS:      {"brfalse.s", OperandShortBranch, 1},
	BrtrueS:       {"brtrue.s", OperandShortBranch, 1},
	BeqS:          {"beq.s", OperandShortBranch, 1},
	BgeS:          {"bge.s", OperandShortBranch, 1},
	BgtS:          {"bgt.s", OperandShortBranch, 1},
	BleS:          {"ble.s", OperandShortBranch, 1},
	BltS:          {"blt.s", OperandShortBranch, 1},
	BneUnS:        {"bne.un.s", OperandShortBranch, 1},
	BgeUnS:        {"bge.un.s", OperandShortBranch, 1},
	BgtUnS:        {"bgt.un.s", OperandShortBranch, 1},
	BleUnS:        {"ble.un.s", OperandShortBranch, 1},
	BltUnS:        {"blt.un.s", OperandShortBranch, 1},
	Br:            {"br", OperandBranch, 1},
	Brfalse:       {"brfalse", OperandBranch, 1},
	Brtrue:        {"brtrue", OperandBranch, 1},
	Beq:           {"beq", OperandBranch, 1},
	Bge:           {"bge", OperandBranch, 1},
	Bgt:           {"bgt", OperandBranch, 1},
	Ble:           {"ble", OperandBranch, 1},
	Blt:           {"blt", OperandBranch, 1},
	BneUn:         {"bne.un", OperandBranch, 1},
	BgeUn:         {"bge.un", OperandBranch, 1},
	BgtUn:         {"bgt.un", OperandBranch, 1},
	BleUn:         {"ble.un", OperandBranch, 1},
	BltUn:         {"blt.un", OperandBranch, 1},
	Switch:        {"switch", OperandSwitch, 1},
	LdindI1:       {"ldind.i1", OperandNone, 1},
	LdindU1:       {"ldind.u1", OperandNone, 1},
	LdindI2:       {"ldind.i2", OperandNone, 1},
	LdindU2:       {"ldind.u2", OperandNone, 1},
	LdindI4:       {"ldind.i4", OperandNone, 1},
	LdindU4:       {"ldind.u4", OperandNone, 1},
	LdindI8:       {"ldind.i8", OperandNone, 1},
	LdindI:        {"ldind.i", OperandNone, 1},
	LdindR4:       {"ldind.r4", OperandNone, 1},
	LdindR8:       {"ldind.r8", OperandNone, 1},
	LdindRef:      {"ldind.ref", OperandNone, 1},
	StindRef:      {"stind.ref", OperandNone, 1},
	StindI1:       {"stind.i1", OperandNone, 1},
	StindI2:       {"stind.i2", OperandNone, 1},
	StindI4:       {"stind.i4", OperandNone, 1},
	StindI8:       {"stind.i8", OperandNone, 1},
	StindR4:       {"stind.r4", OperandNone, 1},
	StindR8:       {"stind.r8", OperandNone, 1},
	Add:           {"add", OperandNone, 1},
	Sub:           {"sub", OperandNone, 1},
	Mul:           {"mul", OperandNone, 1},
	Div:           {"div", OperandNone, 1},
	DivUn:         {"div.un", OperandNone, 1},
	Rem:           {"rem", OperandNone, 1},
	RemUn:         {"rem.un", OperandNone, 1},
	And:           {"and", OperandNone, 1},
	Or:            {"or", OperandNone, 1},
	Xor:           {"xor", OperandNone, 1},
	Shl:           {"shl", OperandNone, 1},
	Shr:           {"shr", OperandNone, 1},
	ShrUn:         {"shr.un", OperandNone, 1},
	Neg:           {"neg", OperandNone, 1},
	Not:           {"not", OperandNone, 1},
	ConvI1:        {"conv.i1", OperandNone, 1},
	ConvI2:        {"conv.i2", OperandNone, 1},
	ConvI4:        {"conv.i4", OperandNone, 1},
	ConvI8:        {"conv.i8", OperandNone, 1},
	ConvR4:        {"conv.r4", OperandNone, 1},
	ConvR8:        {"conv.r8", OperandNone, 1},
	ConvU4:        {"conv.u4", OperandNone, 1},
	ConvU8:        {"conv.u8", OperandNone, 1},
	Callvirt:      {"callvirt", OperandMethod, 1},
	Cpobj:         {"cpobj", OperandType, 1},
	Ldobj:         {"ldobj", OperandType, 1},
	Ldstr:         {"ldstr", OperandString, 1},
	Newobj:        {"newobj", OperandMethod, 1},
	Castclass:     {"castclass", OperandType, 1},
	Isinst:        {"isinst", OperandType, 1},
	ConvRUn:       {"conv.r.un", OperandNone, 1},
	Unbox:         {"unbox", OperandType, 1},
	Throw:         {"throw", OperandNone, 1},
	Ldfld:         {"ldfld", OperandField, 1},
	Ldflda:        {"ldflda", OperandField, 1},
	Stfld:         {"stfld", OperandField, 1},
	Ldsfld:        {"ldsfld", OperandField, 1},
	Ldsflda:       {"ldsflda", OperandField, 1},
	Stsfld:        {"stsfld", OperandField, 1},
	Stobj:         {"stobj", OperandType, 1},
	ConvOvfI1Un:   {"conv.ovf.i1.un", OperandNone, 1},
	ConvOvfI2Un:   {"conv.ovf.i2.un", OperandNone, 1},
	ConvOvfI4Un:   {"conv.ovf.i4.un", OperandNone, 1},
	ConvOvfI8Un:   {"conv.ovf.i8.un", OperandNone, 1},
	ConvOvfU1Un:   {"conv.ovf.u1.un", OperandNone, 1},
	ConvOvfU2Un:   {"conv.ovf.u2.un", OperandNone, 1},
	ConvOvfU4Un:   {"conv.ovf.u4.un", OperandNone, 1},
	ConvOvfU8Un:   {"conv.ovf.u8.un", OperandNone, 1},
	ConvOvfIUn:    {"conv.ovf.i.un", OperandNone, 1},
	ConvOvfUUn:    {"conv.ovf.u.un", OperandNone, 1},
	Box:           {"box", OperandType, 1},
	Newarr:        {"newarr", OperandType, 1},
	Ldlen:         {"ldlen", OperandNone, 1},
	Ldelema:       {"ldelema", OperandType, 1},
	LdelemI1:      {"ldelem.i1", OperandNone, 1},
	LdelemU1:      {"ldelem.u1", OperandNone, 1},
	LdelemI2:      {"ldelem.i2", OperandNone, 1},
	LdelemU2:      {"ldelem.u2", OperandNone, 1},
	LdelemI4:      {"ldelem.i4", OperandNone, 1},
	LdelemU4:      {"ldelem.u4", OperandNone, 1},
	LdelemI8:      {"ldelem.i8", OperandNone, 1},
	LdelemI:       {"ldelem.i", OperandNone, 1},
	LdelemR4:      {"ldelem.r4", OperandNone, 1},
	LdelemR8:      {"ldelem.r8", OperandNone, 1},
	LdelemRef:     {"ldelem.ref", OperandNone, 1},
	StelemI:       {"stelem.i", OperandNone, 1},
	StelemI1:      {"stelem.i1", OperandNone, 1},
	StelemI2:      {"stelem.i2", OperandNone, 1},
	StelemI4:      {"stelem.i4", OperandNone, 1},
	StelemI8:      {"stelem.i8", OperandNone, 1},
	StelemR4:      {"stelem.r4", OperandNone, 1},
	StelemR8:      {"stelem.r8", OperandNone, 1},
	StelemRef:     {"stelem.ref", OperandNone, 1},
	Ldelem:        {"ldelem", OperandType, 1},
	Stelem:        {"stelem", OperandType, 1},
	UnboxAny:      {"unbox.any", OperandType, 1},
	ConvOvfI1:     {"conv.ovf.i1", OperandNone, 1},
	ConvOvfU1:     {"conv.ovf.u1", OperandNone, 1},
	ConvOvfI2:     {"conv.ovf.i2", OperandNone, 1},
	ConvOvfU2:     {"conv.ovf.u2", OperandNone, 1},
	ConvOvfI4:     {"conv.ovf.i4", OperandNone, 1},
	ConvOvfU4:     {"conv.ovf.u4", OperandNone, 1},
	ConvOvfI8:     {"conv.ovf.i8", OperandNone, 1},
	ConvOvfU8:     {"conv.ovf.u8", OperandNone, 1},
	Refanyval:     {"refanyval", OperandType, 1},
	Ckfinite:      {"ckfinite", OperandNone, 1},
	Mkrefany:      {"mkrefany", OperandType, 1},
	Ldtoken:       {"ldtoken", OperandToken, 1},
	ConvU2:        {"conv.u2", OperandNone, 1},
	ConvU1:        {"conv.u1", OperandNone, 1},
	ConvI:         {"conv.i", OperandNone, 1},
	ConvOvfI:      {"conv.ovf.i", OperandNone, 1},
	ConvOvfU:      {"conv.ovf.u", OperandNone, 1},
	AddOvf:        {"add.ovf", OperandNone, 1},
	AddOvfUn:      {"add.ovf.un", OperandNone, 1},
	MulOvf:        {"mul.ovf", OperandNone, 1},
	MulOvfUn:      {"mul.ovf.un", OperandNone, 1},
	SubOvf:        {"sub.ovf", OperandNone, 1},
	SubOvfUn:      {"sub.ovf.un", OperandNone, 1},
	Endfinally:    {"endfinally", OperandNone, 1},
	Leave:         {"leave", OperandBranch, 1},
	LeaveS:        {"leave.s", OperandShortBranch, 1},
	StindI:        {"stind.i", OperandNone, 1},
	ConvU:         {"conv.u", OperandNone, 1},
	Arglist:       {"arglist", OperandNone, 2},
	Ceq:           {"ceq", OperandNone, 2},
	Cgt:           {"cgt", OperandNone, 2},
	CgtUn:         {"cgt.un", OperandNone, 2},
	Clt:           {"clt", OperandNone, 2},
	CltUn:         {"clt.un", OperandNone, 2},
	Ldftn:         {"ldftn", OperandMethod, 2},
	Ldvirtftn:     {"ldvirtftn", OperandMethod, 2},
	Ldarg:         {"ldarg", OperandVar, 2},
	Ldarga:        {"ldarga", OperandVar, 2},
	Starg:         {"starg", OperandVar, 2},
	Ldloc:         {"ldloc", OperandVar, 2},
	Ldloca:        {"ldloca", OperandVar, 2},
	Stloc:         {"stloc", OperandVar, 2},
	Localloc:      {"localloc", OperandNone, 2},
	Endfilter:     {"endfilter", OperandNone, 2},
	Unaligned:     {"unaligned.", OperandInt8, 2},
	Volatile:      {"volatile.", OperandNone, 2},
	Tail:          {"tail.", OperandNone, 2},
	Initobj:       {"initobj", OperandType, 2},
	Constrained:   {"constrained.", OperandType, 2},
	Cpblk:         {"cpblk", OperandNone, 2},
	Initblk:       {"initblk", OperandNone, 2},
	No:            {"no.", OperandInt8, 2},
	Rethrow:       {"rethrow", OperandNone, 2},
	Sizeof:        {"sizeof", OperandType, 2},
	Refanytype:    {"refanytype", OperandNone, 2},
	Readonly:      {"readonly.", OperandNone, 2},
}

var opcodesByName = func() map[string]OpCode {
	m := make(map[string]OpCode, opcodeCount)
	for op := InvalidOpCode + 1; op < opcodeCount; op++ {
		m[opcodeInfos[op].name] = op
	}
	return m
}()

// LookupOpCode resolves an instruction mnemonic such as "ldarg.0".
func LookupOpCode(name string) (OpCode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

func (op OpCode) String() string {
	if op <= InvalidOpCode || op >= opcodeCount {
		return fmt.Sprintf("opcode(%d)", int(op))
	}
	return opcodeInfos[op].name
}

// Operand returns the operand kind the opcode expects.
func (op OpCode) Operand() OperandKind {
	if op <= InvalidOpCode || op >= opcodeCount {
		return OperandNone
	}
	return opcodeInfos[op].operand
}

// Size returns the encoded size of the instruction, opcode plus operand.
// Switch tables depend on the number of targets and are sized by Instruction.Size.
func (op OpCode) Size() int {
	if op <= InvalidOpCode || op >= opcodeCount {
		return 0
	}
	info := opcodeInfos[op]
	switch info.operand {
	case OperandInt8, OperandShortBranch, OperandShortVar:
		return info.size + 1
	case OperandVar:
		return info.size + 2
	case OperandInt64, OperandFloat64:
		return info.size + 8
	case OperandNone:
		return info.size
	case OperandSwitch:
		return info.size + 4
	default:
		return info.size + 4
	}
}

// IsPrefix reports whether the opcode only modifies the following instruction.
func (op OpCode) IsPrefix() bool {
	switch op {
	case Unaligned, Volatile, Tail, Constrained, No, Readonly:
		return true
	}
	return false
}
