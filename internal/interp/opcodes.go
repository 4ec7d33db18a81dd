package interp

import (
	"github.com/gnolang/cilint/internal/ast"
	"github.com/gnolang/cilint/internal/cil"
)

var binaryOps = map[cil.OpCode]ast.Kind{
	cil.Add:      ast.KindAdd,
	cil.Sub:      ast.KindSub,
	cil.Mul:      ast.KindMul,
	cil.Div:      ast.KindDiv,
	cil.DivUn:    ast.KindDivUn,
	cil.Rem:      ast.KindRem,
	cil.RemUn:    ast.KindRemUn,
	cil.And:      ast.KindAnd,
	cil.Or:       ast.KindOr,
	cil.Xor:      ast.KindXor,
	cil.Shl:      ast.KindShl,
	cil.Shr:      ast.KindShr,
	cil.ShrUn:    ast.KindShrUn,
	cil.AddOvf:   ast.KindAddOvf,
	cil.AddOvfUn: ast.KindAddOvfUn,
	cil.SubOvf:   ast.KindSubOvf,
	cil.SubOvfUn: ast.KindSubOvfUn,
	cil.MulOvf:   ast.KindMulOvf,
	cil.MulOvfUn: ast.KindMulOvfUn,
	cil.Ceq:      ast.KindCeq,
	cil.Cgt:      ast.KindCgt,
	cil.CgtUn:    ast.KindCgtUn,
	cil.Clt:      ast.KindClt,
	cil.CltUn:    ast.KindCltUn,
}

var unaryOps = map[cil.OpCode]ast.Kind{
	cil.Neg:      ast.KindNeg,
	cil.Not:      ast.KindNot,
	cil.Ckfinite: ast.KindCheckFinite,
}

// compareBranches maps two-operand conditional branches to their predicate.
var compareBranches = map[cil.OpCode]ast.Kind{
	cil.Beq:    ast.KindEq,
	cil.BeqS:   ast.KindEq,
	cil.BneUn:  ast.KindNeUn,
	cil.BneUnS: ast.KindNeUn,
	cil.Bge:    ast.KindGe,
	cil.BgeS:   ast.KindGe,
	cil.BgeUn:  ast.KindGeUn,
	cil.BgeUnS: ast.KindGeUn,
	cil.Bgt:    ast.KindGt,
	cil.BgtS:   ast.KindGt,
	cil.BgtUn:  ast.KindGtUn,
	cil.BgtUnS: ast.KindGtUn,
	cil.Ble:    ast.KindLe,
	cil.BleS:   ast.KindLe,
	cil.BleUn:  ast.KindLeUn,
	cil.BleUnS: ast.KindLeUn,
	cil.Blt:    ast.KindLt,
	cil.BltS:   ast.KindLt,
	cil.BltUn:  ast.KindLtUn,
	cil.BltUnS: ast.KindLtUn,
}

var typeOps = map[cil.OpCode]ast.Kind{
	cil.Box:       ast.KindBox,
	cil.Unbox:     ast.KindUnbox,
	cil.UnboxAny:  ast.KindUnboxAny,
	cil.Castclass: ast.KindCastClass,
	cil.Isinst:    ast.KindIsInst,
	cil.Mkrefany:  ast.KindMkRefAny,
	cil.Refanyval: ast.KindRefAnyVal,
}

// conversions maps conv.* opcodes to the target named in the mnemonic.
var conversions = func() map[cil.OpCode]string {
	ops := []cil.OpCode{
		cil.ConvI1, cil.ConvI2, cil.ConvI4, cil.ConvI8, cil.ConvR4, cil.ConvR8,
		cil.ConvU1, cil.ConvU2, cil.ConvU4, cil.ConvU8, cil.ConvI, cil.ConvU, cil.ConvRUn,
		cil.ConvOvfI1, cil.ConvOvfI2, cil.ConvOvfI4, cil.ConvOvfI8,
		cil.ConvOvfU1, cil.ConvOvfU2, cil.ConvOvfU4, cil.ConvOvfU8,
		cil.ConvOvfI, cil.ConvOvfU,
		cil.ConvOvfI1Un, cil.ConvOvfI2Un, cil.ConvOvfI4Un, cil.ConvOvfI8Un,
		cil.ConvOvfU1Un, cil.ConvOvfU2Un, cil.ConvOvfU4Un, cil.ConvOvfU8Un,
		cil.ConvOvfIUn, cil.ConvOvfUUn,
	}
	m := make(map[cil.OpCode]string, len(ops))
	for _, op := range ops {
		m[op] = op.String()[len("conv."):]
	}
	return m
}()

var int32Constants = map[cil.OpCode]int32{
	cil.LdcI4M1: -1,
	cil.LdcI40:  0,
	cil.LdcI41:  1,
	cil.LdcI42:  2,
	cil.LdcI43:  3,
	cil.LdcI44:  4,
	cil.LdcI45:  5,
	cil.LdcI46:  6,
	cil.LdcI47:  7,
	cil.LdcI48:  8,
}

func isConditionalBranch(op cil.OpCode) bool {
	if _, ok := compareBranches[op]; ok {
		return true
	}
	switch op {
	case cil.Brtrue, cil.BrtrueS, cil.Brfalse, cil.BrfalseS:
		return true
	}
	return false
}

// loopHead reports whether the straight-line run starting at ins ends in a
// conditional branch, the shape of a compiled loop condition.
func loopHead(body *cil.Body, ins *cil.Instruction) bool {
	for ; ins != nil; ins = body.Next(ins) {
		if isConditionalBranch(ins.OpCode) {
			return true
		}
		switch ins.OpCode {
		case cil.Br, cil.BrS, cil.Leave, cil.LeaveS, cil.Switch,
			cil.Ret, cil.Throw, cil.Rethrow, cil.Jmp, cil.Endfinally, cil.Endfilter:
			return false
		}
	}
	return false
}
