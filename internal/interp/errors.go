package interp

import (
	"errors"
	"fmt"

	"github.com/gnolang/cilint/internal/cil"
)

// ErrStepLimit is returned by Evaluate when the configured step budget ran
// out before every routine completed.
var ErrStepLimit = errors.New("step limit reached")

// UnsupportedInstructionError reports an opcode without a transition.
// Evaluation of the method stops: skipping the instruction would leave the
// operand stack in an unknown shape.
type UnsupportedInstructionError struct {
	OpCode cil.OpCode
	Method cil.Method
	Offset int
}

func (e *UnsupportedInstructionError) Error() string {
	return fmt.Sprintf("unsupported instruction %s at %s in %s", e.OpCode, cil.Label(e.Offset), methodName(e.Method))
}

// StackUnderflowError reports an instruction that popped an empty stack,
// which only happens on malformed bodies.
type StackUnderflowError struct {
	OpCode cil.OpCode
	Method cil.Method
	Offset int
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("stack underflow on %s at %s in %s", e.OpCode, cil.Label(e.Offset), methodName(e.Method))
}

// InvalidOperandError reports an instruction whose decoded operand does not
// have the type its opcode requires.
type InvalidOperandError struct {
	OpCode  cil.OpCode
	Method  cil.Method
	Offset  int
	Operand any
}

func (e *InvalidOperandError) Error() string {
	return fmt.Sprintf("invalid operand %T for %s at %s in %s", e.Operand, e.OpCode, cil.Label(e.Offset), methodName(e.Method))
}

func methodName(m cil.Method) string {
	if m == nil {
		return "<nil>"
	}
	return m.FullName()
}
