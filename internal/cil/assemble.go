package cil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SyntaxError reports a malformed listing line.
type SyntaxError struct {
	Method string
	Line   int
	Text   string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: line %d: %q: %v", e.Method, e.Line, e.Text, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

type rawInstruction struct {
	line    int
	text    string
	offset  int
	opcode  OpCode
	operand string
}

// Assemble parses the textual body of m and attaches it.
//
// Each non-empty line holds one instruction, optionally labelled:
//
//	IL_0000: ldarg.0
//	IL_0001: ldfld Shop.Repo::db
//	IL_0006: callvirt instance void Data.Db::Save()
//
// Unlabelled instructions get the offset following the previous instruction.
// Text after "//" is ignored.
func (a *Assembly) Assemble(m *MethodDef, text string, locals int) (*Body, error) {
	raws, err := scanInstructions(m, text)
	if err != nil {
		return nil, err
	}

	instructions := make([]*Instruction, len(raws))
	for i, raw := range raws {
		instructions[i] = &Instruction{Offset: raw.offset, OpCode: raw.opcode}
	}
	body := NewBody(instructions, locals)
	if len(body.byOffset) != len(instructions) {
		return nil, fmt.Errorf("%s: duplicate instruction offsets", m.FullName())
	}

	for i, raw := range raws {
		operand, err := a.resolveOperand(m, body, raw)
		if err != nil {
			return nil, &SyntaxError{Method: m.FullName(), Line: raw.line, Text: raw.text, Err: err}
		}
		instructions[i].Operand = operand
	}

	m.SetBody(body)
	return body, nil
}

func scanInstructions(m *MethodDef, text string) ([]rawInstruction, error) {
	var (
		raws []rawInstruction
		next int
	)
	for n, line := range strings.Split(text, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 && !inQuotes(line, idx) {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		raw := rawInstruction{line: n + 1, text: line, offset: next}

		if colon := strings.Index(line, ":"); colon > 0 && strings.HasPrefix(line, "IL_") {
			off, err := ParseLabel(line[:colon])
			if err != nil {
				return nil, &SyntaxError{Method: m.FullName(), Line: n + 1, Text: line, Err: err}
			}
			raw.offset = off
			line = strings.TrimSpace(line[colon+1:])
		}

		mnemonic, operand, _ := strings.Cut(line, " ")
		op, ok := LookupOpCode(mnemonic)
		if !ok {
			return nil, &SyntaxError{Method: m.FullName(), Line: n + 1, Text: raw.text, Err: fmt.Errorf("unknown opcode %q", mnemonic)}
		}
		raw.opcode = op
		raw.operand = strings.TrimSpace(operand)

		size := op.Size()
		if op == Switch {
			size += 4 * len(splitTopLevel(strings.Trim(raw.operand, "()")))
		}
		next = raw.offset + size
		raws = append(raws, raw)
	}
	return raws, nil
}

func inQuotes(line string, idx int) bool {
	return strings.Count(line[:idx], `"`)%2 == 1
}

// ParseLabel converts "IL_001a" to 0x1a.
func ParseLabel(label string) (int, error) {
	label = strings.TrimSpace(label)
	hex, ok := strings.CutPrefix(label, "IL_")
	if !ok {
		return 0, fmt.Errorf("invalid label %q", label)
	}
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid label %q: %w", label, err)
	}
	return int(v), nil
}

func (a *Assembly) resolveOperand(m *MethodDef, body *Body, raw rawInstruction) (any, error) {
	s := raw.operand
	kind := raw.opcode.Operand()
	if kind == OperandNone {
		if s != "" {
			return nil, fmt.Errorf("%s takes no operand", raw.opcode)
		}
		return nil, nil
	}
	if s == "" {
		return nil, fmt.Errorf("%s requires an operand", raw.opcode)
	}

	switch kind {
	case OperandInt8:
		v, err := strconv.ParseInt(s, 0, 8)
		if err != nil {
			return nil, err
		}
		return int32(v), nil
	case OperandInt32:
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return nil, err
		}
		return int32(v), nil
	case OperandInt64:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case OperandFloat32:
		v, err := parseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		return float32(v), nil
	case OperandFloat64:
		return parseFloat(s, 64)
	case OperandString:
		return strconv.Unquote(s)
	case OperandShortBranch, OperandBranch:
		return branchTarget(body, s)
	case OperandSwitch:
		var targets []*Instruction
		for _, label := range splitTopLevel(strings.Trim(s, "()")) {
			t, err := branchTarget(body, label)
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
		return targets, nil
	case OperandMethod:
		ref, err := ParseMethodRef(s)
		if err != nil {
			return nil, err
		}
		return Method(a.ResolveMethod(ref)), nil
	case OperandField:
		return a.parseField(s, isStaticFieldOp(raw.opcode))
	case OperandType:
		return Type(a.TypeByName(lastToken(s))), nil
	case OperandToken:
		switch {
		case strings.Contains(s, "("):
			ref, err := ParseMethodRef(s)
			if err != nil {
				return nil, err
			}
			return Method(a.ResolveMethod(ref)), nil
		case strings.Contains(s, "::"):
			return a.parseField(s, false)
		default:
			return Type(a.TypeByName(lastToken(s))), nil
		}
	case OperandShortVar, OperandVar:
		return varIndex(m, raw.opcode, s)
	case OperandSig:
		return parseCallSite(s)
	}
	return nil, fmt.Errorf("unsupported operand kind for %s", raw.opcode)
}

func parseFloat(s string, bits int) (float64, error) {
	switch strings.ToLower(s) {
	case "nan":
		return math.NaN(), nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, bits)
}

func branchTarget(body *Body, label string) (*Instruction, error) {
	off, err := ParseLabel(label)
	if err != nil {
		return nil, err
	}
	target := body.At(off)
	if target == nil {
		return nil, fmt.Errorf("branch to unknown label %s", Label(off))
	}
	return target, nil
}

func (a *Assembly) parseField(s string, static bool) (Field, error) {
	ref := lastToken(s)
	sep := strings.LastIndex(ref, "::")
	if sep <= 0 {
		return nil, fmt.Errorf("invalid field reference %q", s)
	}
	return a.ResolveField(ref[:sep], ref[sep+2:], static), nil
}

func isStaticFieldOp(op OpCode) bool {
	return op == Ldsfld || op == Ldsflda || op == Stsfld
}

// lastToken returns the last whitespace separated token, dropping type
// decorations that precede a member or type reference.
func lastToken(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, " "); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// varIndex accepts a numeric slot, "V_n" for locals, or a parameter name.
func varIndex(m *MethodDef, op OpCode, s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	if rest, ok := strings.CutPrefix(s, "V_"); ok {
		return strconv.Atoi(rest)
	}
	switch op {
	case LdargS, LdargaS, StargS, Ldarg, Ldarga, Starg:
		for _, p := range m.params {
			if p.Name == s {
				if m.hasThis {
					return p.Index + 1, nil
				}
				return p.Index, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown slot %q", s)
}

// parseCallSite parses "[instance] <return>(<params>)".
func parseCallSite(s string) (*CallSite, error) {
	site := &CallSite{}
	if rest, ok := strings.CutPrefix(s, "instance "); ok {
		site.HasThis = true
		s = rest
	}
	open := strings.Index(s, "(")
	closing := strings.LastIndex(s, ")")
	if open < 0 || closing < open {
		return nil, fmt.Errorf("invalid call site %q", s)
	}
	ret := strings.TrimSpace(s[:open])
	site.Void = ret == "" || ret == "void"
	site.Params = len(splitTopLevel(s[open+1 : closing]))
	return site, nil
}
