package cil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupOpCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		want    OpCode
		operand OperandKind
		size    int
	}{
		{"nop", Nop, OperandNone, 1},
		{"ldarg.0", Ldarg0, OperandNone, 1},
		{"ldarg.s", LdargS, OperandShortVar, 2},
		{"ldarg", Ldarg, OperandVar, 4},
		{"ldc.i4.m1", LdcI4M1, OperandNone, 1},
		{"ldc.i8", LdcI8, OperandInt64, 9},
		{"br.s", BrS, OperandShortBranch, 2},
		{"bne.un", BneUn, OperandBranch, 5},
		{"callvirt", Callvirt, OperandMethod, 5},
		{"ceq", Ceq, OperandNone, 2},
		{"constrained.", Constrained, OperandType, 6},
		{"readonly.", Readonly, OperandNone, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			op, ok := LookupOpCode(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, op)
			assert.Equal(t, tt.name, op.String())
			assert.Equal(t, tt.operand, op.Operand())
			assert.Equal(t, tt.size, op.Size())
		})
	}

	_, ok := LookupOpCode("frobnicate")
	assert.False(t, ok)
	assert.True(t, Tail.IsPrefix())
	assert.False(t, Call.IsPrefix())
}

func TestParseMethodRef(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    MethodRef
		wantErr bool
	}{
		{
			name:  "instance with params",
			input: "instance bool Data.Db::TryGet(int32, class Shop.Order&)",
			want: MethodRef{
				HasThis: true, Return: "bool", Type: "Data.Db", Name: "TryGet",
				Params: []string{"int32", "Shop.Order&"},
			},
		},
		{
			name:  "static void",
			input: "void Shop.Repo::Work()",
			want:  MethodRef{Void: true, Return: "void", Type: "Shop.Repo", Name: "Work"},
		},
		{
			name:  "no return type",
			input: "Shop.Repo::Work()",
			want:  MethodRef{Void: true, Type: "Shop.Repo", Name: "Work"},
		},
		{
			name:  "generic parameter with comma",
			input: "instance void Data.Set::Add(class [mscorlib]System.Collections.Generic.Dictionary<int32, string>)",
			want: MethodRef{
				HasThis: true, Void: true, Return: "void", Type: "Data.Set", Name: "Add",
				Params: []string{"System.Collections.Generic.Dictionary<int32, string>"},
			},
		},
		{name: "missing parens", input: "void Shop.Repo::Work", wantErr: true},
		{name: "missing separator", input: "void Work()", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseMethodRef(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssembleOperands(t *testing.T) {
	t.Parallel()
	asm := NewAssembly("Test")
	typ := asm.DefineType("Shop.Repo")
	typ.AddField("db", false)
	m := typ.AddMethod(NewMethod(typ, "Run", WithThis(), WithParams(Param("id"))))

	body, err := asm.Assemble(m, `
		ldarg.0
		ldfld Shop.Repo::db          // comment
		ldarg.s id
		ldc.i4.s 0x10
		ldc.r8 1.5
		ldstr "a // b"
		switch (IL_0027, IL_0028)
		br.s IL_0028
		IL_0027: nop
		IL_0028: call instance void Data.Db::Save(int32)
		ret
	`, 0)
	require.NoError(t, err)
	require.Len(t, body.Instructions, 11)

	ins := body.Instructions
	assert.Equal(t, 0, ins[0].Offset)
	assert.Equal(t, 1, ins[1].Offset)
	assert.Equal(t, typ.FieldByName("db"), ins[1].Operand)
	assert.Equal(t, 1, ins[2].VarIndex(), "named argument accounts for this")
	assert.Equal(t, int32(16), ins[3].Operand)
	assert.Equal(t, 1.5, ins[4].Operand)
	assert.Equal(t, "a // b", ins[5].Operand)
	assert.Equal(t, []*Instruction{body.At(0x27), body.At(0x28)}, ins[6].Targets())
	assert.Equal(t, 13, ins[6].Size(), "switch table size follows target count")
	assert.Equal(t, 0x25, ins[7].Offset)
	assert.Equal(t, body.At(0x28), ins[7].Target())

	callee, ok := ins[9].Operand.(Method)
	require.True(t, ok)
	assert.Equal(t, "Data.Db::Save", callee.FullName())
	assert.True(t, callee.HasThis())
	assert.True(t, callee.IsVoid())
	assert.Nil(t, callee.Body())

	assert.Same(t, m.Body(), body)
	assert.Equal(t, body.Instructions[1], body.Next(body.Instructions[0]))
	assert.Nil(t, body.Next(body.Instructions[10]))
}

func TestAssembleInternsReferences(t *testing.T) {
	t.Parallel()
	asm := NewAssembly("Test")
	typ := asm.DefineType("Shop.Repo")
	m := typ.AddMethod(NewMethod(typ, "Run"))

	body, err := asm.Assemble(m, `
		call void Data.Db::Save()
		call void Data.Db::Save()
		ldsfld Data.Db::Default
		ldsfld Data.Db::Default
		ret
	`, 0)
	require.NoError(t, err)
	assert.Same(t, body.Instructions[0].Operand, body.Instructions[1].Operand)
	assert.Same(t, body.Instructions[2].Operand, body.Instructions[3].Operand)
	assert.True(t, body.Instructions[2].Operand.(Field).IsStatic())
	assert.Len(t, asm.ExternalMethods(), 1)
}

func TestAssembleErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{"unknown opcode", "frob"},
		{"missing operand", "ldc.i4"},
		{"unexpected operand", "ret 1"},
		{"unknown label", "br IL_00ff"},
		{"bad int8", "ldc.i4.s 300"},
		{"bad method", "call Data.Db::Save"},
		{"unknown slot", "ldarg.s nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			asm := NewAssembly("Test")
			typ := asm.DefineType("T")
			m := typ.AddMethod(NewMethod(typ, "M"))
			_, err := asm.Assemble(m, tt.body, 0)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			assert.True(t, errors.As(err, &syntaxErr))
		})
	}
}

func TestParseLabel(t *testing.T) {
	t.Parallel()
	off, err := ParseLabel("IL_001a")
	require.NoError(t, err)
	assert.Equal(t, 0x1a, off)
	assert.Equal(t, "IL_001a", Label(off))

	_, err = ParseLabel("L1")
	assert.Error(t, err)
}
