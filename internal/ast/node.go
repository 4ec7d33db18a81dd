// Package ast holds the symbolic expression trees reconstructed from CIL
// method bodies.
//
// Nodes are immutable values compared structurally: two nodes are equal when
// they have the same Kind, equal payloads and pairwise equal children,
// regardless of where they were allocated. Method, field and type handles
// inside nodes compare by identity.
package ast

import "fmt"

// Kind identifies the variant of a Node.
type Kind uint8

const (
	KindInvalid Kind = iota

	// literals
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString

	// sentinels
	KindNull
	KindThis
	KindThrown
	KindArgList

	// slots
	KindArgument
	KindArgumentAddress
	KindLocal
	KindLocalAddress
	KindOutArgument

	// fields
	KindField
	KindStaticField
	KindFieldAddress
	KindStaticFieldAddress

	// arrays and heap
	KindArrayElement
	KindArrayElementAddress
	KindArrayLength
	KindIndirect

	// invocations
	KindCall
	KindCallIndirect
	KindNewObject
	KindNewArray
	KindFtn
	KindLocalAlloc

	// tokens
	KindTypeToken
	KindMethodToken
	KindFieldToken
	KindSizeOf
	KindDefaultValue

	// binary operators
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindDivUn
	KindRem
	KindRemUn
	KindAnd
	KindOr
	KindXor
	KindShl
	KindShr
	KindShrUn
	KindAddOvf
	KindAddOvfUn
	KindSubOvf
	KindSubOvfUn
	KindMulOvf
	KindMulOvfUn
	KindCeq
	KindCgt
	KindCgtUn
	KindClt
	KindCltUn
	KindEq
	KindNeUn
	KindGe
	KindGeUn
	KindGt
	KindGtUn
	KindLe
	KindLeUn
	KindLt
	KindLtUn

	// unary operators
	KindNeg
	KindNot
	KindCheckFinite
	KindIsTrue
	KindIsFalse
	KindRefAnyType

	KindConvert

	// type operators
	KindBox
	KindUnbox
	KindUnboxAny
	KindCastClass
	KindIsInst
	KindMkRefAny
	KindRefAnyVal

	// KindPattern is reported by query nodes built outside this package.
	KindPattern

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:             "Invalid",
	KindInt32:               "Int32",
	KindInt64:               "Int64",
	KindFloat32:             "Float32",
	KindFloat64:             "Float64",
	KindString:              "String",
	KindNull:                "Null",
	KindThis:                "This",
	KindThrown:              "Thrown",
	KindArgList:             "ArgList",
	KindArgument:            "Argument",
	KindArgumentAddress:     "ArgumentAddress",
	KindLocal:               "Local",
	KindLocalAddress:        "LocalAddress",
	KindOutArgument:         "OutArgument",
	KindField:               "Field",
	KindStaticField:         "StaticField",
	KindFieldAddress:        "FieldAddress",
	KindStaticFieldAddress:  "StaticFieldAddress",
	KindArrayElement:        "ArrayElement",
	KindArrayElementAddress: "ArrayElementAddress",
	KindArrayLength:         "ArrayLength",
	KindIndirect:            "Indirect",
	KindCall:                "Call",
	KindCallIndirect:        "CallIndirect",
	KindNewObject:           "NewObject",
	KindNewArray:            "NewArray",
	KindFtn:                 "Ftn",
	KindLocalAlloc:          "LocalAlloc",
	KindTypeToken:           "TypeToken",
	KindMethodToken:         "MethodToken",
	KindFieldToken:          "FieldToken",
	KindSizeOf:              "SizeOf",
	KindDefaultValue:        "DefaultValue",
	KindAdd:                 "Add",
	KindSub:                 "Sub",
	KindMul:                 "Mul",
	KindDiv:                 "Div",
	KindDivUn:               "DivUn",
	KindRem:                 "Rem",
	KindRemUn:               "RemUn",
	KindAnd:                 "And",
	KindOr:                  "Or",
	KindXor:                 "Xor",
	KindShl:                 "Shl",
	KindShr:                 "Shr",
	KindShrUn:               "ShrUn",
	KindAddOvf:              "AddOvf",
	KindAddOvfUn:            "AddOvfUn",
	KindSubOvf:              "SubOvf",
	KindSubOvfUn:            "SubOvfUn",
	KindMulOvf:              "MulOvf",
	KindMulOvfUn:            "MulOvfUn",
	KindCeq:                 "Ceq",
	KindCgt:                 "Cgt",
	KindCgtUn:               "CgtUn",
	KindClt:                 "Clt",
	KindCltUn:               "CltUn",
	KindEq:                  "Eq",
	KindNeUn:                "NeUn",
	KindGe:                  "Ge",
	KindGeUn:                "GeUn",
	KindGt:                  "Gt",
	KindGtUn:                "GtUn",
	KindLe:                  "Le",
	KindLeUn:                "LeUn",
	KindLt:                  "Lt",
	KindLtUn:                "LtUn",
	KindNeg:                 "Neg",
	KindNot:                 "Not",
	KindCheckFinite:         "CheckFinite",
	KindIsTrue:              "IsTrue",
	KindIsFalse:             "IsFalse",
	KindRefAnyType:          "RefAnyType",
	KindConvert:             "Convert",
	KindBox:                 "Box",
	KindUnbox:               "Unbox",
	KindUnboxAny:            "UnboxAny",
	KindCastClass:           "CastClass",
	KindIsInst:              "IsInst",
	KindMkRefAny:            "MkRefAny",
	KindRefAnyVal:           "RefAnyVal",
	KindPattern:             "Pattern",
}

func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsBinary reports whether k is a two-operand operator.
func (k Kind) IsBinary() bool { return k >= KindAdd && k <= KindLtUn }

// IsUnary reports whether k is a one-operand operator.
func (k Kind) IsUnary() bool { return k >= KindNeg && k <= KindRefAnyType }

// IsTypeOp reports whether k is an operator parameterized by a type.
func (k Kind) IsTypeOp() bool { return k >= KindBox && k <= KindRefAnyVal }

// Node is a symbolic value or operation.
//
// The interface is sealed: every implementation lives in this package or
// embeds Extension.
type Node interface {
	Kind() Kind
	// Equal reports structural equality. The receiver drives the comparison,
	// so query nodes can override it when they appear on the left.
	Equal(other Node) bool
	// Hash is consistent with Equal for nodes of this package.
	Hash() uint64
	// Children returns the ordered child nodes. Entries may be nil.
	Children() []Node
	String() string

	isNode()
}

type node struct{}

func (node) isNode() {}

// Extension lets other packages define query nodes that take part in tree
// walks and matching. Embedders report KindPattern and must implement the
// remaining Node methods.
type Extension struct{}

func (Extension) isNode() {}

func (Extension) Kind() Kind { return KindPattern }

// Equal compares two possibly nil nodes, with a driving the comparison.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func equalAll(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
