package ast

import (
	"fmt"

	"github.com/gnolang/cilint/internal/cil"
)

// Point locates an instruction: the owning method, the bytecode offset and,
// when the listing carries sequence points, the source line.
type Point struct {
	Method cil.Method
	Offset int
	Line   int
}

// PointKey is the comparable identity of a Point.
type PointKey struct {
	Method cil.Method
	Offset int
}

// NewPoint builds the point of ins in m, resolving the source line if known.
func NewPoint(m cil.Method, ins *cil.Instruction) Point {
	p := Point{Method: m, Offset: ins.Offset}
	if body := m.Body(); body != nil {
		if line, ok := body.LineAt(ins.Offset); ok {
			p.Line = line
		}
	}
	return p
}

func (p Point) Key() PointKey { return PointKey{Method: p.Method, Offset: p.Offset} }

// Equal ignores the line.
func (p Point) Equal(o Point) bool { return p.Key() == o.Key() }

func (p Point) IsZero() bool { return p.Method == nil }

func (p Point) String() string {
	name := "?"
	if p.Method != nil {
		name = p.Method.FullName()
	}
	if p.Line > 0 {
		return fmt.Sprintf("%s %s (line %d)", name, cil.Label(p.Offset), p.Line)
	}
	return name + " " + cil.Label(p.Offset)
}
