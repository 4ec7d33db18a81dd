package memory

import (
	"fmt"

	"github.com/gnolang/cilint/internal/ast"
)

// Condition records which way a branch went on a routine. Two-way branches
// use 0 for the fall-through and 1 for the taken jump; a switch uses the
// case index, and the number of cases for its default.
type Condition struct {
	Predicate ast.Node
	Outcome   int
}

func (c Condition) String() string {
	return fmt.Sprintf("%s => %d", c.Predicate, c.Outcome)
}

// Equal compares predicates structurally.
func (c Condition) Equal(o Condition) bool {
	return c.Outcome == o.Outcome && ast.Equal(c.Predicate, o.Predicate)
}
