package pattern

import "github.com/gnolang/cilint/internal/ast"

// FindCalls returns every call in the forest, at any depth, that pat
// equals. Calls appear in pre-order.
func FindCalls(forest []ast.Node, pat ast.Node) []*ast.Call {
	var out []*ast.Call
	for _, root := range forest {
		ast.Walk(root, func(n ast.Node) bool {
			if c, ok := n.(*ast.Call); ok && pat.Equal(c) {
				out = append(out, c)
			}
			return true
		})
	}
	return out
}

// QueryRoots returns the outermost calls pat equals: once a call matches,
// its subtree is not searched further.
func QueryRoots(forest []ast.Node, pat ast.Node) []*ast.Call {
	var out []*ast.Call
	for _, root := range forest {
		ast.Walk(root, func(n ast.Node) bool {
			if c, ok := n.(*ast.Call); ok && pat.Equal(c) {
				out = append(out, c)
				return false
			}
			return true
		})
	}
	return out
}

// FindFtns returns every function pointer in the forest, typically the
// lambdas handed to calls.
func FindFtns(forest []ast.Node) []*ast.Ftn {
	var out []*ast.Ftn
	for _, root := range forest {
		ast.Walk(root, func(n ast.Node) bool {
			if f, ok := n.(*ast.Ftn); ok {
				out = append(out, f)
			}
			return true
		})
	}
	return out
}
