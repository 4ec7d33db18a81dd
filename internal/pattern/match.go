package pattern

import "github.com/gnolang/cilint/internal/ast"

// Match reports whether pat equals root and collects captures.
//
// After a successful comparison, captures are aligned positionally: the
// pattern is flattened breadth-first, the candidate is flattened
// breadth-first until it has as many entries as the pattern, and every
// capturing query node receives the candidate node at its own position.
// A pattern whose shape differs from the candidate therefore binds the
// wrong nodes; an Any that stands in for a whole subtree keeps the
// candidate from being flattened past it.
//
// With recursive set, every node under root is tried as well. The result
// is true if any node matched, and deeper matches overwrite captures with
// the same key. When the result is false the captures carry no meaning.
func Match(root, pat ast.Node, recursive bool) (Captures, bool) {
	caps := Captures{}
	return caps, match(root, pat, recursive, caps)
}

// MatchForest runs a recursive Match over every root, sharing captures.
func MatchForest(roots []ast.Node, pat ast.Node) (Captures, bool) {
	caps := Captures{}
	matched := false
	for _, root := range roots {
		if match(root, pat, true, caps) {
			matched = true
		}
	}
	return caps, matched
}

func match(root, pat ast.Node, recursive bool, caps Captures) bool {
	if root == nil || pat == nil {
		return false
	}
	matched := false
	if pat.Equal(root) {
		align(pat, root, caps)
		matched = true
	}
	if recursive {
		for _, child := range root.Children() {
			if match(child, pat, true, caps) {
				matched = true
			}
		}
	}
	return matched
}

func align(pat, candidate ast.Node, caps Captures) {
	pats := flatten(pat, -1)
	cands := flatten(candidate, len(pats))
	for i, p := range pats {
		if i >= len(cands) {
			return
		}
		c, ok := p.(Capturer)
		if !ok || cands[i] == nil {
			continue
		}
		c.Capture(cands[i], caps)
	}
}

// flatten lists the tree breadth-first, nil children included as
// placeholders, stopping at limit entries when limit is not negative.
func flatten(root ast.Node, limit int) []ast.Node {
	var out []ast.Node
	queue := []ast.Node{root}
	for len(queue) > 0 {
		if limit >= 0 && len(out) >= limit {
			break
		}
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		if n != nil {
			queue = append(queue, n.Children()...)
		}
	}
	return out
}
