package ast

// Walk visits n and its descendants in pre-order. Children of a node are
// skipped when fn returns false. Nil children are not visited.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Contains reports whether any node of the forest, at any depth, equals n.
func Contains(forest []Node, n Node) bool {
	found := false
	for _, root := range forest {
		Walk(root, func(c Node) bool {
			if found {
				return false
			}
			if Equal(c, n) {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

// Size returns the number of non-nil nodes in the tree rooted at n.
func Size(n Node) int {
	count := 0
	Walk(n, func(Node) bool {
		count++
		return true
	})
	return count
}

func format(n Node) string {
	if n == nil {
		return "_"
	}
	return n.String()
}
