// Package trie stores dotted namespace prefixes so that a type name can be
// tested against a set of ignored namespaces in one walk.
//
// Nodes live in a single arena slice and refer to their children by index.
package trie

import (
	"sort"
	"strings"
)

// NodeIndex represents the index of a trie node.
type NodeIndex int

// Arena is a memory pool that stores all trie nodes.
type Arena struct {
	nodes []arenaNode
}

type arenaNode struct {
	// children maps a path segment to the index of the child node.
	children map[string]NodeIndex
	// isEnd marks the end of an inserted path.
	isEnd bool
}

// NewArena creates an arena holding only the root node.
func NewArena() *Arena {
	arena := &Arena{
		nodes: make([]arenaNode, 0, 64),
	}
	arena.nodes = append(arena.nodes, arenaNode{children: make(map[string]NodeIndex)})
	return arena
}

func (a *Arena) newNode() NodeIndex {
	idx := NodeIndex(len(a.nodes))
	a.nodes = append(a.nodes, arenaNode{children: make(map[string]NodeIndex)})
	return idx
}

// Insert inserts a sequence of segments into the trie.
func (a *Arena) Insert(sequence []string) {
	current := NodeIndex(0)
	for _, part := range sequence {
		node := &a.nodes[current]
		childIdx, exists := node.children[part]
		if !exists {
			childIdx = a.newNode()
			// newNode may have moved the slice
			a.nodes[current].children[part] = childIdx
		}
		current = childIdx
	}
	a.nodes[current].isEnd = true
}

// HasPrefixOf reports whether some inserted sequence is a prefix of
// sequence, the sequence itself included.
func (a *Arena) HasPrefixOf(sequence []string) bool {
	current := NodeIndex(0)
	for _, part := range sequence {
		if a.nodes[current].isEnd {
			return true
		}
		next, ok := a.nodes[current].children[part]
		if !ok {
			return false
		}
		current = next
	}
	return a.nodes[current].isEnd
}

// DebugString renders the trie with sorted children, "*" marking path ends.
func (a *Arena) DebugString() string {
	return a.debugStringNode(NodeIndex(0))
}

func (a *Arena) debugStringNode(idx NodeIndex) string {
	node := a.nodes[idx]
	var sb strings.Builder
	if node.isEnd {
		sb.WriteString("*")
	}

	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString("(")
		sb.WriteString(a.debugStringNode(node.children[key]))
		sb.WriteString(")")
	}
	return sb.String()
}

// Trie is a set of dotted namespaces.
type Trie struct {
	arena *Arena
	size  int
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{arena: NewArena()}
}

// Insert inserts a sequence of segments.
func (t *Trie) Insert(sequence []string) {
	if !t.arena.contains(sequence) {
		t.size++
	}
	t.arena.Insert(sequence)
}

// InsertNamespace inserts a dotted name such as "System.Linq".
func (t *Trie) InsertNamespace(namespace string) {
	if segs := Split(namespace); len(segs) > 0 {
		t.Insert(segs)
	}
}

// Covers reports whether the dotted name lies under an inserted namespace.
// "System.Linq.Enumerable" is covered by "System.Linq" but not by "Sys".
func (t *Trie) Covers(name string) bool {
	segs := Split(name)
	if len(segs) == 0 {
		return false
	}
	return t.arena.HasPrefixOf(segs)
}

// Len returns the number of distinct inserted sequences.
func (t *Trie) Len() int { return t.size }

// DebugString returns a string representation of the trie for debugging purposes.
func (t *Trie) DebugString() string {
	return t.arena.DebugString()
}

func (a *Arena) contains(sequence []string) bool {
	current := NodeIndex(0)
	for _, part := range sequence {
		next, ok := a.nodes[current].children[part]
		if !ok {
			return false
		}
		current = next
	}
	return a.nodes[current].isEnd
}

// Split breaks a dotted name into its segments, dropping empty ones.
func Split(name string) []string {
	parts := strings.Split(strings.TrimSpace(name), ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
