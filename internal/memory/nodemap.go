package memory

import (
	"maps"
	"slices"
	"sort"

	"github.com/gnolang/cilint/internal/ast"
)

type entry struct {
	key   ast.Node
	value ast.Node
}

// NodeMap maps structurally equal keys to the same value.
//
// Buckets are shared between forks and copied on the first write after a
// fork, so forking is cheap and writes never leak into sibling routines.
type NodeMap struct {
	buckets map[uint64][]entry
	size    int
	owned   bool
}

func NewNodeMap() *NodeMap {
	return &NodeMap{buckets: make(map[uint64][]entry), owned: true}
}

// Get returns the value stored under a key structurally equal to key.
func (m *NodeMap) Get(key ast.Node) (ast.Node, bool) {
	for _, e := range m.buckets[key.Hash()] {
		if e.key.Equal(key) {
			return e.value, true
		}
	}
	return nil, false
}

// Set stores value under key, replacing the value of an equal key.
func (m *NodeMap) Set(key, value ast.Node) {
	if !m.owned {
		m.buckets = maps.Clone(m.buckets)
		m.owned = true
	}
	h := key.Hash()
	bucket := m.buckets[h]
	for i, e := range bucket {
		if e.key.Equal(key) {
			updated := slices.Clone(bucket)
			updated[i].value = value
			m.buckets[h] = updated
			return
		}
	}
	m.buckets[h] = append(slices.Clip(bucket), entry{key: key, value: value})
	m.size++
}

func (m *NodeMap) Len() int { return m.size }

// Fork returns a copy sharing storage with m until either side writes.
func (m *NodeMap) Fork() *NodeMap {
	m.owned = false
	return &NodeMap{buckets: m.buckets, size: m.size}
}

// Entries returns the key/value pairs ordered by the key's string form.
func (m *NodeMap) Entries() [][2]ast.Node {
	out := make([][2]ast.Node, 0, m.size)
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			out = append(out, [2]ast.Node{e.key, e.value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0].String() < out[j][0].String() })
	return out
}
