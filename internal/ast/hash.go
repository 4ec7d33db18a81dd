package ast

import (
	"hash/fnv"
	"math"

	"github.com/gnolang/cilint/internal/cil"
)

const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

// hasher accumulates an FNV-1a hash over kinds, payloads and child hashes.
type hasher uint64

func newHasher(k Kind) hasher {
	h := hasher(fnvOffset)
	h.byte(byte(k))
	return h
}

func (h *hasher) byte(b byte) {
	*h ^= hasher(b)
	*h *= hasher(fnvPrime)
}

func (h *hasher) word(v uint64) {
	for i := 0; i < 8; i++ {
		h.byte(byte(v >> (8 * i)))
	}
}

func (h *hasher) int(v int) { h.word(uint64(v)) }

func (h *hasher) str(s string) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(s))
	h.word(f.Sum64())
}

func (h *hasher) float(v float64) { h.word(math.Float64bits(v)) }

func (h *hasher) node(n Node) {
	if n == nil {
		h.word(0)
		return
	}
	h.word(n.Hash())
}

func (h *hasher) nodes(ns []Node) {
	h.int(len(ns))
	for _, n := range ns {
		h.node(n)
	}
}

// Handles compare by identity, and identical handles share a full name.

func (h *hasher) method(m cil.Method) {
	if m == nil {
		h.word(0)
		return
	}
	h.str(m.FullName())
	h.int(len(m.Params()))
}

func (h *hasher) field(f cil.Field) {
	if f == nil {
		h.word(0)
		return
	}
	h.str(f.FullName())
}

func (h *hasher) typ(t cil.Type) {
	if t == nil {
		h.word(0)
		return
	}
	h.str(t.FullName())
}

func (h hasher) sum() uint64 { return uint64(h) }
