package trie

import (
	"math/rand"
	"strings"
	"testing"
)

func generateNamespaces(count, maxLength int) []string {
	out := make([]string, count)
	for i := range count {
		length := rand.Intn(maxLength) + 1
		parts := make([]string, length)
		for j := range length {
			parts[j] = string(rune('A' + rand.Intn(26)))
		}
		out[i] = strings.Join(parts, ".")
	}
	return out
}

func BenchmarkCovers(b *testing.B) {
	sizes := []struct {
		name      string
		count     int
		maxLength int
	}{
		{"Small", 100, 3},
		{"Medium", 1000, 5},
		{"Large", 10000, 8},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			tr := New()
			for _, ns := range generateNamespaces(size.count, size.maxLength) {
				tr.InsertNamespace(ns)
			}
			queries := generateNamespaces(256, size.maxLength+2)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				tr.Covers(queries[i%len(queries)])
			}
		})
	}
}
