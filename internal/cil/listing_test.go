package cil

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	t.Parallel()
	asm, err := LoadFile(filepath.Join("testdata", "shop.cil.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Shop", asm.Name)
	require.Len(t, asm.Types, 1)

	repo := asm.Types[0]
	assert.Equal(t, "Shop", repo.Namespace())
	assert.Equal(t, "Repo", repo.Name())
	assert.Len(t, repo.Methods, 3)

	load, err := asm.FindMethod("Shop.Repo::Load(1)")
	require.NoError(t, err)
	assert.True(t, load.HasThis())
	assert.False(t, load.IsVoid())
	require.NotNil(t, load.Body())
	assert.Equal(t, 1, load.Body().Locals)

	line, ok := load.Body().LineAt(0x0a)
	assert.True(t, ok)
	assert.Equal(t, 11, line)
	line, ok = load.Body().LineAt(0x01)
	assert.True(t, ok)
	assert.Equal(t, 10, line)

	safe, err := asm.FindMethod("Shop.Repo::Safe")
	require.NoError(t, err)
	require.Len(t, safe.Body().Handlers, 1)
	h := safe.Body().Handlers[0]
	assert.Equal(t, HandlerCatch, h.Kind)
	assert.Equal(t, 0x07, h.Entry().Offset)
	assert.Equal(t, "System.Exception", h.CatchType.FullName())
	assert.Len(t, safe.Body().HandlersReceivingException(h.HandlerStart), 1)
	assert.Len(t, safe.Body().TryRegionsStartingAt(safe.Body().Entry()), 1)

	work, err := asm.FindMethod("Shop.Repo::Work")
	require.NoError(t, err)
	assert.Equal(t, []string{"nolint"}, work.Attributes())

	callee, ok := safe.Body().Entry().Operand.(Method)
	require.True(t, ok)
	assert.Same(t, work, callee, "calls to listed methods resolve to their definition")

	_, err = asm.FindMethod("Shop.Repo::Missing")
	assert.True(t, errors.Is(err, ErrMethodNotFound))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "types: [\n"},
		{"type without name", "types:\n  - methods: []\n"},
		{
			name: "bad body",
			data: `
types:
  - name: T
    methods:
      - name: M
        static: true
        body: "frob"
`,
		},
		{
			name: "bad handler kind",
			data: `
types:
  - name: T
    methods:
      - name: M
        static: true
        body: "ret"
        handlers:
          - kind: maybe
            try_start: IL_0000
            handler_start: IL_0000
`,
		},
		{
			name: "filter without filter start",
			data: `
types:
  - name: T
    methods:
      - name: M
        static: true
        body: "ret"
        handlers:
          - kind: filter
            try_start: IL_0000
            handler_start: IL_0000
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
