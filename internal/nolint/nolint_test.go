package nolint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/cilint/internal/cil"
)

func TestParseNolintRules(t *testing.T) {
	t.Parallel()
	result := parseIgnoreRuleNames("rule1, rule2,rule3,")
	assert.Len(t, result, 3)
	for _, rule := range []string{"rule1", "rule2", "rule3"} {
		assert.Contains(t, result, rule)
	}
}

func TestParseAttribute(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		attr    string
		rules   []string
		wantErr bool
	}{
		{"all rules", "nolint", nil, false},
		{"rule list", "nolint:query-root,evaluation-error", []string{"query-root", "evaluation-error"}, false},
		{"padded", "  nolint: query-root ", []string{"query-root"}, false},
		{"empty list", "nolint:", nil, true},
		{"other attribute", "Obsolete", nil, true},
		{"glued suffix", "nolintfoo", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ns, err := parseAttribute(tt.attr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, ns.rules, len(tt.rules))
			for _, r := range tt.rules {
				assert.Contains(t, ns.rules, r)
			}
		})
	}
}

func TestIsNolint(t *testing.T) {
	t.Parallel()
	asm := cil.NewAssembly("Shop")
	repo := asm.DefineType("Shop.Repo")
	quiet := repo.AddMethod(cil.NewMethod(repo, "Quiet", cil.WithAttributes("nolint")))
	partial := repo.AddMethod(cil.NewMethod(repo, "Partial", cil.WithAttributes("nolint:query-root")))
	loud := repo.AddMethod(cil.NewMethod(repo, "Loud"))

	legacy := asm.DefineType("Shop.Legacy")
	legacy.SetAttributes("nolint:evaluation-error")
	old := legacy.AddMethod(cil.NewMethod(legacy, "Old"))

	manager := ParseAttributes(asm)

	tests := []struct {
		name   string
		method cil.Method
		rule   string
		want   bool
	}{
		{"method suppresses everything", quiet, "anything", true},
		{"listed rule", partial, "query-root", true},
		{"unlisted rule", partial, "evaluation-error", false},
		{"no attributes", loud, "query-root", false},
		{"type attribute", old, "evaluation-error", true},
		{"type attribute other rule", old, "query-root", false},
		{"nil method", nil, "query-root", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, manager.IsNolint(tt.method, tt.rule))
		})
	}
}

func TestNilManager(t *testing.T) {
	t.Parallel()
	var m *Manager
	assert.False(t, m.IsNolint(nil, "query-root"))
}
