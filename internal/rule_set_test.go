package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/interp"
	"github.com/gnolang/cilint/internal/memory"
	tt "github.com/gnolang/cilint/internal/types"
)

func assembleMethod(t *testing.T, asm *cil.Assembly, typ *cil.TypeDef, name, text string, opts ...cil.MethodOption) *cil.MethodDef {
	t.Helper()
	m := typ.AddMethod(cil.NewMethod(typ, name, opts...))
	_, err := asm.Assemble(m, text, 0)
	require.NoError(t, err)
	return m
}

func evaluate(t *testing.T, m cil.Method) []*memory.Routine {
	t.Helper()
	routines, err := interp.New().Evaluate(m)
	require.NoError(t, err)
	return routines
}

const branchingBody = `
	IL_0000: call void Data.Db::Save()
	IL_0005: ldarg.0
	IL_0006: brfalse.s IL_000f
	IL_0008: call int32 Data.Db::SaveChanges()
	IL_000d: pop
	IL_000e: nop
	IL_000f: ret
`

func TestQueryRootRule(t *testing.T) {
	t.Parallel()
	asm := cil.NewAssembly("Shop")
	jobs := asm.DefineType("Shop.Jobs")
	m := assembleMethod(t, asm, jobs, "Run", branchingBody, cil.WithParams(cil.Param("flag")))
	routines := evaluate(t, m)
	require.Len(t, routines, 2)

	tests := []struct {
		name         string
		withinBranch bool
		want         []string
		paths        []int
	}{
		{"every root", false, []string{"Data.Db::Save", "Data.Db::SaveChanges"}, []int{2, 1}},
		{"within branch", true, []string{"Data.Db::SaveChanges"}, []int{1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rule := NewQueryRootRule(QueryRootRuleName, "Data.Db::Save", "Data.Db::SaveChanges")
			rule.SetWithinBranch(tc.withinBranch)

			issues, err := rule.Check("jobs.cil.yaml", m, routines)
			require.NoError(t, err)
			require.Len(t, issues, len(tc.want))
			for i, issue := range issues {
				assert.Equal(t, "call to "+tc.want[i], issue.Message)
				assert.Equal(t, tc.paths[i], issue.Paths)
				assert.Equal(t, "jobs.cil.yaml", issue.Filename)
				assert.Equal(t, "Shop.Jobs::Run", issue.Start.Method)
				assert.Equal(t, tt.SeverityWarning, issue.Severity)
				assert.Contains(t, issue.Note, fmt.Sprintf("reached on %d of 2 paths", tc.paths[i]))
			}
		})
	}
}

func TestQueryRootRuleWithinBranchAfterLoop(t *testing.T) {
	t.Parallel()
	asm := cil.NewAssembly("Shop")
	jobs := asm.DefineType("Shop.Jobs")
	m := assembleMethod(t, asm, jobs, "Drain", `
		IL_0000: ldc.i4.0
		IL_0001: stloc.0
		IL_0002: br.s IL_000b
		IL_0004: ldarg.0
		IL_0005: call void Data.Db::Save(object)
		IL_000a: nop
		IL_000b: ldloc.0
		IL_000c: ldc.i4.s 10
		IL_000e: blt.s IL_0004
		IL_0010: call void Data.Db::Commit()
		IL_0015: ret
	`, cil.WithParams(cil.Param("item")))
	routines := evaluate(t, m)
	require.Len(t, routines, 2)

	rule := NewQueryRootRule("writes", "Data.Db::Save", "Data.Db::Commit")
	rule.SetWithinBranch(true)
	issues, err := rule.Check("", m, routines)
	require.NoError(t, err)
	require.Len(t, issues, 1, "the call after the loop runs on every path")
	assert.Equal(t, "call to Data.Db::Save", issues[0].Message)
	assert.Equal(t, 1, issues[0].Paths)
}

func TestQueryRootRuleReportsOutermostCalls(t *testing.T) {
	t.Parallel()
	asm := cil.NewAssembly("Shop")
	jobs := asm.DefineType("Shop.Jobs")
	m := assembleMethod(t, asm, jobs, "Count", `
		call class Data.Query Data.Db::Query()
		call class Data.Query Data.Db::Query()
		call int32 Data.Db::Merge(class Data.Query, class Data.Query)
		pop
		ret
	`)

	rule := NewQueryRootRule("queries", "Data.Db::Query", "Data.Db::Merge")
	rule.SetMessage("query executed")
	issues, err := rule.Check("", m, evaluate(t, m))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "query executed", issues[0].Message)
	assert.Equal(t, "queries", issues[0].Rule)
	assert.Equal(t, 0x0a, issues[0].Start.Offset)
	assert.Contains(t, issues[0].Note, "Data.Db::Merge(Data.Db::Query(), Data.Db::Query())")
}

func TestQueryRootRuleFollowsLambdas(t *testing.T) {
	t.Parallel()
	asm := cil.NewAssembly("Shop")
	jobs := asm.DefineType("Shop.Jobs")
	lambda := assembleMethod(t, asm, jobs, "FilterLambda", `
		call int32 Data.Db::SaveChanges()
		pop
		ret
	`)
	m := assembleMethod(t, asm, jobs, "Filter", `
		ldftn void Shop.Jobs::FilterLambda()
		call void Data.Query::Where(object)
		ret
	`)

	rule := NewQueryRootRule(QueryRootRuleName, "Data.Db::SaveChanges")
	issues, err := rule.Check("", m, evaluate(t, m))
	require.NoError(t, err)
	assert.Empty(t, issues)

	rule.SetFollowLambdas(true)
	issues, err = rule.Check("", m, evaluate(t, m))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, lambda.FullName(), issues[0].Start.Method)
	assert.Equal(t, 1, issues[0].Paths)
}

func TestQueryRootRuleFromConfig(t *testing.T) {
	t.Parallel()
	rule := newQueryRootRuleFromConfig("db", tt.ConfigRule{
		Severity:     tt.SeverityInfo,
		Message:      "db access",
		Roots:        []string{"Data.Db::Save"},
		WithinBranch: true,
		FollowLambda: true,
	}, nil)
	assert.Equal(t, "db", rule.Name())
	assert.Equal(t, tt.SeverityInfo, rule.Severity())
	assert.Equal(t, []string{"Data.Db::Save"}, rule.Roots())
	assert.True(t, rule.withinBranch)
	assert.True(t, rule.followLambdas)
	assert.NotNil(t, rule.interp)
}

func TestEvaluationErrorRule(t *testing.T) {
	t.Parallel()
	asm := cil.NewAssembly("Shop")
	jobs := asm.DefineType("Shop.Jobs")
	m := assembleMethod(t, asm, jobs, "Copy", "ldc.i4.0\nldc.i4.0\nldc.i4.0\ncpblk\nret")

	_, evalErr := interp.New().Evaluate(m)
	require.Error(t, evalErr)

	rule, ok := NewEvaluationErrorRule().(ErrorRule)
	require.True(t, ok)

	issues := rule.CheckError("copy.cil.yaml", m, evalErr)
	require.Len(t, issues, 1)
	assert.Equal(t, EvaluationErrorRuleName, issues[0].Rule)
	assert.Equal(t, 3, issues[0].Start.Offset)
	assert.Equal(t, "IL_0003: cpblk", issues[0].Instruction)
	assert.Equal(t, tt.SeverityError, issues[0].Severity)

	limited := rule.CheckError("copy.cil.yaml", m, fmt.Errorf("evaluating: %w", interp.ErrStepLimit))
	require.Len(t, limited, 1)
	assert.Equal(t, 0, limited[0].Start.Offset)
	assert.NotEmpty(t, limited[0].Suggestion)

	other := rule.CheckError("copy.cil.yaml", m, errors.New("boom"))
	assert.Empty(t, other[0].Suggestion)

	none, err := rule.Check("", m, nil)
	assert.NoError(t, err)
	assert.Empty(t, none)
}
