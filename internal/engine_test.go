package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/memory"
	tt "github.com/gnolang/cilint/internal/types"
)

const ordersListing = "testdata/orders.cil.yaml"

func newTestEngine(t *testing.T, rules map[string]tt.ConfigRule) *Engine {
	t.Helper()
	engine, err := NewEngine(zaptest.NewLogger(t), rules)
	require.NoError(t, err)
	return engine
}

func saveChangesRule(severity tt.Severity) map[string]tt.ConfigRule {
	return map[string]tt.ConfigRule{
		QueryRootRuleName: {Severity: severity, Roots: []string{"Data.Db::SaveChanges"}},
	}
}

func TestEngineRun(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, saveChangesRule(tt.SeverityWarning))

	issues, err := engine.Run(ordersListing)
	require.NoError(t, err)
	require.Len(t, issues, 3)

	checkout := issues[0]
	assert.Equal(t, QueryRootRuleName, checkout.Rule)
	assert.Equal(t, "Shop.OrderService::Checkout", checkout.Start.Method)
	assert.Equal(t, 0x1b, checkout.Start.Offset)
	assert.Equal(t, 14, checkout.Start.Line)
	assert.Equal(t, 1, checkout.Paths)
	assert.Equal(t, tt.SeverityWarning, checkout.Severity)
	assert.Contains(t, checkout.Instruction, "callvirt")
	assert.Len(t, checkout.Conditions, 1)

	copyIssue := issues[1]
	assert.Equal(t, EvaluationErrorRuleName, copyIssue.Rule)
	assert.Equal(t, "Shop.OrderService::Copy", copyIssue.Start.Method)
	assert.Equal(t, 0x03, copyIssue.Start.Offset)
	assert.Contains(t, copyIssue.Message, "cpblk")

	vendor := issues[2]
	assert.Equal(t, "Vendor.Legacy.Sync::Run", vendor.Start.Method)
}

func TestEngineIgnoreNamespace(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, saveChangesRule(tt.SeverityWarning))
	engine.IgnoreNamespace("Vendor.Legacy")

	issues, err := engine.Run(ordersListing)
	require.NoError(t, err)
	for _, issue := range issues {
		assert.NotEqual(t, "Vendor.Legacy.Sync::Run", issue.Start.Method)
	}
	assert.Len(t, issues, 2)
}

func TestEngineLogsIgnoredNamespaces(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	engine, err := NewEngine(zap.New(core), nil)
	require.NoError(t, err)

	engine.IgnoreNamespace("Vendor.Legacy")
	engine.IgnoreNamespace("Vendor.Tools")

	entries := logs.FilterMessage("ignoring namespace").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Vendor(Legacy(*)Tools(*))", entries[1].ContextMap()["ignored"])
	assert.EqualValues(t, 2, entries[1].ContextMap()["count"])
}

func TestEngineIgnoreRule(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, saveChangesRule(tt.SeverityWarning))
	engine.IgnoreRule(EvaluationErrorRuleName)

	issues, err := engine.Run(ordersListing)
	require.NoError(t, err)
	for _, issue := range issues {
		assert.Equal(t, QueryRootRuleName, issue.Rule)
	}
}

func TestEngineSeverityOff(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, map[string]tt.ConfigRule{
		QueryRootRuleName:       {Severity: tt.SeverityOff, Roots: []string{"Data.Db::SaveChanges"}},
		EvaluationErrorRuleName: {Severity: tt.SeverityOff},
	})

	issues, err := engine.Run(ordersListing)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestEngineConfiguration(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, map[string]tt.ConfigRule{
		"db-writes":             {Severity: tt.SeverityError, Roots: []string{"Data.Db::Save"}},
		"unknown":               {Severity: tt.SeverityInfo},
		EvaluationErrorRuleName: {Severity: tt.SeverityInfo},
	})
	assert.Equal(t, []string{"db-writes", EvaluationErrorRuleName}, engine.Rules())
	assert.Equal(t, tt.SeverityInfo, engine.findRule(EvaluationErrorRuleName).Severity())

	_, err := NewEngine(nil, map[string]tt.ConfigRule{
		EvaluationErrorRuleName: {Roots: []string{"A::B"}},
	})
	assert.Error(t, err)
}

func TestEngineRunSource(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, map[string]tt.ConfigRule{
		"writes": {Roots: []string{"Data.Db::Save"}},
	})
	issues, err := engine.RunSource([]byte(`
assembly: Inline
types:
  - name: Inline.Job
    methods:
      - name: Run
        static: true
        body: |
          ldnull
          call void Data.Db::Save(object)
          ret
`))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "writes", issues[0].Rule)
	assert.Equal(t, tt.SeverityError, issues[0].Severity)
	assert.Equal(t, "call to Data.Db::Save", issues[0].Message)

	_, err = engine.RunSource([]byte("types: ["))
	assert.Error(t, err)
}

func TestEngineMissingFile(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, nil)
	_, err := engine.Run(filepath.Join(t.TempDir(), "missing.cil.yaml"))
	assert.Error(t, err)
}

type countingRule struct {
	calls int
}

func (r *countingRule) Name() string            { return "counting" }
func (r *countingRule) Severity() tt.Severity   { return tt.SeverityInfo }
func (r *countingRule) SetSeverity(tt.Severity) {}

func (r *countingRule) Check(filename string, m cil.Method, routines []*memory.Routine) ([]tt.Issue, error) {
	r.calls++
	return nil, nil
}

func TestEngineCache(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	listing := filepath.Join(dir, "orders.cil.yaml")
	data, err := os.ReadFile(ordersListing)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(listing, data, 0o644))

	cache, err := NewCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	engine := newTestEngine(t, saveChangesRule(tt.SeverityWarning))
	engine.SetCache(cache)
	rule := &countingRule{}
	engine.AddRule(rule)

	first, err := engine.Run(listing)
	require.NoError(t, err)
	calls := rule.calls
	assert.Positive(t, calls)

	second, err := engine.Run(listing)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, rule.calls, "a cache hit evaluates nothing")
}

func TestIsListing(t *testing.T) {
	t.Parallel()
	assert.True(t, IsListing("a/b/orders.cil.yaml"))
	assert.False(t, IsListing("orders.yaml"))
	assert.False(t, IsListing("orders.go"))
}
