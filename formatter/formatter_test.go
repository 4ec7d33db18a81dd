package formatter

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnolang/cilint/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestGenerateFormattedIssue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		issue    tt.Issue
		expected string
	}{
		{
			name: "query root with conditions",
			issue: tt.Issue{
				Rule:        "db-writes",
				Category:    QueryCategory,
				Filename:    "orders.cil.yaml",
				Message:     "database round trip",
				Note:        "db.SaveChanges() reached on 1 of 2 paths",
				Instruction: "IL_001b: callvirt instance int32 Data.Db::SaveChanges()",
				Conditions:  []string{"IsFalse(order) => 0"},
				Paths:       1,
				Start:       tt.Location{Filename: "orders.cil.yaml", Method: "Shop.OrderService::Checkout", Offset: 0x1b, Line: 14},
				Severity:    tt.SeverityWarning,
			},
			expected: `warning: db-writes
  --> orders.cil.yaml:Shop.OrderService::Checkout IL_001b (line 14)
   |
14 | IL_001b: callvirt instance int32 Data.Db::SaveChanges()
   |          ~~~~~~~~
   = database round trip
Conditions (1 path):
   | IsFalse(order) => 0
Note: db.SaveChanges() reached on 1 of 2 paths

`,
		},
		{
			name: "evaluation error without line",
			issue: tt.Issue{
				Rule:        "evaluation-error",
				Category:    InterpreterCategory,
				Filename:    "orders.cil.yaml",
				Message:     "unsupported instruction cpblk",
				Suggestion:  "rewrite the method",
				Instruction: "IL_0003: cpblk",
				Start:       tt.Location{Filename: "orders.cil.yaml", Method: "Shop.OrderService::Copy", Offset: 3},
				Severity:    tt.SeverityError,
			},
			expected: `error: evaluation-error
 --> orders.cil.yaml:Shop.OrderService::Copy IL_0003
  |
  | IL_0003: cpblk
  |          ~~~~~
  = unsupported instruction cpblk
Suggestion: rewrite the method

`,
		},
		{
			name: "general without instruction",
			issue: tt.Issue{
				Rule:     "custom",
				Filename: "a.cil.yaml",
				Message:  "something",
				Start:    tt.Location{Filename: "a.cil.yaml", Method: "A::B", Line: 7},
				Severity: tt.SeverityInfo,
			},
			expected: `info: custom
 --> a.cil.yaml:A::B IL_0000 (line 7)
  = something

`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, GenerateFormattedIssue([]tt.Issue{tc.issue}))
		})
	}
}

func TestGenerateFormattedIssueConcatenates(t *testing.T) {
	t.Parallel()
	issues := []tt.Issue{
		{Rule: "a", Message: "first", Start: tt.Location{Filename: "f", Method: "T::M"}},
		{Rule: "b", Message: "second", Start: tt.Location{Filename: "f", Method: "T::M", Offset: 1}},
	}
	out := GenerateFormattedIssue(issues)
	assert.Contains(t, out, "error: a\n")
	assert.Contains(t, out, "error: b\n")
	assert.Less(t, bytes.Index([]byte(out), []byte("first")), bytes.Index([]byte(out), []byte("second")))
}

func TestOpcodeSpan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		instruction   string
		start, length int
	}{
		{"IL_0000: ret", 9, 3},
		{"IL_0001: ldc.i4.s 10", 9, 8},
		{"nop", 0, 3},
		{"IL_0002: ", 9, 1},
	}
	for _, tc := range tests {
		start, length := opcodeSpan(tc.instruction)
		assert.Equal(t, tc.start, start, tc.instruction)
		assert.Equal(t, tc.length, length, tc.instruction)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	issues := []tt.Issue{
		{Rule: "a", Filename: "x.cil.yaml", Severity: tt.SeverityWarning},
		{Rule: "b", Filename: "y.cil.yaml"},
		{Rule: "c", Filename: "x.cil.yaml"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, issues))

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded["x.cil.yaml"], 2)
	require.Len(t, decoded["y.cil.yaml"], 1)
	assert.Equal(t, "warning", decoded["x.cil.yaml"][0]["Severity"])
	assert.Equal(t, "c", decoded["x.cil.yaml"][1]["Rule"])
}
