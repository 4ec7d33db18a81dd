package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gnolang/cilint/internal/cil"
	"github.com/gnolang/cilint/internal/interp"
	tt "github.com/gnolang/cilint/internal/types"
	"github.com/gnolang/cilint/lint"
)

const ordersListing = "../internal/testdata/orders.cil.yaml"

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Empty(t, splitList(""))
}

func TestOpenCache(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	listing := filepath.Join(dir, "orders.cil.yaml")
	require.NoError(t, os.WriteFile(listing, []byte("assembly: Shop\n"), 0o644))
	issues := []tt.Issue{{Rule: "db-writes", Filename: listing, Message: "call to Data.Db::SaveChanges"}}

	cacheDir := filepath.Join(dir, "cache")
	cache, err := openCache(cacheDir, 0, false)
	require.NoError(t, err)
	require.NoError(t, cache.Set(listing, issues))

	kept, err := openCache(cacheDir, time.Hour, false)
	require.NoError(t, err)
	_, found := kept.Get(listing)
	assert.True(t, found)

	expired, err := openCache(cacheDir, time.Nanosecond, false)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, found = expired.Get(listing)
	assert.False(t, found, "entries older than the max age are discarded")

	require.NoError(t, cache.Set(listing, issues))
	cleared, err := openCache(cacheDir, time.Hour, true)
	require.NoError(t, err)
	_, found = cleared.Get(listing)
	assert.False(t, found)
}

func TestPrintIssues(t *testing.T) {
	t.Parallel()
	issues := []tt.Issue{
		{Rule: "r2", Filename: "b.cil.yaml", Message: "second", Start: tt.Location{Filename: "b.cil.yaml", Method: "T::M"}},
		{Rule: "r1", Filename: "a.cil.yaml", Message: "first", Start: tt.Location{Filename: "a.cil.yaml", Method: "T::M"}},
	}

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, printIssues(&buf, issues, false, ""))
		out := buf.String()
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("a.cil.yaml")), bytes.Index(buf.Bytes(), []byte("b.cil.yaml")))
		assert.Contains(t, out, "error: r1\n")
		assert.Contains(t, out, "= second\n")
	})

	t.Run("json to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.json")
		var buf bytes.Buffer
		require.NoError(t, printIssues(&buf, issues, true, path))
		assert.Zero(t, buf.Len())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var decoded map[string][]tt.Issue
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Len(t, decoded, 2)
	})
}

func TestInitConfigurationFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "custom.yaml")

	written, err := initConfigurationFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	config, err := lint.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, lint.DefaultConfig(), config)
}

func TestSelectMethods(t *testing.T) {
	t.Parallel()
	asm, err := cil.LoadFile(ordersListing)
	require.NoError(t, err)

	all, err := selectMethods(asm, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	one, err := selectMethods(asm, "Shop.OrderService::Checkout")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Shop.OrderService::Checkout", one[0].FullName())

	_, err = selectMethods(asm, "Shop.OrderService::Missing")
	assert.ErrorIs(t, err, cil.ErrMethodNotFound)
}

func TestRunCFGAnalysis(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "checkout.dot")
	require.NoError(t, runCFGAnalysis(ordersListing, "Shop.OrderService::Checkout", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ENTRY" -> "IL_0000..IL_0013"`)
	assert.Contains(t, string(data), `"IL_0000..IL_0013" -> "IL_0021"`)

	assert.Error(t, runCFGAnalysis(ordersListing, "Nope::Nope", out))
}

func newTestSession(t *testing.T) *session {
	t.Helper()
	asm, err := cil.LoadFile(ordersListing)
	require.NoError(t, err)
	return newSession(ordersListing, asm, interp.New(interp.WithLogger(zaptest.NewLogger(t))))
}

func TestSessionExecute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		contains []string
	}{
		{"help", "help", []string{"methods", "roots <Type::Method>"}},
		{"methods", "methods", []string{"Shop.OrderService::Checkout\n", "Vendor.Legacy.Sync::Run\n"}},
		{"eval", "eval Shop.OrderService::Checkout", []string{
			"Shop.OrderService::Checkout: 2 paths",
			"Data.Db::SaveChanges",
			"=> 0",
		}},
		{"eval unsupported", "eval Shop.OrderService::Copy", []string{"error:", "cpblk"}},
		{"cfg", "cfg Shop.OrderService::Flush", []string{`"ENTRY" -> "IL_0000..IL_0006"`}},
		{"roots", "roots Shop.OrderService::Checkout Data.Db::SaveChanges", []string{
			"warning: roots",
			"IL_001b: callvirt",
			"reached on 1 of 2 paths",
		}},
		{"no roots", "roots Shop.OrderService::Checkout Data.Db::Delete", []string{"no calls found"}},
		{"missing method", "eval Shop.Nope::Run", []string{"error:"}},
		{"missing argument", "roots Shop.OrderService::Checkout", []string{"commands:"}},
		{"unknown", "frobnicate", []string{`unknown command "frobnicate"`}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := newTestSession(t)
			var buf bytes.Buffer
			assert.True(t, s.execute(&buf, tc.line))
			for _, want := range tc.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestSessionQuit(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	var buf bytes.Buffer
	assert.False(t, s.execute(&buf, "quit"))
	assert.False(t, s.execute(&buf, "exit"))
	assert.True(t, s.execute(&buf, "   "))
}

func TestSessionComplete(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	assert.Equal(t, []string{"eval", "exit"}, s.complete("e"))
	assert.Equal(t, []string{"eval Shop.OrderService::Checkout", "eval Shop.OrderService::Copy"}, s.complete("eval Shop.OrderService::C"))
}
