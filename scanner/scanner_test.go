package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectScanner(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	files := map[string]string{
		"orders.cil.yaml":      "assembly: Orders",
		"config.yaml":          "name: cilint",
		"notes.txt":            "This is a text file",
		"sub/billing.cil.yaml": "assembly: Billing",
		".git/stale.cil.yaml":  "assembly: Stale",
		"vendor/lib.cil.yaml":  "assembly: Lib",
	}
	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}

	scannedFiles, err := New(tempDir, ".cil.yaml").SkipDir("vendor").Scan()
	require.NoError(t, err)
	require.Len(t, scannedFiles, 2)

	assert.Equal(t, filepath.Join(tempDir, "orders.cil.yaml"), scannedFiles[0].Path)
	assert.Equal(t, filepath.Join(tempDir, "sub", "billing.cil.yaml"), scannedFiles[1].Path)
	for _, file := range scannedFiles {
		assert.Greater(t, file.Size, int64(0))
	}

	all, err := New(tempDir).SkipDir("vendor").Paths()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestScannerMissingRoot(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "missing")).Scan()
	assert.Error(t, err)
}
