package lint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/cilint/internal/types"
)

type mockLintEngine struct {
	mock.Mock
}

func (m *mockLintEngine) Run(filePath string) ([]types.Issue, error) {
	args := m.Called(filePath)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockLintEngine) RunSource(source []byte) ([]types.Issue, error) {
	args := m.Called(source)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockLintEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func (m *mockLintEngine) IgnoreNamespace(namespace string) {
	m.Called(namespace)
}

func issueAt(filename, rule string, offset int) types.Issue {
	return types.Issue{
		Rule:     rule,
		Filename: filename,
		Message:  "call to Data.Db::SaveChanges",
		Start:    types.Location{Filename: filename, Method: "Shop.Repo::Run", Offset: offset},
	}
}

func TestProcessFile(t *testing.T) {
	t.Parallel()
	expectedIssues := []types.Issue{issueAt("orders.cil.yaml", "query-root", 7)}
	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", "orders.cil.yaml").Return(expectedIssues, nil)

	issues, err := ProcessFile(mockEngine, "orders.cil.yaml")

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessSource(t *testing.T) {
	t.Parallel()
	expectedIssues := []types.Issue{issueAt("", "query-root", 0)}
	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", []byte("assembly: A")).Return(expectedIssues, nil)

	issues, err := ProcessSource(mockEngine, []byte("assembly: A"))

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessPath(t *testing.T) {
	t.Parallel()
	logger := zap.NewNop()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "a.cil.yaml", "b.cil.yaml", "ignored.yaml")

	expectedIssues := []types.Issue{
		issueAt(paths[0], "rule1", 1),
		issueAt(paths[1], "rule2", 2),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("Run", paths[1]).Return([]types.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessPath(context.Background(), logger, mockEngine, tempDir, ProcessFile)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
	mockEngine.AssertNotCalled(t, "Run", paths[2])
}

func TestProcessPathSkipsOtherFiles(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "notes.txt")

	mockEngine := new(mockLintEngine)
	issues, err := ProcessPath(context.Background(), nil, mockEngine, paths[0], ProcessFile)
	assert.NoError(t, err)
	assert.Empty(t, issues)
	mockEngine.AssertNotCalled(t, "Run", mock.Anything)

	_, err = ProcessPath(context.Background(), nil, mockEngine, filepath.Join(tempDir, "missing"), ProcessFile)
	assert.Error(t, err)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "one.cil.yaml", "two.cil.yaml")

	expectedIssues := []types.Issue{
		issueAt(paths[0], "rule1", 1),
		issueAt(paths[1], "rule2", 2),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("Run", paths[1]).Return([]types.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessFiles(context.Background(), zap.NewNop(), mockEngine, paths, ProcessFile)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessSources(t *testing.T) {
	t.Parallel()
	expectedIssues := []types.Issue{
		issueAt("", "rule1", 1),
		issueAt("", "rule2", 2),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", []byte("assembly: A")).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("RunSource", []byte("assembly: B")).Return([]types.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessSources(context.Background(), zap.NewNop(), mockEngine,
		[][]byte{[]byte("assembly: A"), []byte("assembly: B")}, ProcessSource)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestHasDesiredExtension(t *testing.T) {
	t.Parallel()
	assert.True(t, hasDesiredExtension("orders.cil.yaml"))
	assert.False(t, hasDesiredExtension("orders.yaml"))
	assert.False(t, hasDesiredExtension("orders.go"))
	assert.False(t, hasDesiredExtension("test"))
}

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, WriteConfig(path, DefaultConfig()))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "severity: warning")
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules:\n  query-root:\n    severity: loud\n"), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "unknown severity")

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("colour: red\n"), 0o644))
	_, err = LoadConfig(unknown)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	config, err := LoadConfig(empty)
	assert.NoError(t, err)
	assert.Empty(t, config.Rules)
}

func createTempFiles(t *testing.T, dir string, fileNames ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(fileNames))
	for _, fileName := range fileNames {
		filePath := filepath.Join(dir, fileName)
		require.NoError(t, os.WriteFile(filePath, nil, 0o644))
		paths = append(paths, filePath)
	}
	return paths
}
