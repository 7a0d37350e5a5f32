package e2e

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSuccess stops the test unless the command succeeded.
func AssertSuccess(t *testing.T, r *Result) {
	t.Helper()
	require.NoError(t, r.Err, "stdout: %s", r.Stdout)
}

// AssertError stops the test unless the command failed.
func AssertError(t *testing.T, r *Result) {
	t.Helper()
	require.Error(t, r.Err, "stdout: %s", r.Stdout)
}

// AssertErrorContains stops the test unless the command failed with an
// error mentioning substr.
func AssertErrorContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	require.Error(t, r.Err, "expected error containing %q", substr)
	assert.Contains(t, r.Err.Error(), substr)
}

// AssertExitCode checks the inferred exit code.
func AssertExitCode(t *testing.T, r *Result, expected int) {
	t.Helper()
	assert.Equal(t, expected, r.ExitCode, "error: %v\nstdout: %s", r.Err, r.Stdout)
}

// AssertOutputContains checks that stdout contains substr.
func AssertOutputContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	assert.Contains(t, r.Stdout, substr)
}

// AssertOutputNotContains checks that stdout does not contain substr.
func AssertOutputNotContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	assert.NotContains(t, r.Stdout, substr)
}

// AssertOutputEquals checks stdout exactly.
func AssertOutputEquals(t *testing.T, r *Result, expected string) {
	t.Helper()
	assert.Equal(t, expected, r.Stdout)
}

// AssertFileExists checks that path exists.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	assert.FileExists(t, path)
}

// AssertFileNotExists checks that nothing exists at path.
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	assert.NoFileExists(t, path)
}

// AssertFileContains checks that the file at path contains substr.
func AssertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	assert.Contains(t, readFile(t, path), substr)
}

// AssertFileEquals checks the file content exactly.
func AssertFileEquals(t *testing.T, path, expected string) {
	t.Helper()
	assert.Equal(t, expected, readFile(t, path))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	// #nosec G304 - path is provided by test code
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
