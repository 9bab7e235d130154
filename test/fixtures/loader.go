// Package fixtures locates test data shared by the end-to-end tests.
package fixtures

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// Path returns the absolute path of a fixture and fails the test if it is
// missing.
func Path(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{fixturesDir()}, parts...)...)
	_, err := os.Stat(path)
	require.NoError(t, err, "missing fixture %s", path)
	return path
}

// Deployment returns the path of a deployment file.
func Deployment(t *testing.T, name string) string {
	t.Helper()
	return Path(t, "deployments", name)
}
