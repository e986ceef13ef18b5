package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func drain[T any](t *testing.T, outCh <-chan T, errCh <-chan error) []T {
	t.Helper()
	var out []T
	for v := range outCh {
		out = append(out, v)
	}
	require.NoError(t, <-errCh)
	return out
}
