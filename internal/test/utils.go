// Package test contains helpers shared by the tests of the module.
package test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Close(t *testing.T, c io.Closer) {
	assert.NoError(t, c.Close())
}

func WithTestDir(t *testing.T, f func(dir string)) {
	dir, err := os.MkdirTemp("", filepath.Base(t.Name()))
	require.NoError(t, err)
	defer func() {
		if r := recover(); r != nil {
			t.Log("Test directory available at", dir)
			panic(r)
		} else if t.Failed() {
			t.Log("Test directory available at", dir)
		} else {
			os.RemoveAll(dir)
		}
	}()

	f(dir)
}

// WriteFile writes content to the file name in dir and returns its path.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// Diff fails the test with a unified diff if got is not equal to want.
func Diff(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	edits := myers.ComputeEdits(span.URIFromPath("want"), want, got)
	t.Errorf("output mismatch:\n%s", fmt.Sprint(gotextdiff.ToUnified("want", "got", want, edits)))
}
