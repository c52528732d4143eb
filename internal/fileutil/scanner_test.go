package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
	return root
}

func rel(t *testing.T, root string, files []string) []string {
	t.Helper()
	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)
	out := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(absRoot, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestScanDirectory(t *testing.T) {
	root := makeTree(t,
		"pond.boris",
		"notes.txt",
		"clips/a.MP4",
		"clips/b.wav",
		"clips/old/c.mp4",
		".cache/d.mp4",
		"skip/e.mp4",
	)

	tests := []struct {
		name string
		opts ScanOptions
		want []string
	}{
		{"top level projects", ScanOptions{Extensions: ProjectExtensions}, []string{"pond.boris"}},
		{"recursive media", ScanOptions{Extensions: MediaExtensions, Recursive: true, ExcludeDirs: []string{"skip"}},
			[]string{"clips/a.MP4", "clips/b.wav", "clips/old/c.mp4"}},
		{"extension without dot", ScanOptions{Extensions: []string{"txt"}}, []string{"notes.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ScanDirectory(root, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rel(t, root, res.Files))
			assert.Empty(t, res.Errors)
		})
	}
}

func TestScanDirectoryErrors(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), ScanOptions{})
	assert.Error(t, err)

	root := makeTree(t, "file.boris")
	_, err = ScanDirectory(filepath.Join(root, "file.boris"), ScanOptions{})
	assert.ErrorContains(t, err, "not a directory")
}

func TestExpandPaths(t *testing.T) {
	root := makeTree(t, "a.boris", "b.json", "c.txt")
	single := filepath.Join(root, "c.txt")

	got, err := ExpandPaths([]string{single, root}, ProjectExtensions, false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, single, got[0])
	assert.Equal(t, []string{"a.boris", "b.json"}, rel(t, root, got[1:]))

	_, err = ExpandPaths([]string{filepath.Join(root, "nope")}, ProjectExtensions, false)
	assert.Error(t, err)
}
