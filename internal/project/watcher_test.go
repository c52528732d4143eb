package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReportsSaves(t *testing.T) {
	path := writeProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func() { changed <- struct{}{} }, nil)
	}()

	// Writes to other files in the directory are ignored
	other := filepath.Join(filepath.Dir(path), "notes.txt")
	deadline := time.After(5 * time.Second)
	saved := false
	for !saved {
		require.NoError(t, os.WriteFile(other, []byte("x"), 0644))
		p, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, Save(ctx, path, p))
		select {
		case <-changed:
			saved = true
		case <-time.After(200 * time.Millisecond):
			// the watcher may not be registered yet
		case <-deadline:
			t.Fatal("no change notification after saving the project")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "p.json"), 0, func() {}, nil)
	assert.Error(t, err)
}
