package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/adapters/flock"
	"lexshelf/internal/adapters/sqlite"
	"lexshelf/internal/application"
	"lexshelf/internal/config"
	"lexshelf/internal/domain"
)

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(content), 0644))
}

func openApp(t *testing.T, root string) *App {
	t.Helper()
	t.Setenv(config.EnvCapacity, "")
	a, err := Open(context.Background(), Options{Root: root, LogOutput: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOpen_Defaults(t *testing.T) {
	root := t.TempDir()
	a := openApp(t, root)

	assert.Equal(t, root, a.Config.Root)
	assert.Equal(t, domain.DefaultCapacity, a.Rules.Capacity)
	assert.IsType(t, &sqlite.DedupIndex{}, a.Dedup)
	assert.Nil(t, a.Mirror)
	assert.False(t, a.Locker.Shared())
	assert.FileExists(t, filepath.Join(root, config.StateDir, "dedup.db"))
}

func TestOpen_StoreAndReopen(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	a := openApp(t, root)
	receipt, err := a.Placer.Store(ctx, &domain.Document{ID: "doc_20210301", Content: "x"}, "")
	require.NoError(t, err)
	assert.Equal(t, "2021-2022/case_law/contracts/doc_20210301.json", receipt.RelPath)
	require.NoError(t, a.Close())

	b := openApp(t, root)
	rec, found, err := b.Dedup.Lookup(ctx, "doc_20210301")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, receipt.RelPath, rec.RelPath)

	_, err = b.Placer.Store(ctx, &domain.Document{ID: "doc_20210301", Content: "y"}, "")
	assert.ErrorIs(t, err, application.ErrDuplicateID)
}

func TestOpen_ResyncsEmptyIndex(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "2019-2020", "state_courts", "ny", "a.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(`{"id":"a","content":"c"}`), 0644))
	writeConfig(t, root, "[dedup]\nbackend = \"memory\"\n")

	a := openApp(t, root)
	n, err := a.Dedup.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_Backends(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[dedup]
backend = "none"

[mirror]
backend = "sqlite"

[locking]
cross_process = true
`)

	a := openApp(t, root)
	assert.Nil(t, a.Dedup)
	require.NotNil(t, a.Mirror)
	assert.Equal(t, "sqlite:"+filepath.Join(root, config.StateDir, "mirror.db"), a.Mirror.Name())
	assert.IsType(t, &flock.Locker{}, a.Locker)
	assert.True(t, a.Locker.Shared())

	_, err := a.ResyncDedup(context.Background())
	assert.Error(t, err)
}

func TestOpen_LogOverrides(t *testing.T) {
	t.Setenv(config.EnvCapacity, "")
	root := t.TempDir()

	a, err := Open(context.Background(), Options{Root: root, LogLevel: "debug", LogOutput: io.Discard})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "debug", a.Log.GetLevel().String())

	_, err = Open(context.Background(), Options{Root: root, LogFormat: "xml", LogOutput: io.Discard})
	assert.Error(t, err)
}

func TestOpen_InvalidConfig(t *testing.T) {
	t.Setenv(config.EnvCapacity, "")
	root := t.TempDir()
	writeConfig(t, root, "[dedup]\nbackend = \"redis\"\n")

	_, err := Open(context.Background(), Options{Root: root, LogOutput: io.Discard})
	assert.Error(t, err)
}
