package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrueSelph/jvserve/internal/config"
)

func configFor(backend, dir string) config.FilesConfig {
	return config.FilesConfig{
		Backend:   backend,
		RootPath:  dir,
		PublicURL: "http://localhost:9000/files",
	}
}

func TestLocalStoreSaveGetDelete(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://localhost:9000/files")

	content := []byte("hello, world")
	require.True(t, store.Save("a/b.txt", content), "save should create intermediate directories")

	got, ok := store.Get("a/b.txt")
	require.True(t, ok)
	assert.Equal(t, content, got)

	require.True(t, store.Delete("a/b.txt"))

	_, ok = store.Get("a/b.txt")
	assert.False(t, ok, "deleted file must report absence")
}

func TestLocalStoreAbsence(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://localhost:9000/files")

	_, ok := store.Get("missing.txt")
	assert.False(t, ok)

	assert.False(t, store.Delete("missing.txt"), "deleting a missing file reports false, not an error")

	_, ok = store.URL("missing.txt")
	assert.False(t, ok)
}

func TestLocalStoreURLOnlyWhenPresent(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "http://localhost:9000/files/")

	require.True(t, store.Save("avatars/user.png", []byte{0x89, 0x50}))

	link, ok := store.URL("avatars/user.png")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:9000/files/avatars/user.png", link)
}

func TestLocalStoreLastWriteWins(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://localhost:9000/files")

	require.True(t, store.Save("note.txt", []byte("first")))
	require.True(t, store.Save("note.txt", []byte("second")))

	got, ok := store.Get("note.txt")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	local, err := New(configFor("local", dir))
	require.NoError(t, err)
	_, isLocal := local.(*LocalStore)
	assert.True(t, isLocal)

	_, err = New(configFor("ftp", dir))
	assert.Error(t, err)
}

func TestLocalStoreSavePermissions(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "http://localhost:9000/files")
	require.True(t, store.Save("deep/nested/dir/file.bin", []byte("x")))

	info, err := os.Stat(filepath.Join(root, "deep", "nested", "dir", "file.bin"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
