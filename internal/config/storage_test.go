package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageSaveLoadDelete(t *testing.T) {
	storage := NewStorage(t.TempDir())

	err := storage.Save("templates", "web-dev", []byte("kind: container\n"))
	require.NoError(t, err)

	data, err := storage.Load("templates", "web-dev")
	require.NoError(t, err)
	assert.Equal(t, "kind: container\n", string(data))

	names, err := storage.List("templates")
	require.NoError(t, err)
	assert.Equal(t, []string{"web-dev"}, names)

	require.NoError(t, storage.Delete("templates", "web-dev"))

	_, err = storage.Load("templates", "web-dev")
	assert.Error(t, err)

	err = storage.Delete("templates", "web-dev")
	assert.True(t, os.IsNotExist(err))
}

func TestStorageRejectsEmptyArgs(t *testing.T) {
	storage := NewStorage(t.TempDir())

	assert.Error(t, storage.Save("", "name", nil))
	assert.Error(t, storage.Save("templates", "", nil))
}

func TestStorageSanitizesNames(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorage(dir)

	require.NoError(t, storage.Save("templates", "../escape", []byte("x")))

	// The file must land inside the entity directory.
	names, err := storage.List("templates")
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestStorageListEmptyDir(t *testing.T) {
	storage := NewStorage(t.TempDir())

	names, err := storage.List("templates")
	assert.NoError(t, err)
	assert.Empty(t, names)
}
