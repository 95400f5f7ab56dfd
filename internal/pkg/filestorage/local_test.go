package filestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	ls, err := NewLocalStorage(root, "/uploads/")
	require.NoError(t, err)

	rel, err := ls.Save(strings.NewReader("pdf-bytes"), "applications/7", "Transcript.PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "applications/7/"))
	assert.True(t, strings.HasSuffix(rel, ".pdf"))
	assert.Equal(t, "/uploads/"+rel, ls.URL(rel))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))

	require.NoError(t, ls.Delete(rel))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ls.Delete(rel), "deleting twice is fine")
}

func TestLocalStorage_StaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	ls, err := NewLocalStorage(filepath.Join(root, "store"), "/uploads")
	require.NoError(t, err)

	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	require.NoError(t, ls.Delete("../secret.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err, "file outside the root must survive")

	assert.ErrorIs(t, ls.Delete("/"), ErrInvalidPath)
}
