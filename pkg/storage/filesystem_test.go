package storage

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("documents/a.pdf", []byte("pdf")))
	data, err := store.Read("documents/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(data))

	require.NoError(t, store.Delete("documents/a.pdf"))
	_, err = store.Read("documents/a.pdf")
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, store.Delete("documents/a.pdf"))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../x.pdf", "/etc/passwd", "a/../../b"} {
		err := store.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
	assert.Empty(t, store.Path("../x"))
}
