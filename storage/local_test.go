package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveURLDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "uploads/")
	require.NoError(t, err)

	key := PostImagesPrefix + "a.png"
	require.NoError(t, s.Save(key, strings.NewReader("data")))

	b, err := os.ReadFile(filepath.Join(root, "posts", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))
	assert.Equal(t, "/uploads/posts/a.png", s.URL(key))

	require.NoError(t, s.Delete(key))
	_, err = os.Stat(filepath.Join(root, "posts", "a.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(key), "deleting a missing blob is a no-op")
}

func TestLocalStorageKeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(root, "up"), "/uploads")
	require.NoError(t, err)

	require.NoError(t, s.Save("../../escape.txt", strings.NewReader("x")))
	_, err = os.Stat(filepath.Join(root, "up", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, s.Save("", strings.NewReader("x")))
}

func TestLocalStorageList(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	objs, err := s.List(PostImagesPrefix)
	require.NoError(t, err)
	assert.Empty(t, objs, "missing prefix dir lists nothing")

	require.NoError(t, s.Save(PostImagesPrefix+"one.jpg", strings.NewReader("1")))
	require.NoError(t, s.Save(PostImagesPrefix+"two.jpg", strings.NewReader("2")))
	require.NoError(t, s.Save(ProfilePicturesPrefix+"me.png", strings.NewReader("3")))

	objs, err = s.List(PostImagesPrefix)
	require.NoError(t, err)
	var keys []string
	for _, o := range objs {
		keys = append(keys, o.Key)
		assert.False(t, o.ModTime.IsZero())
	}
	assert.ElementsMatch(t, []string{"posts/one.jpg", "posts/two.jpg"}, keys)
}

func TestNewSelectsDriver(t *testing.T) {
	_, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = New(testConfig("ftp", t.TempDir()))
	assert.Error(t, err)

	s, err := New(testConfig("", t.TempDir()))
	require.NoError(t, err)
	_, ok := s.(*LocalStorage)
	assert.True(t, ok)
}
