package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiakz/rcopy-os/rcopy"
)

func TestNewLocal_RequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(name, nil, 0644))

	_, err := NewLocal(name)
	require.Error(t, err)
	_, err = NewLocal(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocal_MkdirIgnoresUmask(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Mkdir("src", 0777))
	info, err := l.Lstat("src")
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.Equal(t, os.FileMode(0777), info.Mode().Perm())

	require.NoError(t, l.Mkdir("src/sub", 0700))
	info, err = os.Stat(filepath.Join(l.workDir, "src", "sub"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestLocal_CreateTruncates(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, content := range []string{"first version", "second"} {
		w, err := l.Create("f")
		require.NoError(t, err)
		_, err = io.Copy(w, strings.NewReader(content))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	r, err := l.Open("f")
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "second", string(got))

	require.NoError(t, l.Chmod("f", 04640))
	info, err := l.Lstat("f")
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0640), info.Mode().Perm())
	require.NotZero(t, info.Mode()&os.ModeSetuid)

	require.NoError(t, l.Remove("f"))
	_, err = l.Lstat("f")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNULL_DiscardsContent(t *testing.T) {
	n, err := (&NULL{}).Put("f", strings.NewReader("abc"), 3, rcopy.FileMetadata{})
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.NoError(t, (&NULL{}).Delete("f"))
}

func TestMinio_ObjectName(t *testing.T) {
	require.Equal(t, "src/a.txt", (&Minio{}).objectName("src/a.txt"))
	require.Equal(t, "backup/src/a.txt", (&Minio{prefix: "backup"}).objectName("src/a.txt"))
}
