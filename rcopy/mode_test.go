package rcopy

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileMode_SpecialBits(t *testing.T) {
	m := NewFileMode(os.ModeDir | os.ModeSetuid | os.ModeSticky | 0751)
	require.Equal(t, FileMode(S_ISUID|S_ISVTX|0751), m)
	require.Equal(t, os.ModeSetuid|os.ModeSticky|0751, m.Convert())

	require.Equal(t, FileMode(02644), NewFileMode(FileMode(02644).Convert()))
	require.Equal(t, FileMode(0644), FileMode(0100644).Perm())
}
