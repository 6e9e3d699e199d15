package rcopy

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func xorSum(t *testing.T, content string) []byte {
	t.Helper()
	sum, err := XOR{}.Sum(strings.NewReader(content))
	require.NoError(t, err)
	return sum
}

func TestXOR_Empty(t *testing.T) {
	require.Equal(t, make([]byte, XOR_LEN), xorSum(t, ""))
}

func TestXOR_FoldsByPosition(t *testing.T) {
	sum := xorSum(t, "ABCDEFGHIJ")
	require.Len(t, sum, XOR_LEN)
	require.Equal(t, byte('A'^'I'), sum[0])
	require.Equal(t, byte('B'^'J'), sum[1])
	require.Equal(t, []byte("CDEFGH"), sum[2:])
}

func TestXOR_SwapAcrossEightIsUndetected(t *testing.T) {
	// Positions 0 and 8 land in the same slot
	require.Equal(t, xorSum(t, "ABCDEFGHIJ"), xorSum(t, "IBCDEFGHAJ"))
}

func TestXOR_AdjacentSwapIsDetected(t *testing.T) {
	require.NotEqual(t, xorSum(t, "AB"), xorSum(t, "BA"))
	require.NotEqual(t, xorSum(t, "A"), xorSum(t, "B"))
}

func TestMD4_KnownVector(t *testing.T) {
	sum, err := MD4{}.Sum(strings.NewReader("abc"))
	require.NoError(t, err)
	require.Len(t, sum, MD4{}.Size())
	require.Equal(t, "a448017aaf21d8525fc10ae87aa6729d", hex.EncodeToString(sum))
}

func TestNewFingerprinter(t *testing.T) {
	fp, err := NewFingerprinter("")
	require.NoError(t, err)
	require.Equal(t, XOR{}, fp)

	fp, err = NewFingerprinter("md4")
	require.NoError(t, err)
	require.Equal(t, 16, fp.Size())

	_, err = NewFingerprinter("sha1")
	require.Error(t, err)
}

func TestEqual_ComparesLeadingBytes(t *testing.T) {
	block := make([]byte, FINGERPRINT_LEN)
	copy(block, "12345678")
	block[FINGERPRINT_LEN-1] = 0xff

	require.True(t, Equal([]byte("12345678"), block, XOR_LEN))
	require.False(t, Equal([]byte("12345679"), block, XOR_LEN))
	require.False(t, Equal([]byte("1234"), block, XOR_LEN))
}

func TestSumFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "f")
	content := bytes.Repeat([]byte("rcopy"), 100)
	require.NoError(t, os.WriteFile(name, content, 0644))

	sum, err := SumFile(XOR{}, name)
	require.NoError(t, err)
	want, err := XOR{}.Sum(bytes.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, want, sum)

	_, err = SumFile(XOR{}, filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
