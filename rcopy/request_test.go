package rcopy

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncRequest_Layout(t *testing.T) {
	req := &SyncRequest{
		Kind:        KindFile,
		Path:        "src/a.txt",
		Mode:        04755,
		Fingerprint: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		Size:        0x01020304,
	}
	buf, err := req.Marshal()
	require.NoError(t, err)
	require.Len(t, buf, REQUEST_LEN)
	require.Equal(t, 221, REQUEST_LEN)

	require.Equal(t, []byte{0, 0, 0, 1}, buf[0:4])

	path := buf[4:132]
	require.Equal(t, []byte("src/a.txt"), path[:9])
	require.Equal(t, make([]byte, MAX_PATH-9), path[9:])

	require.Equal(t, uint32(04755), binary.BigEndian.Uint32(buf[132:136]))

	fingerprint := buf[136:217]
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, fingerprint[:8])
	require.Equal(t, make([]byte, FINGERPRINT_LEN-8), fingerprint[8:])

	require.Equal(t, []byte{1, 2, 3, 4}, buf[217:221])
}

func TestSyncRequest_Unmarshal(t *testing.T) {
	req := &SyncRequest{
		Kind:        KindTransfer,
		Path:        strings.Repeat("p", MAX_PATH),
		Mode:        0640,
		Fingerprint: []byte("abcdefgh"),
		Size:        42,
	}
	buf, err := req.Marshal()
	require.NoError(t, err)

	var got SyncRequest
	require.NoError(t, got.Unmarshal(buf))
	require.Equal(t, req.Kind, got.Kind)
	require.Equal(t, req.Path, got.Path)
	require.Equal(t, req.Mode, got.Mode)
	require.Equal(t, req.Size, got.Size)
	require.Len(t, got.Fingerprint, FINGERPRINT_LEN)
	require.True(t, Equal(req.Fingerprint, got.Fingerprint, XOR_LEN))
}

func TestSyncRequest_PathTooLong(t *testing.T) {
	req := &SyncRequest{Kind: KindDir, Path: strings.Repeat("p", MAX_PATH+1)}
	_, err := req.Marshal()
	require.ErrorIs(t, err, ErrPathTooLong)
}

func TestSyncRequest_UnknownKind(t *testing.T) {
	req := &SyncRequest{Kind: 7, Path: "x"}
	_, err := req.Marshal()
	require.ErrorIs(t, err, ErrUnknownKind)

	buf := make([]byte, REQUEST_LEN)
	binary.BigEndian.PutUint32(buf, 7)
	copy(buf[KIND_LEN:], "x")
	require.ErrorIs(t, new(SyncRequest).Unmarshal(buf), ErrUnknownKind)
}

func TestSyncRequest_EmptyPath(t *testing.T) {
	buf := make([]byte, REQUEST_LEN)
	binary.BigEndian.PutUint32(buf, uint32(KindFile))
	require.Error(t, new(SyncRequest).Unmarshal(buf))
}

func TestSyncRequest_ModeKeepsLowBits(t *testing.T) {
	buf := make([]byte, REQUEST_LEN)
	binary.BigEndian.PutUint32(buf, uint32(KindDir))
	copy(buf[KIND_LEN:], "d")
	binary.BigEndian.PutUint32(buf[KIND_LEN+MAX_PATH:], 0170755)

	var req SyncRequest
	require.NoError(t, req.Unmarshal(buf))
	require.Equal(t, FileMode(0755), req.Mode)
}

func TestFileSize(t *testing.T) {
	size, err := FileSize(1024)
	require.NoError(t, err)
	require.Equal(t, uint32(1024), size)

	_, err = FileSize(math.MaxUint32 + 1)
	require.ErrorIs(t, err, ErrFileTooLarge)
}

type bufferConn struct {
	bytes.Buffer
}

func (b *bufferConn) Close() error {
	return nil
}

func TestConn_RequestAndVerdict(t *testing.T) {
	rwc := &bufferConn{}
	conn := NewConn(rwc)

	req := &SyncRequest{Kind: KindDir, Path: "src", Mode: 0755, Fingerprint: make([]byte, XOR_LEN)}
	require.NoError(t, conn.WriteRequest(req))
	require.Equal(t, REQUEST_LEN, rwc.Len())
	got, err := conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, "src", got.Path)

	require.NoError(t, conn.WriteVerdict(NeedsTransfer))
	require.Equal(t, []byte{0, 0, 0, 1}, rwc.Bytes())
	v, err := conn.ReadVerdict()
	require.NoError(t, err)
	require.Equal(t, NeedsTransfer, v)
}

func TestConn_UnknownVerdict(t *testing.T) {
	rwc := &bufferConn{}
	rwc.Write([]byte{0, 0, 0, 3})

	_, err := NewConn(rwc).ReadVerdict()
	require.ErrorIs(t, err, ErrUnknownVerdict)
}
