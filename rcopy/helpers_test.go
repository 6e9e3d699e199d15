package rcopy_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiakz/rcopy-os/rcopy"
	"github.com/kaiakz/rcopy-os/storage"
)

// startServer serves a fresh destination tree on a loopback port until the test ends.
func startServer(t *testing.T, opts *rcopy.ServerOptions) (root string, address string) {
	t.Helper()
	root = t.TempDir()
	local, err := storage.NewLocal(root)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- rcopy.NewServer(local, opts).Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
	})
	return root, ln.Addr().String()
}

func dial(t *testing.T, address string) *rcopy.Conn {
	t.Helper()
	skt, err := net.Dial("tcp", address)
	require.NoError(t, err)
	conn := rcopy.NewConn(skt)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func ask(t *testing.T, conn *rcopy.Conn, req *rcopy.SyncRequest) rcopy.Verdict {
	t.Helper()
	require.NoError(t, conn.WriteRequest(req))
	v, err := conn.ReadVerdict()
	require.NoError(t, err)
	return v
}

func fileRequest(t *testing.T, kind rcopy.Kind, path string, content []byte, mode rcopy.FileMode) *rcopy.SyncRequest {
	t.Helper()
	sum, err := rcopy.XOR{}.Sum(bytes.NewReader(content))
	require.NoError(t, err)
	return &rcopy.SyncRequest{
		Kind:        kind,
		Path:        path,
		Mode:        mode,
		Fingerprint: sum,
		Size:        uint32(len(content)),
	}
}

func dirRequest(path string, mode rcopy.FileMode) *rcopy.SyncRequest {
	return &rcopy.SyncRequest{
		Kind:        rcopy.KindDir,
		Path:        path,
		Mode:        mode,
		Fingerprint: make([]byte, rcopy.XOR_LEN),
		Size:        4096,
	}
}

// send transfers content over conn and returns the final verdict.
func send(t *testing.T, conn *rcopy.Conn, path string, content []byte, mode rcopy.FileMode) rcopy.Verdict {
	t.Helper()
	require.NoError(t, conn.WriteRequest(fileRequest(t, rcopy.KindTransfer, path, content, mode)))
	_, err := conn.Write(content)
	require.NoError(t, err)
	v, err := conn.ReadVerdict()
	require.NoError(t, err)
	return v
}

func writeFile(t *testing.T, name string, content []byte, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, os.WriteFile(name, content, mode))
	require.NoError(t, os.Chmod(name, mode))
}

func requireFile(t *testing.T, name string, content []byte, mode os.FileMode) {
	t.Helper()
	info, err := os.Lstat(name)
	require.NoError(t, err)
	require.True(t, info.Mode().IsRegular(), name)
	require.Equal(t, mode, info.Mode().Perm(), name)
	got, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, content, got, name)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]rcopy.CacheEntry
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]rcopy.CacheEntry)}
}

func (c *memCache) Get(name string) (*rcopy.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *memCache) Put(name string, entry *rcopy.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = *entry
	return nil
}

func (c *memCache) Delete(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
	return nil
}

type memMirror struct {
	mu      sync.Mutex
	objects map[string][]byte
	modes   map[string]rcopy.FileMode
	deleted []string
}

func newMemMirror() *memMirror {
	return &memMirror{
		objects: make(map[string][]byte),
		modes:   make(map[string]rcopy.FileMode),
	}
}

func (m *memMirror) Put(fileName string, content io.Reader, fileSize int64, metadata rcopy.FileMetadata) (int64, error) {
	b, err := io.ReadAll(content)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[fileName] = b
	m.modes[fileName] = metadata.Mode
	return int64(len(b)), nil
}

func (m *memMirror) Delete(fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, fileName)
	m.deleted = append(m.deleted, fileName)
	return nil
}

func (m *memMirror) object(fileName string) ([]byte, rcopy.FileMode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[fileName]
	return b, m.modes[fileName], ok
}
