package rcopy

import (
	"io"
	"os"
)

type FileMetadata struct {
	Mtime int64 // Unix nanoseconds
	Mode  FileMode
}

// FS is the server's destination tree. Names are wire paths, relative to its root.
type FS interface {
	Lstat(name string) (os.FileInfo, error)
	Mkdir(name string, mode FileMode) error
	Chmod(name string, mode FileMode) error
	Remove(name string) error
	Open(name string) (io.ReadCloser, error)
	// Create truncates or creates a regular file for writing
	Create(name string) (io.WriteCloser, error)
}

// Mirror receives a copy of every file the server has verified, and learns about
// every file it removed.
type Mirror interface {
	Put(fileName string, content io.Reader, fileSize int64, metadata FileMetadata) (written int64, err error)
	Delete(fileName string) error
}

// CacheEntry remembers a destination file's fingerprint together with the
// size and mtime it had when it was computed.
type CacheEntry struct {
	Size        int64
	Mtime       int64
	Mode        FileMode
	Fingerprint []byte
}

// FingerprintCache lets the server skip reading files that did not change
// since their fingerprint was last computed.
type FingerprintCache interface {
	Get(name string) (*CacheEntry, error) // nil, nil when absent
	Put(name string, entry *CacheEntry) error
	Delete(name string) error
}
