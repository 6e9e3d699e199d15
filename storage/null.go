package storage

import (
	"io"

	"github.com/kaiakz/rcopy-os/rcopy"
)

/*
A /dev/null-like mirror, used when no object storage is configured
*/

type NULL struct {
}

func (nu *NULL) Put(fileName string, content io.Reader, fileSize int64, metadata rcopy.FileMetadata) (written int64, err error) {
	// Do nothing
	return fileSize, nil
}

func (nu *NULL) Delete(fileName string) error {
	return nil
}
