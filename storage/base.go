package storage

import (
	"github.com/kaiakz/rcopy-os/rcopy"
)

var (
	_ rcopy.FS     = (*Local)(nil)
	_ rcopy.Mirror = (*Minio)(nil)
	_ rcopy.Mirror = (*NULL)(nil)
)
