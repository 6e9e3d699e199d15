package rcopy

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

var (
	ErrPathTooLong  = errors.New("path exceeds the protocol limit")
	ErrFileTooLarge = errors.New("file size exceeds the protocol limit")
	ErrUnknownKind  = errors.New("unknown request kind")
)

// SyncRequest describes one filesystem object. It travels as five positional fields:
// kind, path, mode, fingerprint block, size. There is no length prefix or delimiter.
type SyncRequest struct {
	Kind        Kind
	Path        string // Relative to the sync root, starts with the source's basename
	Mode        FileMode
	Fingerprint []byte // All zero for directories
	Size        uint32
}

// Validate reports whether the request can be encoded.
func (r *SyncRequest) Validate() error {
	if !r.Kind.Valid() {
		return errors.Wrapf(ErrUnknownKind, "kind %d", r.Kind)
	}
	if len(r.Path) > MAX_PATH {
		return errors.Wrapf(ErrPathTooLong, "%d bytes", len(r.Path))
	}
	if len(r.Fingerprint) > FINGERPRINT_LEN {
		return errors.Errorf("fingerprint of %d bytes does not fit the block", len(r.Fingerprint))
	}
	return nil
}

// Marshal encodes the request in wire order.
func (r *SyncRequest) Marshal() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, REQUEST_LEN)
	b := buf
	binary.BigEndian.PutUint32(b, uint32(r.Kind))
	b = b[KIND_LEN:]
	copy(b[:MAX_PATH], r.Path)
	b = b[MAX_PATH:]
	binary.BigEndian.PutUint32(b, uint32(r.Mode.Perm()))
	b = b[MODE_LEN:]
	copy(b[:FINGERPRINT_LEN], r.Fingerprint)
	b = b[FINGERPRINT_LEN:]
	binary.BigEndian.PutUint32(b, r.Size)
	return buf, nil
}

// Unmarshal decodes a complete request.
func (r *SyncRequest) Unmarshal(buf []byte) error {
	if len(buf) != REQUEST_LEN {
		return errors.Errorf("request must be %d bytes, got %d", REQUEST_LEN, len(buf))
	}
	for _, f := range requestFields {
		if err := f.decode(r, buf[:f.width]); err != nil {
			return err
		}
		buf = buf[f.width:]
	}
	return nil
}

// The request decoded field by field, as the server receives it.
type requestField struct {
	width  int
	decode func(r *SyncRequest, b []byte) error
}

var requestFields = [...]requestField{
	{KIND_LEN, decodeKind},
	{MAX_PATH, decodePath},
	{MODE_LEN, decodeMode},
	{FINGERPRINT_LEN, decodeFingerprint},
	{SIZE_LEN, decodeSize},
}

func decodeKind(r *SyncRequest, b []byte) error {
	r.Kind = Kind(binary.BigEndian.Uint32(b))
	if !r.Kind.Valid() {
		return errors.Wrapf(ErrUnknownKind, "kind %d", r.Kind)
	}
	return nil
}

func decodePath(r *SyncRequest, b []byte) error {
	if i := bytes.IndexByte(b, 0); i != -1 {
		b = b[:i]
	}
	if len(b) == 0 {
		return errors.New("empty path")
	}
	r.Path = string(b)
	return nil
}

func decodeMode(r *SyncRequest, b []byte) error {
	r.Mode = FileMode(binary.BigEndian.Uint32(b)).Perm()
	return nil
}

func decodeFingerprint(r *SyncRequest, b []byte) error {
	r.Fingerprint = append(r.Fingerprint[:0], b...)
	return nil
}

func decodeSize(r *SyncRequest, b []byte) error {
	r.Size = binary.BigEndian.Uint32(b)
	return nil
}

// FileSize checks that a local size fits in the size field.
func FileSize(size int64) (uint32, error) {
	if size < 0 || size > math.MaxUint32 {
		return 0, errors.Wrapf(ErrFileTooLarge, "%d bytes", size)
	}
	return uint32(size), nil
}
