package fldb

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kaiakz/rcopy-os/rcopy"
)

// FInfo is the stored form of a cache entry, a protobuf message:
//
//	message FInfo {
//	  int64 size = 1;
//	  int64 mtime = 2;
//	  uint32 mode = 3;
//	  bytes fingerprint = 4;
//	}
type FInfo struct {
	Size        int64
	Mtime       int64
	Mode        uint32
	Fingerprint []byte
}

const (
	fieldSize        protowire.Number = 1
	fieldMtime       protowire.Number = 2
	fieldMode        protowire.Number = 3
	fieldFingerprint protowire.Number = 4
)

func NewFInfo(e *rcopy.CacheEntry) *FInfo {
	return &FInfo{
		Size:        e.Size,
		Mtime:       e.Mtime,
		Mode:        uint32(e.Mode),
		Fingerprint: e.Fingerprint,
	}
}

func (f *FInfo) Entry() *rcopy.CacheEntry {
	return &rcopy.CacheEntry{
		Size:        f.Size,
		Mtime:       f.Mtime,
		Mode:        rcopy.FileMode(f.Mode),
		Fingerprint: f.Fingerprint,
	}
}

func (f *FInfo) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Size))
	b = protowire.AppendTag(b, fieldMtime, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Mtime))
	b = protowire.AppendTag(b, fieldMode, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Mode))
	b = protowire.AppendTag(b, fieldFingerprint, protowire.BytesType)
	b = protowire.AppendBytes(b, f.Fingerprint)
	return b
}

// Unmarshal decodes an FInfo, skipping fields it does not know.
func Unmarshal(b []byte) (*FInfo, error) {
	f := &FInfo{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.Size = int64(v)
			b = b[n:]
		case num == fieldMtime && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.Mtime = int64(v)
			b = b[n:]
		case num == fieldMode && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.Mode = uint32(v)
			b = b[n:]
		case num == fieldFingerprint && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.Fingerprint = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "field %d", num)
			}
			b = b[n:]
		}
	}
	return f, nil
}
