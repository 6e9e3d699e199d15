package rcopy

import (
	"os"
)

// Permission bits as they travel on the wire: the low 12 bits of a unix st_mode.
type FileMode uint32

const (
	S_ISUID = 04000
	S_ISGID = 02000
	S_ISVTX = 01000

	PERM_MASK = 07777
)

// NewFileMode converts the permission part of an os.FileMode; Go keeps setuid,
// setgid and sticky outside the low bits.
func NewFileMode(m os.FileMode) FileMode {
	mode := FileMode(m.Perm())
	if m&os.ModeSetuid != 0 {
		mode |= S_ISUID
	}
	if m&os.ModeSetgid != 0 {
		mode |= S_ISGID
	}
	if m&os.ModeSticky != 0 {
		mode |= S_ISVTX
	}
	return mode
}

// Convert returns the os.FileMode accepted by os.Chmod.
func (m FileMode) Convert() os.FileMode {
	mode := os.FileMode(m & 0777)
	if m&S_ISUID != 0 {
		mode |= os.ModeSetuid
	}
	if m&S_ISGID != 0 {
		mode |= os.ModeSetgid
	}
	if m&S_ISVTX != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

func (m FileMode) Perm() FileMode {
	return m & PERM_MASK
}

func (m FileMode) String() string {
	return m.Convert().String()
}
