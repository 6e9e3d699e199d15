package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/kaiakz/rcopy-os/rcopy"
)

// Local is a destination tree on the local disk. Every name is taken relative to
// workDir; keeping clients below it is the job of the sandbox around the server.
type Local struct {
	workDir string
}

func NewLocal(workDir string) (*Local, error) {
	info, err := os.Stat(workDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: workDir, Err: os.ErrInvalid}
	}
	return &Local{workDir: workDir}, nil
}

func (l *Local) Path(name string) string {
	return filepath.Join(l.workDir, filepath.FromSlash(name))
}

func (l *Local) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(l.Path(name))
}

// Mkdir creates the dir, then sets its mode exactly; mkdir alone is subject to the umask.
func (l *Local) Mkdir(name string, mode rcopy.FileMode) error {
	fpath := l.Path(name)
	if err := os.Mkdir(fpath, 0777); err != nil {
		return err
	}
	return os.Chmod(fpath, mode.Convert())
}

func (l *Local) Chmod(name string, mode rcopy.FileMode) error {
	return os.Chmod(l.Path(name), mode.Convert())
}

func (l *Local) Remove(name string) error {
	return os.Remove(l.Path(name))
}

func (l *Local) Open(name string) (io.ReadCloser, error) {
	return os.Open(l.Path(name))
}

// Create starts an owner-only file; its final mode is set once it is verified.
func (l *Local) Create(name string) (io.WriteCloser, error) {
	return os.OpenFile(l.Path(name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
}
