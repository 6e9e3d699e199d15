package rcopy

import (
	stderrs "errors"
	"io/fs"
	"log/slog"

	"github.com/pkg/errors"
)

// diffFile classifies a regular file the client has.
func (s *Server) diffFile(req *SyncRequest) Verdict {
	info, err := s.fs.Lstat(req.Path)
	if stderrs.Is(err, fs.ErrNotExist) {
		return NeedsTransfer
	}
	if err != nil {
		slog.Error("inspecting file", "path", req.Path, "error", err)
		return Error
	}

	// A mismatch of types is never resolved by overwriting
	if !info.Mode().IsRegular() {
		slog.Error("not a file", "path", req.Path, "type", info.Mode().Type())
		if err := s.fs.Chmod(req.Path, req.Mode); err != nil {
			slog.Error("changing mode", "path", req.Path, "error", err)
		}
		return Error
	}

	if info.Size() != int64(req.Size) {
		return NeedsTransfer
	}

	sum, err := s.fingerprint(req.Path, info)
	if err != nil {
		slog.Error("fingerprinting file", "path", req.Path, "error", err)
		return Error
	}
	if !Equal(sum, req.Fingerprint, s.opts.Fingerprinter.Size()) {
		return NeedsTransfer
	}

	if err := s.reconcileMode(req, info.Mode()); err != nil {
		slog.Error("changing mode", "path", req.Path, "error", err)
		return Error
	}
	return Identical
}

// diffDir makes sure a directory exists; creating it counts as identical.
func (s *Server) diffDir(req *SyncRequest) Verdict {
	info, err := s.fs.Lstat(req.Path)
	if stderrs.Is(err, fs.ErrNotExist) {
		if err := s.fs.Mkdir(req.Path, req.Mode); err != nil {
			slog.Error("creating directory", "path", req.Path, "error", err)
			return Error
		}
		slog.Info("created directory", "path", req.Path, "mode", req.Mode)
		return Identical
	}
	if err != nil {
		slog.Error("inspecting directory", "path", req.Path, "error", err)
		return Error
	}

	if !info.IsDir() {
		slog.Error("not a directory", "path", req.Path, "type", info.Mode().Type())
		return Error
	}

	if err := s.reconcileMode(req, info.Mode()); err != nil {
		slog.Error("changing mode", "path", req.Path, "error", err)
		return Error
	}
	return Identical
}

func (s *Server) reconcileMode(req *SyncRequest, current fs.FileMode) error {
	if NewFileMode(current) == req.Mode.Perm() {
		return nil
	}
	slog.Info("updating mode", "path", req.Path, "from", NewFileMode(current), "to", req.Mode)
	return s.fs.Chmod(req.Path, req.Mode)
}

// prepareTransfer removes whatever has the name of the incoming file.
// Directories are never removed.
func (s *Server) prepareTransfer(req *SyncRequest) error {
	info, err := s.fs.Lstat(req.Path)
	if stderrs.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "inspecting existing object")
	}
	if info.IsDir() {
		return errors.New("a directory is in the way")
	}
	if err := s.fs.Remove(req.Path); err != nil {
		return errors.Wrap(err, "removing existing object")
	}
	s.forget(req.Path)
	return nil
}

func (s *Server) createEmpty(req *SyncRequest) Verdict {
	w, err := s.fs.Create(req.Path)
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		slog.Error("creating empty file", "path", req.Path, "error", err)
		return Error
	}
	if err := s.fs.Chmod(req.Path, req.Mode); err != nil {
		slog.Error("changing mode of empty file", "path", req.Path, "error", err)
		return Error
	}
	slog.Info("file transfer is completed", "path", req.Path, "size", 0)
	s.publish(req)
	return Identical
}

// verify re-checks a received file against what the client declared.
// A mismatching file is left on disk as received.
func (s *Server) verify(req *SyncRequest) Verdict {
	info, err := s.fs.Lstat(req.Path)
	if err != nil {
		slog.Error("inspecting received file", "path", req.Path, "error", err)
		return Error
	}
	if info.Size() != int64(req.Size) {
		slog.Error("file received is different from the original file", "path", req.Path,
			"size", info.Size(), "declared", req.Size)
		return Error
	}

	sum, err := s.sum(req.Path)
	if err != nil {
		slog.Error("fingerprinting received file", "path", req.Path, "error", err)
		return Error
	}
	if !Equal(sum, req.Fingerprint, s.opts.Fingerprinter.Size()) {
		slog.Error("file received is different from the original file", "path", req.Path,
			"reason", "fingerprint")
		return Error
	}

	if err := s.fs.Chmod(req.Path, req.Mode); err != nil {
		slog.Error("changing mode", "path", req.Path, "error", err)
		return Error
	}

	// Chmod leaves mtime alone, so info still describes the file
	s.remember(req.Path, info, req.Mode, sum)
	slog.Info("file transfer is completed", "path", req.Path, "size", req.Size)
	s.publish(req)
	return Identical
}

// fingerprint of a destination file, from the cache when the file did not change.
func (s *Server) fingerprint(name string, info fs.FileInfo) ([]byte, error) {
	if s.opts.Cache != nil {
		entry, err := s.opts.Cache.Get(name)
		if err != nil {
			slog.Warn("reading fingerprint cache", "path", name, "error", err)
		} else if entry != nil && entry.Size == info.Size() &&
			entry.Mtime == info.ModTime().UnixNano() &&
			len(entry.Fingerprint) == s.opts.Fingerprinter.Size() {
			return entry.Fingerprint, nil
		}
	}

	sum, err := s.sum(name)
	if err != nil {
		return nil, err
	}
	s.remember(name, info, NewFileMode(info.Mode()), sum)
	return sum, nil
}

func (s *Server) sum(name string) ([]byte, error) {
	r, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return s.opts.Fingerprinter.Sum(r)
}

func (s *Server) remember(name string, info fs.FileInfo, mode FileMode, sum []byte) {
	if s.opts.Cache == nil {
		return
	}
	err := s.opts.Cache.Put(name, &CacheEntry{
		Size:        info.Size(),
		Mtime:       info.ModTime().UnixNano(),
		Mode:        mode,
		Fingerprint: sum,
	})
	if err != nil {
		slog.Warn("updating fingerprint cache", "path", name, "error", err)
	}
}

func (s *Server) forget(name string) {
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Delete(name); err != nil {
			slog.Warn("updating fingerprint cache", "path", name, "error", err)
		}
	}
	if s.opts.Mirror != nil {
		if err := s.opts.Mirror.Delete(name); err != nil {
			slog.Warn("removing mirrored object", "path", name, "error", err)
		}
	}
}

// publish hands a verified file to the mirror. The mirror is best effort:
// its failures do not change the verdict.
func (s *Server) publish(req *SyncRequest) {
	if s.opts.Mirror == nil {
		return
	}
	r, err := s.fs.Open(req.Path)
	if err != nil {
		slog.Warn("mirroring file", "path", req.Path, "error", err)
		return
	}
	defer r.Close()

	meta := FileMetadata{Mode: req.Mode}
	if info, err := s.fs.Lstat(req.Path); err == nil {
		meta.Mtime = info.ModTime().UnixNano()
	}
	if _, err := s.opts.Mirror.Put(req.Path, r, int64(req.Size), meta); err != nil {
		slog.Warn("mirroring file", "path", req.Path, "error", err)
	}
}
