package rcopy

import (
	"io"
	"log/slog"
	"net"

	"github.com/pkg/errors"
)

// Input states. The header states form a ring: every finished request returns to
// awaitingKind, ready for the next one on the same connection.
type state int

const (
	awaitingKind state = iota
	awaitingPath
	awaitingMode
	awaitingFingerprint
	awaitingSize
	awaitingData
)

var stateNames = [...]string{"kind", "path", "mode", "fingerprint", "size", "data"}

func (st state) String() string {
	return stateNames[st]
}

// session is the state of one connection on the server.
type session struct {
	srv    *Server
	h      handle
	wire   *Conn
	remote string

	state     state
	req       SyncRequest
	remaining int64          // Content bytes still expected
	dest      io.WriteCloser // Open during awaitingData

	header []byte
	chunk  []byte
	closed bool // The connection must be dropped
}

func newSession(srv *Server, conn net.Conn) *session {
	return &session{
		srv:    srv,
		wire:   NewConn(conn),
		remote: conn.RemoteAddr().String(),
		header: make([]byte, MAX_PATH),
		chunk:  make([]byte, srv.opts.ChunkSize),
	}
}

// next is the single read the session wants to perform on its next wakeup.
func (s *session) next() readOp {
	if s.state == awaitingData {
		return readOp{buf: s.chunk}
	}
	return readOp{buf: s.header[:requestFields[s.state].width], full: true}
}

// advance applies the result of one read: exactly one state transition.
func (s *session) advance(n int, err error) {
	if s.state == awaitingData {
		s.receive(n, err)
		return
	}

	if err != nil {
		if err == io.EOF {
			slog.Debug("client disconnected", "remote", s.remote)
		} else {
			slog.Warn("reading request", "remote", s.remote, "state", s.state, "error", err)
		}
		s.reset()
		s.closed = true
		return
	}

	field := requestFields[s.state]
	if err := field.decode(&s.req, s.header[:n]); err != nil {
		slog.Error("malformed request", "remote", s.remote, "state", s.state, "error", err)
		s.reset()
		s.closed = true
		return
	}
	if s.state < awaitingSize {
		s.state++
		return
	}

	// We have received the whole request
	s.state = awaitingKind
	slog.Debug("request", "remote", s.remote, "kind", s.req.Kind, "path", s.req.Path,
		"mode", s.req.Mode, "size", s.req.Size)

	switch s.req.Kind {
	case KindFile:
		s.respond(s.srv.diffFile(&s.req))
	case KindDir:
		s.respond(s.srv.diffDir(&s.req))
	case KindTransfer:
		s.beginTransfer()
	}
}

func (s *session) beginTransfer() {
	if err := s.srv.prepareTransfer(&s.req); err != nil {
		slog.Error("preparing transfer", "path", s.req.Path, "error", err)
		s.failTransfer()
		return
	}

	// No data to be transferred
	if s.req.Size == 0 {
		s.respond(s.srv.createEmpty(&s.req))
		return
	}

	dest, err := s.srv.fs.Create(s.req.Path)
	if err != nil {
		slog.Error("creating file", "path", s.req.Path, "error", err)
		s.failTransfer()
		return
	}

	// No reply: the client is sending content now
	s.dest = dest
	s.remaining = int64(s.req.Size)
	s.state = awaitingData
}

// failTransfer rejects a transfer whose content is already on its way.
// The connection is dropped since that content cannot be told apart from a request.
func (s *session) failTransfer() {
	s.respond(Error)
	s.reset()
	s.closed = true
}

func (s *session) receive(n int, err error) {
	if n > 0 {
		if _, werr := s.dest.Write(s.chunk[:n]); werr != nil {
			slog.Error("writing file", "path", s.req.Path, "error", werr)
			s.failTransfer()
			return
		}
		s.remaining -= int64(n)
	}

	switch {
	case s.remaining < 0:
		slog.Error("received more data than declared", "path", s.req.Path,
			"excess", -s.remaining)
		s.failTransfer()

	case s.remaining == 0:
		verdict := Error
		closeErr := s.dest.Close()
		s.dest = nil
		if closeErr != nil {
			slog.Error("closing file", "path", s.req.Path, "error", closeErr)
		} else {
			verdict = s.srv.verify(&s.req)
		}
		s.state = awaitingKind
		s.respond(verdict)

	case err == io.EOF:
		slog.Error("transfer terminated early", "path", s.req.Path, "missing", s.remaining)
		s.reset()
		s.closed = true

	case err != nil:
		slog.Error("reading file content", "path", s.req.Path, "error", err)
		s.failTransfer()
	}
}

func (s *session) respond(v Verdict) {
	if s.closed {
		return
	}
	slog.Debug("response", "remote", s.remote, "path", s.req.Path, "verdict", v)
	if err := s.wire.WriteVerdict(v); err != nil {
		slog.Warn("writing verdict", "remote", s.remote, "error", errors.Wrap(err, s.req.Path))
		s.reset()
		s.closed = true
	}
}

// reset returns to the start of the ring, discarding any partial transfer.
// A partially received file stays on disk as received.
func (s *session) reset() {
	if s.dest != nil {
		s.dest.Close()
		s.dest = nil
	}
	s.state = awaitingKind
	s.remaining = 0
	s.req = SyncRequest{Fingerprint: s.req.Fingerprint[:0]}
}

func (s *session) abort() {
	s.reset()
	s.closed = true
}
