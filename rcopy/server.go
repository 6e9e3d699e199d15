package rcopy

import (
	"context"
	"log/slog"
	"net"

	"github.com/pkg/errors"
)

type ServerOptions struct {
	ChunkSize     int           // Largest read of file content per wakeup
	Fingerprinter Fingerprinter // Must match the clients'
	Cache         FingerprintCache
	Mirror        Mirror
}

// Server synchronizes what clients send into fs. A single goroutine owns every
// session; it never reads more than one field or one chunk per wakeup.
type Server struct {
	fs       FS
	opts     ServerOptions
	poller   *poller
	sessions map[handle]*session
}

func NewServer(fs FS, opts *ServerOptions) *Server {
	o := ServerOptions{}
	if opts != nil {
		o = *opts
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = CHUNK_SIZE
	}
	if o.Fingerprinter == nil {
		o.Fingerprinter = XOR{}
	}
	return &Server{
		fs:       fs,
		opts:     o,
		sessions: make(map[handle]*session),
	}
}

// Serve accepts connections on ln and serves them until ctx is done or ln fails.
// It closes ln and every connection before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.poller = newPoller()
	defer func() {
		ln.Close()
		for _, sess := range s.sessions {
			sess.abort()
		}
		s.sessions = make(map[handle]*session)
		s.poller.Close()
	}()

	s.poller.Listen(ln)
	slog.Info("listening", "addr", ln.Addr())

	for {
		ev, err := s.poller.Wait(ctx)
		if err != nil {
			return err
		}

		// The listener
		if ev.h == 0 {
			if ev.err != nil {
				return errors.Wrap(ev.err, "accepting connection")
			}
			s.accept(ev.accepted)
			continue
		}

		sess, ok := s.sessions[ev.h]
		if !ok {
			continue
		}
		sess.advance(ev.n, ev.err)
		if sess.closed {
			s.drop(sess)
			continue
		}
		s.poller.Arm(sess.h, sess.next())
	}
}

func (s *Server) accept(conn net.Conn) {
	sess := newSession(s, conn)
	sess.h = s.poller.Add(conn)
	s.sessions[sess.h] = sess
	slog.Debug("accepted connection", "remote", sess.remote, "clients", len(s.sessions))
	s.poller.Arm(sess.h, sess.next())
}

func (s *Server) drop(sess *session) {
	sess.abort()
	delete(s.sessions, sess.h)
	s.poller.Remove(sess.h)
	slog.Debug("closed connection", "remote", sess.remote, "clients", len(s.sessions))
}
