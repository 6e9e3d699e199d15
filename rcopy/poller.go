package rcopy

import (
	"context"
	"io"
	"net"
)

// A handle names a registered connection. Handles are never reused, so a
// readiness event that races with the removal of its handle is simply dropped.
type handle uint64

// One read the loop wants performed on a connection.
type readOp struct {
	buf  []byte
	full bool // Fill buf completely (header fields), or take what one read returns (content)
}

// readiness is delivered to the loop when a listener accepted a connection,
// or when an armed read on a registered connection completed.
type readiness struct {
	h        handle
	n        int
	err      error
	accepted net.Conn
}

type watched struct {
	conn net.Conn
	ops  chan readOp // At most one outstanding read
	done chan struct{}
}

// poller multiplexes many connections onto a single event channel. Reads happen in
// one goroutine per connection, but only when armed, and only one read per arming:
// the goroutine consuming Wait decides what every connection reads next.
type poller struct {
	events  chan readiness
	watched map[handle]*watched
	last    handle
	stop    chan struct{}
}

func newPoller() *poller {
	return &poller{
		events:  make(chan readiness),
		watched: make(map[handle]*watched),
		stop:    make(chan struct{}),
	}
}

// Listen reports every connection accepted on ln. A failing listener is
// reported once with a zero handle.
func (p *poller) Listen(ln net.Listener) {
	go func() {
		for {
			conn, err := ln.Accept()
			ev := readiness{accepted: conn, err: err}
			select {
			case p.events <- ev:
			case <-p.stop:
				if conn != nil {
					conn.Close()
				}
				return
			}
			if err != nil {
				return
			}
		}
	}()
}

// Add registers conn; nothing is read until the handle is armed.
func (p *poller) Add(conn net.Conn) handle {
	p.last++
	h := p.last
	w := &watched{
		conn: conn,
		ops:  make(chan readOp, 1),
		done: make(chan struct{}),
	}
	p.watched[h] = w
	go p.read(h, w)
	return h
}

func (p *poller) read(h handle, w *watched) {
	for {
		var op readOp
		select {
		case op = <-w.ops:
		case <-w.done:
			return
		case <-p.stop:
			return
		}

		var ev readiness
		ev.h = h
		if op.full {
			ev.n, ev.err = io.ReadFull(w.conn, op.buf)
		} else {
			ev.n, ev.err = w.conn.Read(op.buf)
		}

		select {
		case p.events <- ev:
		case <-w.done:
			return
		case <-p.stop:
			return
		}
	}
}

// Arm asks for exactly one read on h.
func (p *poller) Arm(h handle, op readOp) {
	if w, ok := p.watched[h]; ok {
		w.ops <- op
	}
}

// Remove closes the connection behind h and forgets it. Other handles are untouched.
func (p *poller) Remove(h handle) {
	w, ok := p.watched[h]
	if !ok {
		return
	}
	delete(p.watched, h)
	close(w.done)
	w.conn.Close()
}

func (p *poller) Registered(h handle) bool {
	_, ok := p.watched[h]
	return ok
}

func (p *poller) Len() int {
	return len(p.watched)
}

// Wait blocks until something is ready.
func (p *poller) Wait(ctx context.Context) (readiness, error) {
	select {
	case ev := <-p.events:
		return ev, nil
	case <-ctx.Done():
		return readiness{}, ctx.Err()
	}
}

func (p *poller) Close() {
	close(p.stop)
	for h := range p.watched {
		p.Remove(h)
	}
}
