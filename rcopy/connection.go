package rcopy

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var ErrUnknownVerdict = errors.New("unknown verdict")

// io.ReadWriteCloser wrapper speaking the request/verdict framing.
// Encoding: big endian (network byte order).
type Conn struct {
	rwc       io.ReadWriteCloser
	bytespool []byte // Anti memory-wasted, default size: 4 bytes
}

func NewConn(rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		rwc:       rwc,
		bytespool: make([]byte, 4),
	}
}

func (conn *Conn) Write(p []byte) (n int, err error) {
	return conn.rwc.Write(p)
}

func (conn *Conn) Read(p []byte) (n int, err error) {
	return conn.rwc.Read(p)
}

func (conn *Conn) ReadInt() (uint32, error) {
	val := conn.bytespool[:4]
	if _, err := io.ReadFull(conn.rwc, val); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(val), nil
}

func (conn *Conn) WriteInt(data uint32) error {
	return binary.Write(conn.rwc, binary.BigEndian, data)
}

// WriteRequest sends the request as a single write.
func (conn *Conn) WriteRequest(req *SyncRequest) error {
	buf, err := req.Marshal()
	if err != nil {
		return err
	}
	_, err = conn.rwc.Write(buf)
	return err
}

func (conn *Conn) ReadRequest() (*SyncRequest, error) {
	buf := make([]byte, REQUEST_LEN)
	if _, err := io.ReadFull(conn.rwc, buf); err != nil {
		return nil, err
	}
	req := new(SyncRequest)
	if err := req.Unmarshal(buf); err != nil {
		return nil, err
	}
	return req, nil
}

// ReadVerdict blocks for the server's answer. A value outside the enumeration
// means the peer does not speak this protocol.
func (conn *Conn) ReadVerdict() (Verdict, error) {
	v, err := conn.ReadInt()
	if err != nil {
		return 0, err
	}
	if !Verdict(v).Valid() {
		return 0, errors.Wrapf(ErrUnknownVerdict, "%d", v)
	}
	return Verdict(v), nil
}

func (conn *Conn) WriteVerdict(v Verdict) error {
	return conn.WriteInt(uint32(v))
}

func (conn *Conn) Close() error {
	return conn.rwc.Close()
}
