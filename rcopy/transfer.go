package rcopy

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
)

// transfer streams one file over a connection of its own: the TransferFile header,
// exactly req.Size bytes of content, then it waits for the final verdict.
func (c *Client) transfer(ctx context.Context, path string, req *SyncRequest) error {
	skt, err := c.opts.Dial(ctx, "tcp", c.address)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", c.address)
	}
	conn := NewConn(skt)
	defer conn.Close()

	if err := conn.WriteRequest(req); err != nil {
		return errors.Wrap(err, "sending transfer request")
	}

	if req.Size > 0 {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "opening %s for reading", path)
		}
		defer f.Close()

		buf := make([]byte, c.opts.ChunkSize)
		n, err := io.CopyBuffer(conn, io.LimitReader(f, int64(req.Size)), buf)
		if err != nil {
			return errors.Wrap(err, "sending content")
		}
		if n != int64(req.Size) {
			// The file shrank since it was fingerprinted; the server is still waiting
			return errors.Errorf("sent %d of %d bytes", n, req.Size)
		}
	}

	verdict, err := conn.ReadVerdict()
	if err != nil {
		return errors.Wrap(err, "reading verdict")
	}
	if verdict != Identical {
		return errors.Errorf("server answered %s", verdict)
	}
	return nil
}
