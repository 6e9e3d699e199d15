package rcopy

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

/* As a client, we need to:
1. walk the source tree, one request per object, over one connection
2. wait for the verdict of every request before sending the next one
3. hand every object the server wants to a transfer worker with its own connection
*/

// Client makes the server's copy of a tree identical to a local one.
type Client struct {
	address string
	opts    Options
	conn    *Conn // Diff connection, dialled on the first request
	root    string
	workers *semaphore.Weighted
}

func NewClient(address string, opts *Options) *Client {
	o := opts.withDefaults()
	return &Client{
		address: address,
		opts:    o,
		workers: semaphore.NewWeighted(int64(o.MaxTransfers)),
	}
}

// Sync synchronizes source and everything below it. It reports ok == false when at
// least one object failed; a non-nil error means the connection itself became
// unusable and the run was abandoned.
func (c *Client) Sync(ctx context.Context, source string) (ok bool, err error) {
	root, err := filepath.Abs(source)
	if err != nil {
		return false, errors.Wrapf(err, "resolving %s", source)
	}
	if _, err := os.Lstat(root); err != nil {
		return false, errors.Wrapf(err, "inspecting %s", source)
	}
	c.root = root

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.close()

	var transfers errgroup.Group
	failed, err := c.walk(ctx, root, &transfers)
	if err != nil {
		return false, err
	}
	if transfers.Wait() != nil {
		failed = true
	}
	return !failed, nil
}

func (c *Client) close() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	skt, err := c.opts.Dial(ctx, "tcp", c.address)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", c.address)
	}
	c.conn = NewConn(skt)
	slog.Debug("connection established", "remote", c.address)
	return nil
}

// walk handles one object. Transfers it needs are started in transfers, which the
// caller joins. failed reports a per-object problem in this subtree; err is fatal.
func (c *Client) walk(ctx context.Context, path string, transfers *errgroup.Group) (failed bool, err error) {
	info, err := os.Lstat(path)
	if err != nil {
		slog.Error("cannot inspect", "path", path, "error", err)
		return true, nil
	}

	// Ignore links
	if info.Mode()&os.ModeSymlink != 0 {
		return false, nil
	}

	req, err := c.newRequest(path, info)
	if err != nil {
		slog.Error("cannot describe", "path", path, "error", err)
		return true, nil
	}

	if err := c.connect(ctx); err != nil {
		return false, err
	}
	if err := c.conn.WriteRequest(req); err != nil {
		return false, errors.Wrapf(err, "sending request for %s", req.Path)
	}
	verdict, err := c.conn.ReadVerdict()
	if err != nil {
		return false, errors.Wrapf(err, "reading verdict for %s", req.Path)
	}
	slog.Debug("verdict", "path", req.Path, "kind", req.Kind, "verdict", verdict)
	c.opts.Callback.OnVerdict(*req, verdict)

	switch verdict {
	case Error:
		slog.Error("server rejected object", "path", req.Path, "kind", req.Kind)
		return true, nil

	case Identical:
		if req.Kind == KindDir {
			return c.walkDir(ctx, path, req.Path)
		}
		return false, nil

	case NeedsTransfer:
		if err := c.workers.Acquire(ctx, 1); err != nil {
			return false, errors.Wrap(err, "waiting for a transfer worker")
		}
		transfer := *req
		transfer.Kind = KindTransfer
		transfers.Go(func() error {
			defer c.workers.Release(1)
			err := c.transfer(ctx, path, &transfer)
			if err != nil {
				slog.Error("transfer failed", "path", transfer.Path, "error", err)
			}
			c.opts.Callback.OnTransfer(transfer, err)
			return err
		})
		return false, nil
	}

	// ReadVerdict only returns known verdicts
	return false, errors.Wrapf(ErrUnknownVerdict, "%d", verdict)
}

// walkDir visits the entries of a directory the server already has, one by one,
// then waits for every transfer they started.
func (c *Client) walkDir(ctx context.Context, dir string, name string) (failed bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("cannot read directory", "path", name, "error", err)
		return true, nil
	}

	var transfers errgroup.Group
	for _, entry := range entries {
		if c.opts.Exclusion.Match(entry.Name()) || entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		f, err := c.walk(ctx, filepath.Join(dir, entry.Name()), &transfers)
		if err != nil {
			return false, err
		}
		if f {
			failed = true
		}
	}

	if transfers.Wait() != nil {
		failed = true
	}
	return failed, nil
}

func (c *Client) newRequest(path string, info os.FileInfo) (*SyncRequest, error) {
	name, err := wirePath(c.root, path)
	if err != nil {
		return nil, err
	}
	size, err := FileSize(info.Size())
	if err != nil {
		return nil, err
	}
	req := &SyncRequest{
		Path: name,
		Mode: NewFileMode(info.Mode()),
		Size: size,
	}

	switch {
	case info.Mode().IsRegular():
		req.Kind = KindFile
		req.Fingerprint, err = SumFile(c.opts.Fingerprinter, path)
		if err != nil {
			return nil, err
		}

	case info.IsDir():
		req.Kind = KindDir
		// A dir has no content: the block stays zero
		req.Fingerprint = make([]byte, c.opts.Fingerprinter.Size())

	default:
		return nil, errors.Errorf("unsupported file type %s", info.Mode().Type())
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
